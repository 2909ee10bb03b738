package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/storecheck/internal/failure"
	"github.com/roach88/storecheck/internal/scenario"
	"github.com/roach88/storecheck/internal/session"
)

// createTestStore opens a ledger in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testStart = time.Date(2026, time.October, 14, 9, 30, 0, 0, time.UTC)

// passingOutcome builds a login outcome with two steps.
func passingOutcome(id string) scenario.Outcome {
	return scenario.Outcome{
		RunID:     id,
		Scenario:  scenario.Login,
		Browser:   session.Chrome,
		Pass:      true,
		StartedAt: testStart,
		Elapsed:   1500 * time.Millisecond,
		Steps: []scenario.Step{
			{Seq: 1, Action: "open_store", Status: scenario.StatusOK},
			{Seq: 2, Action: "verify_welcome_banner", Status: scenario.StatusOK, Detail: "Welcome jakubszczypek"},
		},
	}
}

// failingOutcome builds a timed-out purchase outcome.
func failingOutcome(id string) scenario.Outcome {
	return scenario.Outcome{
		RunID:     id,
		Scenario:  scenario.SinglePurchase,
		Browser:   session.Firefox,
		Code:      failure.SynchronizationTimeout,
		Message:   "The element Purchase details was not found in 10 seconds!",
		StartedAt: testStart.Add(time.Minute),
		Elapsed:   12 * time.Second,
		Steps: []scenario.Step{
			{Seq: 1, Action: "open_store", Status: scenario.StatusOK},
			{Seq: 2, Action: "verify_confirmation", Status: scenario.StatusFailed, Detail: "The element Purchase details was not found in 10 seconds!"},
		},
	}
}
