package harness

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storecheck/internal/failure"
	"github.com/roach88/storecheck/internal/scenario"
	"github.com/roach88/storecheck/internal/session"
)

// fakeRunner returns canned outcomes keyed by username.
type fakeRunner struct {
	mu       sync.Mutex
	calls    []scenario.Params
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
	outcomes map[string]scenario.Outcome
	err      error
}

func (f *fakeRunner) Run(ctx context.Context, name scenario.Name, browser string, p scenario.Params) (scenario.Outcome, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(f.delay)

	f.mu.Lock()
	f.calls = append(f.calls, p)
	f.mu.Unlock()

	if f.err != nil {
		return scenario.Outcome{}, f.err
	}
	out, ok := f.outcomes[p.Username]
	if !ok {
		out = scenario.Outcome{Pass: true}
	}
	out.Scenario = name
	out.Browser = session.Kind(browser)
	return out, nil
}

func TestRun_PassingScenario(t *testing.T) {
	r := &fakeRunner{outcomes: map[string]scenario.Outcome{
		"alice": {Pass: true, Steps: []scenario.Step{{Seq: 1, Action: "open_store", Status: scenario.StatusOK}}},
	}}
	sc := &Scenario{
		Name:     "login_alice",
		Scenario: "login",
		Browser:  "chrome",
		Username: "alice",
		Assertions: []Assertion{
			{Type: AssertStepStatus, Action: "open_store", Status: scenario.StatusOK},
		},
	}

	result, err := Run(context.Background(), r, sc)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "login_alice", result.Name)
	assert.Equal(t, scenario.Login, result.Outcome.Scenario)
	assert.Equal(t, session.Chrome, result.Outcome.Browser)
}

func TestRun_ExpectedFailurePasses(t *testing.T) {
	r := &fakeRunner{outcomes: map[string]scenario.Outcome{
		"bob": {Code: failure.SynchronizationTimeout, Message: "The element Welcome text was not found in 10 seconds!"},
	}}
	sc := &Scenario{
		Name: "bad_login", Scenario: "login", Username: "bob",
		Expect: Expect{Outcome: OutcomeFail, Code: "SYNCHRONIZATION_TIMEOUT", MessageContains: "Welcome text"},
	}

	result, err := Run(context.Background(), r, sc)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.False(t, result.Outcome.Pass)
}

func TestRun_UnexpectedFailureCollectsErrors(t *testing.T) {
	r := &fakeRunner{outcomes: map[string]scenario.Outcome{
		"carol": {Code: failure.EmptyCart, Message: "the cart is empty"},
	}}
	sc := &Scenario{
		Name: "buy", Scenario: "single_purchase", Username: "carol",
		Assertions: []Assertion{{Type: AssertStepCount, Action: "confirm_purchase", Count: 1}},
	}

	result, err := Run(context.Background(), r, sc)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "expected pass, got EMPTY_CART")
	assert.Contains(t, result.Errors[1], "step_count")
}

func TestRun_RunnerErrorIsReturned(t *testing.T) {
	r := &fakeRunner{err: errors.New("unknown scenario")}
	_, err := Run(context.Background(), r, &Scenario{Name: "x", Scenario: "login"})
	assert.ErrorContains(t, err, "run x: unknown scenario")
}

func TestRunAll_PreservesOrderAndLimitsParallelism(t *testing.T) {
	r := &fakeRunner{delay: 20 * time.Millisecond}
	var scenarios []*Scenario
	for i := range 6 {
		name := fmt.Sprintf("s%d", i)
		scenarios = append(scenarios, &Scenario{Name: name, Scenario: "login", Username: name})
	}

	results, err := RunAll(context.Background(), r, scenarios, 2)
	require.NoError(t, err)
	require.Len(t, results, 6)
	for i, res := range results {
		assert.Equal(t, fmt.Sprintf("s%d", i), res.Name)
	}
	assert.LessOrEqual(t, r.peak.Load(), int32(2))
	assert.Len(t, r.calls, 6)
}

func TestRunAll_SequentialWhenParallelBelowOne(t *testing.T) {
	r := &fakeRunner{delay: 5 * time.Millisecond}
	scenarios := []*Scenario{
		{Name: "a", Scenario: "login"},
		{Name: "b", Scenario: "login"},
		{Name: "c", Scenario: "login"},
	}
	results, err := RunAll(context.Background(), r, scenarios, 0)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, int32(1), r.peak.Load())
}

func TestRunAll_StopsOnRunnerError(t *testing.T) {
	r := &fakeRunner{err: errors.New("driver gone")}
	_, err := RunAll(context.Background(), r, []*Scenario{{Name: "a", Scenario: "login"}}, 4)
	assert.ErrorContains(t, err, "driver gone")
}

func TestSummary(t *testing.T) {
	passed, failed := Summary([]*Result{{Pass: true}, {Pass: false}, {Pass: true}})
	assert.Equal(t, 2, passed)
	assert.Equal(t, 1, failed)
}
