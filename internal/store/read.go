package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/storecheck/internal/failure"
	"github.com/roach88/storecheck/internal/scenario"
	"github.com/roach88/storecheck/internal/session"
)

// ErrRunNotFound is returned by ReadRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one ledger row.
type Run struct {
	Seq       int64         `json:"seq"`
	ID        string        `json:"id"`
	Scenario  scenario.Name `json:"scenario"`
	Browser   session.Kind  `json:"browser"`
	Pass      bool          `json:"pass"`
	Code      failure.Code  `json:"code,omitempty"`
	Message   string        `json:"message,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

const runColumns = `seq, id, scenario, browser, pass, code, message, started_at, elapsed_ms`

// ListRuns returns the most recent runs first, at most limit of them
// (all when limit <= 0).
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns the run with the given ID.
func (s *Store) ReadRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	return r, err
}

// ReadSteps returns the trace of a run ordered by seq. It returns an empty
// slice, not nil, for a run without steps or an unknown ID.
func (s *Store) ReadSteps(ctx context.Context, runID string) ([]scenario.Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, action, status, detail
		FROM steps
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	steps := []scenario.Step{}
	for rows.Next() {
		var st scenario.Step
		if err := rows.Scan(&st.Seq, &st.Action, &st.Status, &st.Detail); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}

// ReadOutcome reassembles the recorded Outcome of a run, steps included.
func (s *Store) ReadOutcome(ctx context.Context, runID string) (scenario.Outcome, error) {
	r, err := s.ReadRun(ctx, runID)
	if err != nil {
		return scenario.Outcome{}, err
	}
	steps, err := s.ReadSteps(ctx, runID)
	if err != nil {
		return scenario.Outcome{}, err
	}
	return scenario.Outcome{
		RunID:     r.ID,
		Scenario:  r.Scenario,
		Browser:   r.Browser,
		Pass:      r.Pass,
		Code:      r.Code,
		Message:   r.Message,
		Steps:     steps,
		StartedAt: r.StartedAt,
		Elapsed:   r.Elapsed,
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		r         Run
		name      string
		browser   string
		pass      int
		code      string
		startedAt string
		elapsedMS int64
	)
	if err := row.Scan(&r.Seq, &r.ID, &name, &browser, &pass, &code, &r.Message, &startedAt, &elapsedMS); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: parse started_at: %w", r.ID, err)
	}

	r.Scenario = scenario.Name(name)
	r.Browser = session.Kind(browser)
	r.Pass = pass == 1
	r.Code = failure.Code(code)
	r.StartedAt = t
	r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	return r, nil
}
