package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/storecheck/internal/scenario"
)

// WriteRun records a finished outcome and its steps in one transaction.
// A run ID already present is silently ignored.
func (s *Store) WriteRun(ctx context.Context, out scenario.Outcome) error {
	if out.RunID == "" {
		return fmt.Errorf("write run: run id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, scenario, browser, pass, code, message, started_at, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		out.RunID,
		string(out.Scenario),
		string(out.Browser),
		boolToInt(out.Pass),
		string(out.Code),
		out.Message,
		out.StartedAt.UTC().Format(time.RFC3339Nano),
		out.Elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("write run %s: %w", out.RunID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("write run %s: %w", out.RunID, err)
	} else if n == 0 {
		return nil
	}

	for _, st := range out.Steps {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO steps (run_id, seq, action, status, detail)
			VALUES (?, ?, ?, ?, ?)
		`, out.RunID, st.Seq, st.Action, st.Status, st.Detail); err != nil {
			return fmt.Errorf("write step %d of run %s: %w", st.Seq, out.RunID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run %s: commit: %w", out.RunID, err)
	}
	return nil
}

// WriteRuns records several outcomes, stopping at the first error.
func (s *Store) WriteRuns(ctx context.Context, outs []scenario.Outcome) error {
	for _, out := range outs {
		if err := s.WriteRun(ctx, out); err != nil {
			return err
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
