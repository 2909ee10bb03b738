package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/storecheck/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List scenario runs recorded in the ledger, most recent first.

Examples:
  storecheck history --db ./runs.db
  storecheck history --db ./runs.db --limit 5 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list (0 for all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openLedger(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(commandCtx(cmd), opts.Limit)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLedger, "failed to list runs", err)
	}

	if formatter.JSON() {
		return formatter.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}
	w := formatter.Writer
	for _, r := range runs {
		verdict := "PASS"
		if !r.Pass {
			verdict = "FAIL " + string(r.Code)
		}
		fmt.Fprintf(w, "%4d  %s  %-22s %-8s %-8s %s  %s\n",
			r.Seq, r.StartedAt.Format(time.RFC3339), r.Scenario, r.Browser,
			r.Elapsed.Round(time.Millisecond), r.ID, verdict)
	}
	return nil
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <run-id>",
		Short: "Show the step trace of a recorded run",
		Long: `Show the outcome and the ordered step trace of one recorded run.

Examples:
  storecheck trace --db ./runs.db 0192f1c4-5b7e-7a31-9d2c-3f6b8e0a1c2d
  storecheck trace --db ./runs.db 0192f1c4-5b7e-7a31-9d2c-3f6b8e0a1c2d --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runTrace(opts *RootOptions, runID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	st, err := openLedger(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	out, err := st.ReadOutcome(commandCtx(cmd), runID)
	if errors.Is(err, store.ErrRunNotFound) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run not found: %s", runID), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLedger, "failed to read run", err)
	}

	if formatter.JSON() {
		return formatter.SuccessWithTrace(out, out.RunID)
	}
	writeOutcomeText(formatter.Writer, out)
	return nil
}

func commandCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
