package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/storecheck/internal/harness"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Filter   string // scenario filter (glob pattern)
	Parallel int
}

// ScenarioResult holds the result of a single scenario file.
type ScenarioResult struct {
	Name     string   `json:"name"`
	Scenario string   `json:"scenario,omitempty"`
	Browser  string   `json:"browser,omitempty"`
	RunID    string   `json:"run_id,omitempty"`
	Pass     bool     `json:"pass"`
	Code     string   `json:"code,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// RunResult holds the overall suite result.
type RunResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenarios-dir>",
		Short: "Run a scenario suite",
		Long: `Run every YAML scenario file in a directory against the storefront.

Each scenario names an entry point (login, add_to_cart, single_purchase,
multi_purchase, fixed_product_purchase, out_of_range), optional inputs, the
expected outcome and assertions over the recorded step trace.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  storecheck run ./scenarios
  storecheck run ./scenarios --filter "*purchase" --parallel 3
  storecheck run ./scenarios --browser firefox --db ./runs.db
  storecheck run ./scenarios --driver sim --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 1, "scenarios in flight at once")

	return cmd
}

func runSuite(opts *RunOptions, scenariosDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := harness.FindScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	formatter := newFormatter(opts.RootOptions, cmd)
	if len(files) == 0 {
		if formatter.JSON() {
			return formatter.Success(RunResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	// Load errors are reported as failed entries, in file order.
	entries := make([]ScenarioResult, len(files))
	var loaded []*harness.Scenario
	var slots []int
	for i, f := range files {
		sc, err := harness.LoadScenario(f)
		if err != nil {
			entries[i] = ScenarioResult{
				Name:   filepath.Base(f),
				Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
			}
			continue
		}
		formatter.VerboseLog("Loaded %s from %s", sc.Name, f)
		loaded = append(loaded, sc)
		slots = append(slots, i)
	}

	env, err := newEnvironment(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	ctx, stop := commandContext(cmd, env.logger)
	defer stop()

	results, runErr := harness.RunAll(ctx, env.runner, loaded, opts.Parallel)
	if runErr == nil {
		for i, r := range results {
			entries[slots[i]] = scenarioResult(r)
			if err := env.record(ctx, r.Outcome); err != nil {
				runErr = err
				break
			}
		}
	}
	if err := env.close(); err != nil && runErr == nil {
		runErr = WrapExitError(ExitCommandError, "failed to finish run", err)
	}
	if runErr != nil {
		var exitErr *ExitError
		if errors.As(runErr, &exitErr) {
			return runErr
		}
		return WrapExitError(ExitCommandError, "suite aborted", runErr)
	}

	result := RunResult{Scenarios: entries, Total: len(entries)}
	for _, e := range entries {
		if e.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if formatter.JSON() {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		writeRunText(cmd.OutOrStdout(), result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", result.Failed, result.Total))
	}
	return nil
}

func scenarioResult(r *harness.Result) ScenarioResult {
	return ScenarioResult{
		Name:     r.Name,
		Scenario: string(r.Outcome.Scenario),
		Browser:  string(r.Outcome.Browser),
		RunID:    r.Outcome.RunID,
		Pass:     r.Pass,
		Code:     string(r.Outcome.Code),
		Errors:   r.Errors,
	}
}

func writeRunText(w io.Writer, result RunResult) {
	for _, s := range result.Scenarios {
		if s.Pass {
			fmt.Fprintf(w, "✓ %s\n", s.Name)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
}
