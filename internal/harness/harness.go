package harness

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/storecheck/internal/ctxlog"
	"github.com/roach88/storecheck/internal/scenario"
)

// Runner executes named scenarios. *scenario.Runner implements it.
type Runner interface {
	Run(ctx context.Context, name scenario.Name, browser string, p scenario.Params) (scenario.Outcome, error)
}

// Run executes one scenario and judges its outcome against the expectation
// and assertions. The returned error is reserved for scenarios the runner
// cannot execute at all; a failing scenario is a Result with Pass false.
func Run(ctx context.Context, r Runner, sc *Scenario) (*Result, error) {
	out, err := r.Run(ctx, sc.Kind(), sc.Browser, sc.Params())
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", sc.Name, err)
	}

	result := NewResult(sc.Name)
	result.Outcome = out
	for _, msg := range checkExpect(out, sc.Expect) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(out.Steps, sc.Assertions) {
		result.AddError(msg)
	}

	ctxlog.FromContext(ctx).DebugContext(ctx, "harness scenario judged",
		"name", sc.Name, "run_id", out.RunID, "pass", result.Pass, "errors", len(result.Errors))
	return result, nil
}

// RunAll runs scenarios with at most parallel in flight (1 when parallel
// < 1). Results are returned in input order. The first runner error cancels
// the remaining scenarios.
func RunAll(ctx context.Context, r Runner, scenarios []*Scenario, parallel int) ([]*Result, error) {
	if parallel < 1 {
		parallel = 1
	}
	results := make([]*Result, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, sc := range scenarios {
		g.Go(func() error {
			res, err := Run(ctx, r, sc)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summary counts passing and failing results.
func Summary(results []*Result) (passed, failed int) {
	for _, r := range results {
		if r.Pass {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}
