package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result as deterministic text: the verdict, failure code
// and message, and every step. Run IDs and timings are left out so the
// snapshot is stable across runs.
func Snapshot(r *Result) []byte {
	var b strings.Builder
	out := r.Outcome

	fmt.Fprintf(&b, "name: %s\n", r.Name)
	fmt.Fprintf(&b, "scenario: %s\n", out.Scenario)
	fmt.Fprintf(&b, "browser: %s\n", out.Browser)
	if out.Pass {
		b.WriteString("outcome: pass\n")
	} else {
		b.WriteString("outcome: fail\n")
		fmt.Fprintf(&b, "code: %s\n", out.Code)
		fmt.Fprintf(&b, "message: %s\n", out.Message)
	}
	fmt.Fprintf(&b, "verdict: %s\n", verdict(r.Pass))
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "error: %s\n", firstLine(e))
	}

	b.WriteString("steps:\n")
	for _, s := range out.Steps {
		fmt.Fprintf(&b, "  %d. %s [%s]", s.Seq, s.Action, s.Status)
		if s.Detail != "" {
			fmt.Fprintf(&b, " %s", s.Detail)
		}
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// AssertGolden compares the result snapshot with
// testdata/golden/<name>.golden. Run the test with -update to regenerate.
func AssertGolden(t *testing.T, name string, r *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(r))
}

func verdict(pass bool) string {
	if pass {
		return "ok"
	}
	return "mismatch"
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
