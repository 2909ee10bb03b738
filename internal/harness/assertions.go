package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/storecheck/internal/scenario"
)

// AssertionError is returned when an assertion fails. It carries the full
// step trace for debugging.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Steps    []scenario.Step
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, s := range e.Steps {
		fmt.Fprintf(&buf, "  [%d] %s %s\n", s.Seq, s.Action, s.Status)
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion against steps and returns the
// failure messages, in assertion order.
func EvaluateAssertions(steps []scenario.Step, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertStepStatus:
			err = assertStepStatus(steps, a)
		case AssertStepOrder:
			err = assertStepOrder(steps, a)
		case AssertStepCount:
			err = assertStepCount(steps, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return errs
}

// assertStepStatus checks that some step with the action has the status.
func assertStepStatus(steps []scenario.Step, a Assertion) error {
	var seen []string
	for _, s := range steps {
		if s.Action != a.Action {
			continue
		}
		if s.Status == a.Status {
			return nil
		}
		seen = append(seen, s.Status)
	}

	actual := "step not recorded"
	if len(seen) > 0 {
		actual = "statuses " + strings.Join(seen, ", ")
	}
	return &AssertionError{
		Type:     AssertStepStatus,
		Expected: fmt.Sprintf("step %s with status %s", a.Action, a.Status),
		Actual:   actual,
		Steps:    steps,
	}
}

// assertStepOrder checks that the actions appear in order. They need not be
// consecutive.
func assertStepOrder(steps []scenario.Step, a Assertion) error {
	positions := make(map[string]int)
	for i, s := range steps {
		if _, ok := positions[s.Action]; !ok {
			positions[s.Action] = i + 1
		}
	}

	for _, action := range a.Actions {
		if positions[action] == 0 {
			return &AssertionError{
				Type:     AssertStepOrder,
				Expected: fmt.Sprintf("all steps present: %v", a.Actions),
				Actual:   fmt.Sprintf("missing step: %s", action),
				Steps:    steps,
			}
		}
	}

	for i := 1; i < len(a.Actions); i++ {
		prev, curr := a.Actions[i-1], a.Actions[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertStepOrder,
				Expected: fmt.Sprintf("steps in order: %v", a.Actions),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Steps: steps,
			}
		}
	}
	return nil
}

// assertStepCount checks that the action was recorded exactly Count times.
func assertStepCount(steps []scenario.Step, a Assertion) error {
	count := 0
	for _, s := range steps {
		if s.Action == a.Action {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertStepCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Action),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Steps:    steps,
		}
	}
	return nil
}

// checkExpect compares an outcome to the declared expectation.
func checkExpect(out scenario.Outcome, e Expect) []string {
	want := e.Outcome
	if want == "" {
		want = OutcomePass
	}

	var errs []string
	switch {
	case want == OutcomePass && !out.Pass:
		errs = append(errs, fmt.Sprintf("expected pass, got %s: %s", out.Code, out.Message))
	case want == OutcomeFail && out.Pass:
		errs = append(errs, "expected fail, got pass")
	case want == OutcomeFail:
		if e.Code != "" && string(out.Code) != e.Code {
			errs = append(errs, fmt.Sprintf("expected code %s, got %s", e.Code, out.Code))
		}
		if e.MessageContains != "" && !strings.Contains(out.Message, e.MessageContains) {
			errs = append(errs, fmt.Sprintf("expected message containing %q, got %q", e.MessageContains, out.Message))
		}
	}
	return errs
}
