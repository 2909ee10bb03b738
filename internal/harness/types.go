package harness

import "github.com/roach88/storecheck/internal/scenario"

// Result is the outcome of a harness scenario: the runner Outcome plus the
// expectation and assertion verdict.
type Result struct {
	// Name is the harness scenario name.
	Name string `json:"name"`

	// Pass is true when the outcome matched the expectation and every
	// assertion held.
	Pass bool `json:"pass"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	Outcome scenario.Outcome `json:"outcome"`
}

// NewResult creates a passing result for the named scenario.
func NewResult(name string) *Result {
	return &Result{
		Name:   name,
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
