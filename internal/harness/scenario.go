package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/storecheck/internal/failure"
	"github.com/roach88/storecheck/internal/pages"
	"github.com/roach88/storecheck/internal/scenario"
	"github.com/roach88/storecheck/internal/session"
)

// Expected outcomes.
const (
	OutcomePass = "pass"
	OutcomeFail = "fail"
)

// Scenario is one YAML-described scenario execution.
type Scenario struct {
	// Name uniquely identifies this scenario in reports and golden files.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Scenario names the runner entry point.
	Scenario string `yaml:"scenario"`

	// Browser selects the browser kind; empty uses the runner default.
	Browser string `yaml:"browser,omitempty"`

	Username  string       `yaml:"username,omitempty"`
	Password  string       `yaml:"password,omitempty"`
	Positions []int        `yaml:"positions,omitempty"`
	Buyer     *pages.Buyer `yaml:"buyer,omitempty"`

	Expect Expect `yaml:"expect,omitempty"`

	// Assertions inspect the step trace after the outcome check.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expect declares the expected outcome of a scenario.
type Expect struct {
	// Outcome is "pass" or "fail". Empty means pass.
	Outcome string `yaml:"outcome,omitempty"`

	// Code is the expected failure code (fail only).
	Code string `yaml:"code,omitempty"`

	// MessageContains must be a substring of the failure message (fail only).
	MessageContains string `yaml:"message_contains,omitempty"`
}

// Assertion validates the step trace.
type Assertion struct {
	// Type is step_status, step_order or step_count.
	Type string `yaml:"type"`

	// Action is the step name (step_status, step_count).
	Action string `yaml:"action,omitempty"`

	// Status is the expected step status (step_status).
	Status string `yaml:"status,omitempty"`

	// Actions is the expected relative order (step_order).
	Actions []string `yaml:"actions,omitempty"`

	// Count is the expected number of occurrences (step_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertStepStatus = "step_status"
	AssertStepOrder  = "step_order"
	AssertStepCount  = "step_count"
)

// Kind returns the runner entry point this scenario targets.
func (s *Scenario) Kind() scenario.Name {
	return scenario.Name(s.Scenario)
}

// Params converts the scenario inputs to runner parameters. Unset fields are
// left zero so the runner defaults apply.
func (s *Scenario) Params() scenario.Params {
	p := scenario.Params{
		Username:  s.Username,
		Password:  s.Password,
		Positions: append([]int(nil), s.Positions...),
	}
	if s.Buyer != nil {
		p.Buyer = *s.Buyer
	}
	return p
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos surface as errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

// FindScenarioFiles lists the .yaml and .yml files directly under dir in
// lexical order. A non-empty filter is a glob matched against the file name
// without its extension.
func FindScenarioFiles(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenarios dir: %w", err)
	}
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
		}
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if filter != "" {
			if ok, _ := filepath.Match(filter, strings.TrimSuffix(e.Name(), ext)); !ok {
				continue
			}
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Scenario == "" {
		return fmt.Errorf("scenario is required")
	}
	if _, err := scenario.ParseName(s.Scenario); err != nil {
		return err
	}
	if s.Browser != "" {
		if _, err := session.ParseKind(s.Browser); err != nil {
			return fmt.Errorf("browser: %w", err)
		}
	}
	if err := validateExpect(s.Expect); err != nil {
		return err
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateExpect(e Expect) error {
	switch e.Outcome {
	case "", OutcomePass:
		if e.Code != "" || e.MessageContains != "" {
			return fmt.Errorf("expect: code and message_contains require outcome fail")
		}
	case OutcomeFail:
		if e.Code != "" && !knownCode(failure.Code(e.Code)) {
			return fmt.Errorf("expect: unknown failure code %q", e.Code)
		}
	default:
		return fmt.Errorf("expect: outcome must be %s or %s, got %q", OutcomePass, OutcomeFail, e.Outcome)
	}
	return nil
}

func knownCode(c failure.Code) bool {
	for _, k := range failure.Codes {
		if k == c {
			return true
		}
	}
	return false
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertStepStatus:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for step_status", index)
		}
		if a.Status != scenario.StatusOK && a.Status != scenario.StatusFailed {
			return fmt.Errorf("assertions[%d]: status must be %s or %s for step_status",
				index, scenario.StatusOK, scenario.StatusFailed)
		}
	case AssertStepOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for step_order", index)
		}
	case AssertStepCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for step_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for step_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
