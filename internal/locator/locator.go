// Package locator describes where an element lives in the remote UI.
//
// A Locator is pure data: a selector strategy plus an expression. It is
// immutable, comparable with ==, and safe to use as a map key. Evaluating a
// locator is the job of the session driver, never of this package.
package locator

import (
	"fmt"
	"strings"
)

// Strategy is the selector language a Locator expression is written in.
type Strategy string

const (
	// CSSStrategy selects with a CSS selector.
	CSSStrategy Strategy = "css"
	// XPathStrategy selects with an XPath 1.0 expression.
	XPathStrategy Strategy = "xpath"
	// IDStrategy selects the element whose id attribute equals the expression.
	IDStrategy Strategy = "id"
)

// Strategies lists every supported strategy.
var Strategies = []Strategy{CSSStrategy, XPathStrategy, IDStrategy}

// Locator is an immutable element descriptor.
type Locator struct {
	Strategy   Strategy `json:"strategy"`
	Expression string   `json:"expression"`
}

// CSS returns a CSS locator.
func CSS(expr string) Locator { return Locator{Strategy: CSSStrategy, Expression: expr} }

// XPath returns an XPath locator.
func XPath(expr string) Locator { return Locator{Strategy: XPathStrategy, Expression: expr} }

// ID returns an id locator.
func ID(id string) Locator { return Locator{Strategy: IDStrategy, Expression: id} }

// ParseStrategy parses a strategy name, case-insensitively.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case CSSStrategy:
		return CSSStrategy, nil
	case XPathStrategy:
		return XPathStrategy, nil
	case IDStrategy:
		return IDStrategy, nil
	}
	return "", fmt.Errorf("unknown locator strategy %q: must be one of %v", s, Strategies)
}

// Validate reports whether the locator can be evaluated.
func (l Locator) Validate() error {
	if _, err := ParseStrategy(string(l.Strategy)); err != nil {
		return err
	}
	if strings.TrimSpace(l.Expression) == "" {
		return fmt.Errorf("locator %s has an empty expression", l.Strategy)
	}
	return nil
}

// String renders the locator in selector-engine form, e.g. "xpath=//a[@id='cartur']".
// Playwright accepts this form directly.
func (l Locator) String() string {
	return string(l.Strategy) + "=" + l.Expression
}
