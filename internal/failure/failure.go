// Package failure defines the scenario-fatal error taxonomy.
//
// Every error a scenario can end with is an *Error carrying a Code. Callers
// classify with CodeOf or Is, which unwrap with errors.As, so wrapping with
// fmt.Errorf("...: %w", err) keeps the classification intact.
package failure

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code categorizes a scenario failure.
type Code string

const (
	// SynchronizationTimeout indicates a required UI condition did not hold within budget.
	SynchronizationTimeout Code = "SYNCHRONIZATION_TIMEOUT"

	// IndexOutOfRange indicates a catalog position beyond the rendered product count.
	IndexOutOfRange Code = "INDEX_OUT_OF_RANGE"

	// EmptyCart indicates the cart had no lines when lines were expected.
	EmptyCart Code = "EMPTY_CART"

	// CartNotEmptied indicates rows survived a delete-all.
	CartNotEmptied Code = "CART_NOT_EMPTIED"

	// ConsistencyViolation indicates data shown on different pages disagrees.
	ConsistencyViolation Code = "CONSISTENCY_VIOLATION"

	// UnsupportedBrowserKind indicates an unrecognized browser selector.
	UnsupportedBrowserKind Code = "UNSUPPORTED_BROWSER_KIND"

	// DriverError is reported for errors outside the taxonomy (driver crashes,
	// navigation failures). It is never attached to an *Error.
	DriverError Code = "DRIVER_ERROR"
)

// Codes lists every code CodeOf can report.
var Codes = []Code{
	SynchronizationTimeout,
	IndexOutOfRange,
	EmptyCart,
	CartNotEmptied,
	ConsistencyViolation,
	UnsupportedBrowserKind,
	DriverError,
}

// Error is a classified scenario failure.
//
// Error() returns Message unchanged so that call-site diagnostics reach the
// harness verbatim.
type Error struct {
	Code    Code
	Message string

	// Details holds the values involved, e.g. "index" and "size".
	Details map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

// Describe renders the code, message and details on one line.
func (e *Error) Describe() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + e.Details[k]
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(parts, ", "))
}

// New creates an Error with no details.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf returns the code of the first *Error in err's chain.
// Non-nil errors outside the taxonomy report DriverError; nil reports "".
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return DriverError
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}

// Timeout creates a SynchronizationTimeout. The message must name the awaited element.
func Timeout(message string) *Error {
	return New(SynchronizationTimeout, message)
}

// OutOfRange creates an IndexOutOfRange for a catalog position.
func OutOfRange(index, size int) *Error {
	return &Error{
		Code:    IndexOutOfRange,
		Message: fmt.Sprintf("index out of bounds: %d for list of size %d", index, size),
		Details: map[string]string{
			"index": fmt.Sprintf("%d", index),
			"size":  fmt.Sprintf("%d", size),
		},
	}
}

// Empty creates an EmptyCart.
func Empty(message string) *Error {
	return New(EmptyCart, message)
}

// NotEmptied creates a CartNotEmptied reporting the surviving row count.
func NotEmptied(remaining int) *Error {
	return &Error{
		Code:    CartNotEmptied,
		Message: fmt.Sprintf("cart is not empty after deleting items: %d row(s) remain", remaining),
		Details: map[string]string{"remaining": fmt.Sprintf("%d", remaining)},
	}
}

// Violation creates a ConsistencyViolation for the named predicate.
func Violation(predicate, expected, actual string) *Error {
	return &Error{
		Code:    ConsistencyViolation,
		Message: fmt.Sprintf("%s failed: expected %s, got %s", predicate, expected, actual),
		Details: map[string]string{
			"predicate": predicate,
			"expected":  expected,
			"actual":    actual,
		},
	}
}

// Unsupported creates an UnsupportedBrowserKind.
func Unsupported(kind string) *Error {
	return &Error{
		Code:    UnsupportedBrowserKind,
		Message: fmt.Sprintf("browser not supported: %s", kind),
		Details: map[string]string{"kind": kind},
	}
}
