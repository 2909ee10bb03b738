// Package session defines the ports between the scenario core and the
// external browser session provider.
//
// The core borrows a Session for the duration of one scenario execution and
// never closes it; closing is the provider's Release. Element lookups never
// wait: a missing element is ErrNoSuchElement immediately, and all
// synchronization belongs to the wait package.
package session

import (
	"context"
	"errors"
	"strings"

	"github.com/roach88/storecheck/internal/failure"
	"github.com/roach88/storecheck/internal/locator"
)

var (
	// ErrNoSuchElement is returned by FindOne when nothing matches.
	ErrNoSuchElement = errors.New("no such element")

	// ErrStaleElement is returned when acting on a handle whose node was replaced.
	ErrStaleElement = errors.New("stale element reference")

	// ErrAlertOpen is returned when an interaction is blocked by an open alert.
	ErrAlertOpen = errors.New("unexpected alert open")

	// ErrReleased is returned by any call on a session after Release.
	ErrReleased = errors.New("session released")
)

// Session is one live UI-driving context: one surface, one navigation history.
type Session interface {
	// ID identifies the session in logs and metrics.
	ID() string

	Navigate(ctx context.Context, url string) error
	FindOne(ctx context.Context, loc locator.Locator) (ElementRef, error)
	FindAll(ctx context.Context, loc locator.Locator) ([]ElementRef, error)

	// AlertPresent reports whether a dialog is waiting to be dismissed.
	AlertPresent(ctx context.Context) (bool, error)

	// DismissAlertIfPresent accepts the open dialog, reporting whether there was one.
	DismissAlertIfPresent(ctx context.Context) (bool, error)
}

// ElementRef is a handle to a node as it was when resolved.
//
// After any UI mutation the node may have been replaced; IsStale reports
// that without error, and interactions on a stale handle fail with
// ErrStaleElement.
type ElementRef interface {
	Text(ctx context.Context) (string, error)
	Click(ctx context.Context) error
	Fill(ctx context.Context, value string) error
	IsVisible(ctx context.Context) (bool, error)
	IsEnabled(ctx context.Context) (bool, error)
	IsStale(ctx context.Context) (bool, error)

	// FindAll resolves loc relative to this element.
	FindAll(ctx context.Context, loc locator.Locator) ([]ElementRef, error)
}

// Kind selects a browser engine.
type Kind string

const (
	Chrome  Kind = "chrome"
	Firefox Kind = "firefox"
	Edge    Kind = "edge"
)

// DefaultKind is used when no browser is requested.
const DefaultKind = Chrome

// Kinds lists every supported browser kind.
var Kinds = []Kind{Chrome, Firefox, Edge}

// ParseKind resolves a browser selector string. Empty selects DefaultKind.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultKind, nil
	}
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", failure.Unsupported(s)
}

// Provider acquires and releases sessions. Provisioning (driver binaries,
// window geometry, cookies) happens inside Acquire, before any page surface
// exists, with implicit per-call waits disabled.
type Provider interface {
	Acquire(ctx context.Context, kind Kind) (Session, error)
	Release(ctx context.Context, s Session) error
}
