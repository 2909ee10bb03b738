// Package pages models the storefront pages as surfaces over a session.
//
// A surface binds one page's locators, the session and the wait engine. It
// resolves an element, acts on it and forgets it; no handle outlives the
// operation that resolved it. Construct a fresh surface for every page visit.
package pages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/storecheck/internal/locator"
	"github.com/roach88/storecheck/internal/session"
	"github.com/roach88/storecheck/internal/wait"
)

type surface struct {
	sess   session.Session
	waits  *wait.Engine
	logger *slog.Logger
}

func newSurface(s session.Session, w *wait.Engine, logger *slog.Logger) surface {
	if w == nil {
		w = wait.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return surface{sess: s, waits: w, logger: logger}
}

// notFound renders the diagnostic for an element that never appeared.
func (s surface) notFound(what string) string {
	return fmt.Sprintf("The element %s was not found in %s!", what, humanize(s.waits.Timeout))
}

func (s surface) visible(ctx context.Context, loc locator.Locator, what string) (session.ElementRef, error) {
	return wait.Await(ctx, s.waits, s.sess, wait.ElementVisible(loc), 0, s.notFound(what))
}

func (s surface) allVisible(ctx context.Context, loc locator.Locator, message string) ([]session.ElementRef, error) {
	return wait.Await(ctx, s.waits, s.sess, wait.AllVisible(loc), 0, message)
}

func (s surface) read(ctx context.Context, loc locator.Locator, what string) (string, error) {
	var text string
	err := retryStale(func() error {
		ref, err := s.visible(ctx, loc, what)
		if err != nil {
			return err
		}
		if text, err = ref.Text(ctx); err != nil {
			return fmt.Errorf("read %s: %w", what, err)
		}
		return nil
	})
	return text, err
}

func (s surface) click(ctx context.Context, loc locator.Locator, what string) error {
	return retryStale(func() error {
		ref, err := wait.Await(ctx, s.waits, s.sess, wait.ElementClickable(loc), 0, s.notFound(what))
		if err != nil {
			return err
		}
		if err := ref.Click(ctx); err != nil {
			return fmt.Errorf("click %s: %w", what, err)
		}
		return nil
	})
}

func (s surface) fill(ctx context.Context, loc locator.Locator, what, value string) error {
	return retryStale(func() error {
		ref, err := s.visible(ctx, loc, what)
		if err != nil {
			return err
		}
		if err := ref.Fill(ctx, value); err != nil {
			return fmt.Errorf("fill %s: %w", what, err)
		}
		return nil
	})
}

func texts(ctx context.Context, refs []session.ElementRef) ([]string, error) {
	out := make([]string, len(refs))
	for i, ref := range refs {
		t, err := ref.Text(ctx)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// maxStaleAttempts bounds how often an operation re-resolves a handle that
// was replaced between resolution and use.
const maxStaleAttempts = 3

// retryStale runs fn again while it fails only because a handle went stale.
func retryStale(fn func() error) error {
	var err error
	for range maxStaleAttempts {
		if err = fn(); !errors.Is(err, session.ErrStaleElement) {
			return err
		}
	}
	return err
}

func isMissing(err error) bool {
	return errors.Is(err, session.ErrNoSuchElement)
}

// humanize renders whole-second budgets the way people say them.
func humanize(d time.Duration) string {
	if d > 0 && d%time.Second == 0 {
		n := int(d / time.Second)
		if n == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", n)
	}
	return d.String()
}
