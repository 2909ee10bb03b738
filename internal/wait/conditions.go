package wait

import (
	"context"
	"errors"

	"github.com/roach88/storecheck/internal/locator"
	"github.com/roach88/storecheck/internal/session"
)

// Condition is a predicate over the live UI that yields a T once it holds.
// The zero Condition is invalid; use the constructors below.
type Condition[T any] struct {
	label string
	eval  func(ctx context.Context, s session.Session) (T, bool, error)
}

func (c Condition[T]) name() string { return c.label }

func (c Condition[T]) check(ctx context.Context, s session.Session) (T, bool, error) {
	if c.eval == nil {
		var zero T
		return zero, false, errors.New("wait: zero Condition")
	}
	return c.eval(ctx, s)
}

// ElementVisible holds once loc resolves to a visible element.
func ElementVisible(loc locator.Locator) Condition[session.ElementRef] {
	return Condition[session.ElementRef]{
		label: "element_visible",
		eval: func(ctx context.Context, s session.Session) (session.ElementRef, bool, error) {
			ref, err := s.FindOne(ctx, loc)
			if err != nil {
				return nil, false, err
			}
			ok, err := ref.IsVisible(ctx)
			return ref, ok, err
		},
	}
}

// ElementClickable holds once loc resolves to an element that is visible
// and enabled.
func ElementClickable(loc locator.Locator) Condition[session.ElementRef] {
	return Condition[session.ElementRef]{
		label: "element_clickable",
		eval: func(ctx context.Context, s session.Session) (session.ElementRef, bool, error) {
			ref, err := s.FindOne(ctx, loc)
			if err != nil {
				return nil, false, err
			}
			ok, err := clickable(ctx, ref)
			return ref, ok, err
		},
	}
}

// RefClickable holds once an already resolved element is visible and enabled.
func RefClickable(ref session.ElementRef) Condition[session.ElementRef] {
	return Condition[session.ElementRef]{
		label: "ref_clickable",
		eval: func(ctx context.Context, _ session.Session) (session.ElementRef, bool, error) {
			ok, err := clickable(ctx, ref)
			return ref, ok, err
		},
	}
}

// AllVisible holds once loc matches at least one element and every match is
// visible.
func AllVisible(loc locator.Locator) Condition[[]session.ElementRef] {
	return Condition[[]session.ElementRef]{
		label: "all_visible",
		eval: func(ctx context.Context, s session.Session) ([]session.ElementRef, bool, error) {
			refs, err := s.FindAll(ctx, loc)
			if err != nil {
				return nil, false, err
			}
			if len(refs) == 0 {
				return nil, false, nil
			}
			ok, err := allVisible(ctx, refs)
			return refs, ok, err
		},
	}
}

// AllRefsVisible holds once every element in refs is visible.
func AllRefsVisible(refs []session.ElementRef) Condition[[]session.ElementRef] {
	return Condition[[]session.ElementRef]{
		label: "all_refs_visible",
		eval: func(ctx context.Context, _ session.Session) ([]session.ElementRef, bool, error) {
			ok, err := allVisible(ctx, refs)
			return refs, ok, err
		},
	}
}

// ElementStale holds once ref no longer points at a node in the document.
func ElementStale(ref session.ElementRef) Condition[struct{}] {
	return Condition[struct{}]{
		label: "element_stale",
		eval: func(ctx context.Context, _ session.Session) (struct{}, bool, error) {
			stale, err := ref.IsStale(ctx)
			if errors.Is(err, session.ErrStaleElement) {
				return struct{}{}, true, nil
			}
			return struct{}{}, stale, err
		},
	}
}

// AlertPresent holds once a dialog is open.
func AlertPresent() Condition[struct{}] {
	return Condition[struct{}]{
		label: "alert_present",
		eval: func(ctx context.Context, s session.Session) (struct{}, bool, error) {
			ok, err := s.AlertPresent(ctx)
			return struct{}{}, ok, err
		},
	}
}

func clickable(ctx context.Context, ref session.ElementRef) (bool, error) {
	visible, err := ref.IsVisible(ctx)
	if err != nil || !visible {
		return false, err
	}
	return ref.IsEnabled(ctx)
}

func allVisible(ctx context.Context, refs []session.ElementRef) (bool, error) {
	for _, ref := range refs {
		ok, err := ref.IsVisible(ctx)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}
