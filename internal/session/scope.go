package session

import (
	"context"
	"errors"
	"fmt"
)

// With acquires a session of the given kind, runs fn with it, and releases it
// on every exit path, including a panic inside fn. A release failure is joined
// with fn's error rather than replacing it.
//
// The session passed to fn is owned by this call alone; it must not escape fn.
func With(ctx context.Context, p Provider, kind Kind, fn func(ctx context.Context, s Session) error) (err error) {
	s, err := p.Acquire(ctx, kind)
	if err != nil {
		return fmt.Errorf("acquire %s session: %w", kind, err)
	}

	defer func() {
		// Release must run even if the scenario context was cancelled.
		relErr := p.Release(context.WithoutCancel(ctx), s)
		if r := recover(); r != nil {
			if relErr != nil {
				panic(fmt.Sprintf("%v (release also failed: %v)", r, relErr))
			}
			panic(r)
		}
		if relErr != nil {
			err = errors.Join(err, fmt.Errorf("release session %s: %w", s.ID(), relErr))
		}
	}()

	return fn(ctx, s)
}
