// Package wait is the only timing primitive for driving the remote UI.
//
// A wait evaluates a typed condition immediately and then once per polling
// interval until the condition holds or the timeout elapses. Nothing else in
// the module sleeps. The condition set is closed: callers pick one of the
// constructors in this package.
package wait

import (
	"context"
	"errors"
	"time"

	"github.com/roach88/storecheck/internal/failure"
	"github.com/roach88/storecheck/internal/metrics"
	"github.com/roach88/storecheck/internal/session"
)

const (
	// DefaultInterval is the polling interval when none is configured.
	DefaultInterval = 100 * time.Millisecond

	// DefaultTimeout is the wait budget when none is configured.
	DefaultTimeout = 10 * time.Second
)

// Engine holds polling settings shared by every wait of one execution.
type Engine struct {
	Interval time.Duration
	Timeout  time.Duration
	Metrics  *metrics.Collector
}

// Option configures an Engine.
type Option func(*Engine)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.Interval = d
		}
	}
}

// WithTimeout sets the default wait budget.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.Timeout = d
		}
	}
}

// WithMetrics records every wait in c.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) { e.Metrics = c }
}

// New creates an Engine with 100ms polling and a 10s budget unless overridden.
func New(opts ...Option) *Engine {
	e := &Engine{Interval: DefaultInterval, Timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Await polls c against s until it holds, returning its value.
//
// timeout <= 0 uses the engine's default. On expiry the returned error is a
// SynchronizationTimeout whose Error() is exactly message. ErrNoSuchElement
// and ErrStaleElement during evaluation mean "not yet"; any other error from
// the session aborts the wait and is returned wrapped. Cancelling ctx aborts
// the wait with ctx.Err().
func Await[T any](ctx context.Context, e *Engine, s session.Session, c Condition[T], timeout time.Duration, message string) (T, error) {
	if e == nil {
		e = New()
	}
	interval := e.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = e.Timeout
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	start := time.Now()
	deadline := start.Add(timeout)
	polls := 0
	var zero T

	timer := time.NewTimer(interval)
	timer.Stop()
	defer timer.Stop()

	for {
		polls++
		v, ok, err := c.check(ctx, s)
		if err != nil && !notYet(err) {
			e.Metrics.ObserveWait(c.name(), metrics.OutcomeError, polls, time.Since(start))
			return zero, err
		}
		if err == nil && ok {
			e.Metrics.ObserveWait(c.name(), metrics.OutcomeSatisfied, polls, time.Since(start))
			return v, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			e.Metrics.ObserveWait(c.name(), metrics.OutcomeTimeout, polls, time.Since(start))
			return zero, failure.Timeout(message)
		}

		// The final poll lands on the deadline rather than past it.
		timer.Reset(min(interval, remaining))
		select {
		case <-ctx.Done():
			e.Metrics.ObserveWait(c.name(), metrics.OutcomeError, polls, time.Since(start))
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

func notYet(err error) bool {
	return errors.Is(err, session.ErrNoSuchElement) || errors.Is(err, session.ErrStaleElement)
}
