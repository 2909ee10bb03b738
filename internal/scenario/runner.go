// Package scenario orchestrates end-to-end storefront scenarios.
//
// A Runner owns the long-lived collaborators (session provider, layout, wait
// settings, metrics). Each entry point parses the browser kind, acquires its
// own session, drives a Workflow through the page surfaces and reports an
// Outcome. A failure never leaks partial state beyond the step trace.
package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/storecheck/internal/ctxlog"
	"github.com/roach88/storecheck/internal/failure"
	"github.com/roach88/storecheck/internal/layout"
	"github.com/roach88/storecheck/internal/metrics"
	"github.com/roach88/storecheck/internal/pages"
	"github.com/roach88/storecheck/internal/session"
	"github.com/roach88/storecheck/internal/wait"
)

// Name identifies a named scenario.
type Name string

const (
	Login                Name = "login"
	AddToCart            Name = "add_to_cart"
	SinglePurchase       Name = "single_purchase"
	MultiPurchase        Name = "multi_purchase"
	FixedProductPurchase Name = "fixed_product_purchase"
	OutOfRangeSelection  Name = "out_of_range"
)

// Names lists every named scenario.
var Names = []Name{Login, AddToCart, SinglePurchase, MultiPurchase, FixedProductPurchase, OutOfRangeSelection}

// Default catalog positions per scenario.
var (
	defaultSinglePosition  = 3
	defaultMultiPositions  = []int{0, 1, 5}
	defaultAddPosition     = 0
	defaultOutOfRangeIndex = 99
)

// ParseName resolves a scenario name.
func ParseName(s string) (Name, error) {
	for _, n := range Names {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown scenario %q: must be one of %v", s, Names)
}

// Outcome is the result of one scenario execution.
type Outcome struct {
	RunID     string        `json:"run_id"`
	Scenario  Name          `json:"scenario"`
	Browser   session.Kind  `json:"browser"`
	Pass      bool          `json:"pass"`
	Code      failure.Code  `json:"code,omitempty"`
	Message   string        `json:"message,omitempty"`
	Steps     []Step        `json:"steps"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

// Runner executes named scenarios. It is safe for concurrent use; every
// execution acquires its own session.
type Runner struct {
	provider session.Provider
	layout   *layout.Layout
	config   Config
	metrics  *metrics.Collector
	ids      IDGenerator
	logger   *slog.Logger
	now      func() time.Time
	tracer   trace.Tracer
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics records waits, sessions and outcomes in c.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Runner) { r.metrics = c }
}

// WithIDGenerator replaces the UUIDv7 run ID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(r *Runner) { r.ids = g }
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithClock replaces time.Now for StartedAt and Elapsed.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a Runner. Zero fields of cfg take DefaultConfig values.
func NewRunner(p session.Provider, l *layout.Layout, cfg Config, opts ...Option) *Runner {
	d := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = d.Timeout
	}
	if cfg.Poll <= 0 {
		cfg.Poll = d.Poll
	}
	if cfg.Browser == "" {
		cfg.Browser = d.Browser
	}
	if cfg.EmptyCartWait <= 0 {
		cfg.EmptyCartWait = d.EmptyCartWait
	}
	if cfg.BaseURL != "" {
		l = l.WithBaseURL(cfg.BaseURL)
	}

	r := &Runner{
		provider: p,
		layout:   l,
		config:   cfg,
		ids:      UUIDv7Generator{},
		logger:   slog.Default(),
		now:      time.Now,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the effective configuration.
func (r *Runner) Config() Config { return r.config }

// Run dispatches to the named entry point.
func (r *Runner) Run(ctx context.Context, name Name, browser string, p Params) (Outcome, error) {
	switch name {
	case Login:
		return r.RunLoginScenario(ctx, browser, p), nil
	case AddToCart:
		return r.RunSingleAddToCartScenario(ctx, browser, p), nil
	case SinglePurchase:
		return r.RunSinglePurchaseScenario(ctx, browser, p), nil
	case MultiPurchase:
		return r.RunMultiItemPurchaseScenario(ctx, browser, p), nil
	case FixedProductPurchase:
		return r.RunFixedProductPurchaseScenario(ctx, browser, p), nil
	case OutOfRangeSelection:
		return r.RunOutOfRangeSelectionScenario(ctx, browser, p), nil
	}
	return Outcome{}, fmt.Errorf("unknown scenario %q", name)
}

// RunLoginScenario logs in and checks the welcome banner.
func (r *Runner) RunLoginScenario(ctx context.Context, browser string, p Params) Outcome {
	return r.execute(ctx, Login, browser, p, func(ctx context.Context, w *Workflow, p Params) error {
		return w.Authenticate(ctx, p.Username, p.Password)
	})
}

// RunSingleAddToCartScenario adds one product, checks the cart against it
// and empties the cart again.
func (r *Runner) RunSingleAddToCartScenario(ctx context.Context, browser string, p Params) Outcome {
	return r.execute(ctx, AddToCart, browser, p, func(ctx context.Context, w *Workflow, p Params) error {
		if err := w.Authenticate(ctx, p.Username, p.Password); err != nil {
			return err
		}
		product, err := w.AddProductToCart(ctx, firstOr(p.Positions, defaultAddPosition))
		if err != nil {
			return err
		}
		if _, _, err := w.VerifyCart(ctx, []pages.Product{product}); err != nil {
			return err
		}
		return w.ClearCart(ctx)
	})
}

// RunSinglePurchaseScenario buys one product and checks the confirmation.
func (r *Runner) RunSinglePurchaseScenario(ctx context.Context, browser string, p Params) Outcome {
	return r.execute(ctx, SinglePurchase, browser, p, func(ctx context.Context, w *Workflow, p Params) error {
		if err := w.Authenticate(ctx, p.Username, p.Password); err != nil {
			return err
		}
		product, err := w.AddProductToCart(ctx, firstOr(p.Positions, defaultSinglePosition))
		if err != nil {
			return err
		}
		_, total, err := w.VerifyCart(ctx, []pages.Product{product})
		if err != nil {
			return err
		}
		_, err = w.PurchaseFlow(ctx, p.Buyer, total)
		return err
	})
}

// RunMultiItemPurchaseScenario buys several products and checks the cart
// and the confirmation against them.
func (r *Runner) RunMultiItemPurchaseScenario(ctx context.Context, browser string, p Params) Outcome {
	return r.execute(ctx, MultiPurchase, browser, p, func(ctx context.Context, w *Workflow, p Params) error {
		if err := w.Authenticate(ctx, p.Username, p.Password); err != nil {
			return err
		}
		positions := p.Positions
		if len(positions) == 0 {
			positions = defaultMultiPositions
		}
		products, err := w.AddProductsToCart(ctx, positions)
		if err != nil {
			return err
		}
		_, total, err := w.VerifyCart(ctx, products)
		if err != nil {
			return err
		}
		_, err = w.PurchaseFlow(ctx, p.Buyer, total)
		return err
	})
}

// RunFixedProductPurchaseScenario buys the first catalog product, going to
// the cart straight from its page, and expects the confirmation to carry
// the price read on that page.
func (r *Runner) RunFixedProductPurchaseScenario(ctx context.Context, browser string, p Params) Outcome {
	return r.execute(ctx, FixedProductPurchase, browser, p, func(ctx context.Context, w *Workflow, p Params) error {
		if err := w.Authenticate(ctx, p.Username, p.Password); err != nil {
			return err
		}
		product, err := w.AddProductAndOpenCart(ctx, firstOr(p.Positions, 0))
		if err != nil {
			return err
		}
		_, err = w.PurchaseFlow(ctx, p.Buyer, product.Price)
		return err
	})
}

// RunOutOfRangeSelectionScenario selects a position past the end of the
// catalog. It passes when the selection fails with IndexOutOfRange and the
// cart stays empty.
func (r *Runner) RunOutOfRangeSelectionScenario(ctx context.Context, browser string, p Params) Outcome {
	return r.execute(ctx, OutOfRangeSelection, browser, p, func(ctx context.Context, w *Workflow, p Params) error {
		if err := w.Authenticate(ctx, p.Username, p.Password); err != nil {
			return err
		}
		position := firstOr(p.Positions, defaultOutOfRangeIndex)
		_, err := w.AddProductToCart(ctx, position)
		switch {
		case err == nil:
			return failure.Violation("out of range selection",
				string(failure.IndexOutOfRange), fmt.Sprintf("product at position %d added", position))
		case !failure.Is(err, failure.IndexOutOfRange):
			return err
		}
		return w.ExpectEmptyCart(ctx)
	})
}

type body func(ctx context.Context, w *Workflow, p Params) error

func (r *Runner) execute(ctx context.Context, name Name, browser string, p Params, fn body) Outcome {
	start := r.now()
	out := Outcome{RunID: r.ids.Generate(), Scenario: name, StartedAt: start}

	if browser == "" {
		browser = string(r.config.Browser)
	}
	kind, err := session.ParseKind(browser)
	if err != nil {
		out.Browser = session.Kind(browser)
		return r.finish(ctx, out, err, start)
	}
	out.Browser = kind

	ctx, logger := ctxlog.With(ctxlog.WithLogger(ctx, r.logger),
		"run_id", out.RunID, "scenario", string(name), "browser", string(kind))
	ctx, span := r.tracer.Start(ctx, "scenario."+string(name), trace.WithAttributes(
		attribute.String("storecheck.run_id", out.RunID),
		attribute.String("storecheck.browser", string(kind)),
	))
	defer span.End()

	logger.InfoContext(ctx, "scenario started")
	waits := wait.New(
		wait.WithInterval(r.config.Poll),
		wait.WithTimeout(r.config.Timeout),
		wait.WithMetrics(r.metrics),
	)
	p = p.withDefaults()

	err = func() (err error) {
		// session.With has released the session by the time a panic gets here.
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "scenario panicked", "panic", rec)
				err = failure.New(failure.DriverError, fmt.Sprintf("scenario panicked: %v", rec))
			}
		}()
		return session.With(ctx, r.provider, kind, func(ctx context.Context, s session.Session) error {
			r.metrics.SessionAcquired()
			defer r.metrics.SessionReleased()

			w := NewWorkflow(s, r.layout, waits, logger)
			w.SetEmptyCartWait(r.config.EmptyCartWait)
			defer func() { out.Steps = w.Steps() }()
			return fn(ctx, w, p)
		})
	}()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(failure.CodeOf(err)))
	}
	return r.finish(ctx, out, err, start)
}

func (r *Runner) finish(ctx context.Context, out Outcome, err error, start time.Time) Outcome {
	out.Pass = err == nil
	if err != nil {
		out.Code = failure.CodeOf(err)
		out.Message = err.Error()
	}
	if out.Steps == nil {
		out.Steps = []Step{}
	}
	out.Elapsed = r.now().Sub(start)
	r.metrics.ObserveScenario(string(out.Scenario), string(out.Browser), out.Pass, out.Elapsed)

	logger := ctxlog.FromContext(ctx)
	if out.Pass {
		logger.InfoContext(ctx, "scenario passed", "elapsed", out.Elapsed)
	} else {
		logger.WarnContext(ctx, "scenario failed", "code", string(out.Code), "error", out.Message)
	}
	return out
}

func firstOr(v []int, def int) int {
	if len(v) > 0 {
		return v[0]
	}
	return def
}
