package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/roach88/storecheck/internal/ctxlog"
	"github.com/roach88/storecheck/internal/demostore"
	"github.com/roach88/storecheck/internal/layout"
	"github.com/roach88/storecheck/internal/metrics"
	"github.com/roach88/storecheck/internal/pwdriver"
	"github.com/roach88/storecheck/internal/scenario"
	"github.com/roach88/storecheck/internal/session"
	"github.com/roach88/storecheck/internal/store"
)

// environment is everything a scenario-running command needs. close releases
// it and flushes metrics.
type environment struct {
	logger  *slog.Logger
	metrics *metrics.Collector
	runner  *scenario.Runner
	ledger  *store.Store

	metricsOut string
	closers    []func() error
}

func newLogger(opts *RootOptions, cmd *cobra.Command) *slog.Logger {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// newEnvironment wires the layout, session provider, metrics, tracing and
// optional ledger selected by the global flags.
func newEnvironment(opts *RootOptions, cmd *cobra.Command) (*environment, error) {
	env := &environment{
		logger:     newLogger(opts, cmd),
		metrics:    metrics.New(),
		metricsOut: opts.MetricsOut,
	}

	lay, err := loadLayout(opts.Layout)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load layout", err)
	}

	if opts.OtelStdout {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(cmd.ErrOrStderr()))
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to create trace exporter", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
		otel.SetTracerProvider(tp)
		env.closers = append(env.closers, func() error {
			return tp.Shutdown(context.Background())
		})
	}

	provider, err := env.provider(opts)
	if err != nil {
		env.close()
		return nil, err
	}

	if opts.Database != "" {
		env.logger.Debug("opening ledger", "path", opts.Database)
		st, err := store.Open(opts.Database)
		if err != nil {
			env.close()
			return nil, WrapExitError(ExitCommandError, "failed to open ledger", err)
		}
		env.ledger = st
		env.closers = append(env.closers, st.Close)
	}

	ids := opts.IDs
	if ids == nil {
		ids = scenario.UUIDv7Generator{}
	}
	env.runner = scenario.NewRunner(provider, lay,
		scenario.Config{
			Timeout: opts.Timeout,
			Poll:    opts.Poll,
			Browser: session.Kind(opts.Browser),
			BaseURL: opts.BaseURL,
		},
		scenario.WithMetrics(env.metrics),
		scenario.WithLogger(env.logger),
		scenario.WithIDGenerator(ids),
	)
	return env, nil
}

func (e *environment) provider(opts *RootOptions) (session.Provider, error) {
	if opts.Provider != nil {
		return opts.Provider, nil
	}
	switch opts.Driver {
	case DriverSim:
		e.logger.Debug("using simulated storefront")
		return demostore.NewProvider(demostore.Options{}), nil
	case DriverPlaywright, "":
		p := pwdriver.NewProvider(pwdriver.Options{
			Headless: !opts.Headed,
			Logger:   e.logger,
		})
		e.closers = append(e.closers, p.Close)
		return p, nil
	default:
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid driver %q", opts.Driver))
	}
}

// record appends an outcome to the ledger when one is configured.
func (e *environment) record(ctx context.Context, out scenario.Outcome) error {
	if e.ledger == nil {
		return nil
	}
	if err := e.ledger.WriteRun(ctx, out); err != nil {
		return WrapExitError(ExitCommandError, "failed to record run", err)
	}
	return nil
}

// close writes the metrics textfile, if requested, then releases everything
// in reverse order of acquisition.
func (e *environment) close() error {
	var errs []error
	if e.metricsOut != "" {
		if err := e.metrics.WriteTextfile(e.metricsOut); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

func loadLayout(path string) (*layout.Layout, error) {
	if path == "" {
		return layout.Default()
	}
	return layout.LoadFile(path)
}

// openLedger opens the ledger for the read-only commands, which require --db.
func openLedger(opts *RootOptions) (*store.Store, error) {
	if opts.Database == "" {
		return nil, NewExitError(ExitCommandError, "--db is required")
	}
	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("ledger not found: %s", opts.Database))
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	return st, nil
}

// commandContext returns a context cancelled on SIGINT/SIGTERM or when the
// command's own context ends. The returned stop must be called.
func commandContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, func()) {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctxlog.WithLogger(parentCtx, logger))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, cancelling", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
