package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/storecheck/internal/scenario"
	"github.com/roach88/storecheck/internal/session"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	Browser    string
	Driver     string // "playwright" | "sim"
	Timeout    time.Duration
	Poll       time.Duration
	BaseURL    string
	Layout     string // CUE layout file; empty uses the built-in demoblaze layout
	Headed     bool
	Database   string
	MetricsOut string
	OtelStdout bool

	// Provider overrides the --driver selection (for testing).
	Provider session.Provider

	// IDs overrides the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs scenario.IDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ValidDrivers defines the allowed session providers.
var ValidDrivers = []string{DriverPlaywright, DriverSim}

const (
	// DriverPlaywright drives real browsers through playwright.
	DriverPlaywright = "playwright"
	// DriverSim drives the in-process simulated storefront.
	DriverSim = "sim"
)

// NewRootCommand creates the root command for the storecheck CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storecheck",
		Short: "storecheck - storefront purchase flow checks",
		Long: `Drive the demoblaze storefront through login, catalog, cart and checkout
in a real or simulated browser and verify that what the shop shows stays
consistent from product page to purchase confirmation.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !oneOf(opts.Format, ValidFormats) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if !oneOf(opts.Driver, ValidDrivers) {
				return fmt.Errorf("invalid driver %q: must be one of %v", opts.Driver, ValidDrivers)
			}
			return nil
		},
	}

	defaults := scenario.DefaultConfig()

	// Global flags
	f := cmd.PersistentFlags()
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	f.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	f.StringVar(&opts.Browser, "browser", string(defaults.Browser), "browser kind (chrome|firefox|edge)")
	f.StringVar(&opts.Driver, "driver", DriverPlaywright, "session driver (playwright|sim)")
	f.DurationVar(&opts.Timeout, "timeout", defaults.Timeout, "per-wait timeout")
	f.DurationVar(&opts.Poll, "poll", defaults.Poll, "wait polling interval")
	f.StringVar(&opts.BaseURL, "base-url", "", "storefront URL (defaults to the layout's)")
	f.StringVar(&opts.Layout, "layout", "", "CUE selector layout file")
	f.BoolVar(&opts.Headed, "headed", false, "show the browser window (playwright driver)")
	f.StringVar(&opts.Database, "db", "", "path to SQLite run ledger")
	f.StringVar(&opts.MetricsOut, "metrics-out", "", "write Prometheus metrics to this textfile")
	f.BoolVar(&opts.OtelStdout, "otel-stdout", false, "export trace spans to stderr")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))
	cmd.AddCommand(NewLayoutCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))

	return cmd
}

// oneOf checks if v is one of the allowed values.
func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}
