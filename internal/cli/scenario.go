package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/storecheck/internal/pages"
	"github.com/roach88/storecheck/internal/scenario"
)

// ScenarioOptions holds flags for the scenario command.
type ScenarioOptions struct {
	*RootOptions
	Username  string
	Password  string
	Positions []int
	Buyer     pages.Buyer
}

// NewScenarioCommand creates the scenario command.
func NewScenarioCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScenarioOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scenario <name>",
		Short: "Run one scenario entry point",
		Long: fmt.Sprintf(`Run one named scenario and print its step trace.

Scenarios: %v

Unset inputs fall back to the demo account, the demo buyer and each
scenario's default product positions.

Examples:
  storecheck scenario login
  storecheck scenario multi_purchase --positions 0,1,5 --browser edge
  storecheck scenario single_purchase --buyer-name Ada --buyer-city Turin
  storecheck scenario out_of_range --positions 42 --format json`, scenario.Names),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioCommand(opts, args[0], cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Username, "username", "", "storefront account")
	f.StringVar(&opts.Password, "password", "", "storefront password")
	f.IntSliceVar(&opts.Positions, "positions", nil, "zero-based catalog positions")
	f.StringVar(&opts.Buyer.Name, "buyer-name", "", "checkout name")
	f.StringVar(&opts.Buyer.Country, "buyer-country", "", "checkout country")
	f.StringVar(&opts.Buyer.City, "buyer-city", "", "checkout city")
	f.StringVar(&opts.Buyer.Card, "buyer-card", "", "checkout card number")
	f.StringVar(&opts.Buyer.Month, "buyer-month", "", "checkout card month")
	f.StringVar(&opts.Buyer.Year, "buyer-year", "", "checkout card year")

	return cmd
}

// params overlays the flags on DefaultParams field by field.
func (o *ScenarioOptions) params() scenario.Params {
	p := scenario.DefaultParams()
	if o.Username != "" {
		p.Username = o.Username
	}
	if o.Password != "" {
		p.Password = o.Password
	}
	p.Positions = o.Positions

	overlay := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	overlay(&p.Buyer.Name, o.Buyer.Name)
	overlay(&p.Buyer.Country, o.Buyer.Country)
	overlay(&p.Buyer.City, o.Buyer.City)
	overlay(&p.Buyer.Card, o.Buyer.Card)
	overlay(&p.Buyer.Month, o.Buyer.Month)
	overlay(&p.Buyer.Year, o.Buyer.Year)
	return p
}

func runScenarioCommand(opts *ScenarioOptions, nameArg string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	name, err := scenario.ParseName(nameArg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, err.Error(), nil)
	}

	env, err := newEnvironment(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	ctx, stop := commandContext(cmd, env.logger)
	defer stop()

	out, err := env.runner.Run(ctx, name, opts.Browser, opts.params())
	if err == nil {
		err = env.record(ctx, out)
	}
	if closeErr := env.close(); closeErr != nil && err == nil {
		err = WrapExitError(ExitCommandError, "failed to finish run", closeErr)
	}
	if err != nil {
		return err
	}

	if formatter.JSON() {
		if err := formatter.SuccessWithTrace(out, out.RunID); err != nil {
			return err
		}
	} else {
		writeOutcomeText(cmd.OutOrStdout(), out)
	}

	if !out.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", out.Code, out.Message))
	}
	return nil
}

// writeOutcomeText prints a one-line verdict followed by the step trace.
func writeOutcomeText(w io.Writer, out scenario.Outcome) {
	mark := "✓"
	if !out.Pass {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s on %s (run %s, %s)\n",
		mark, out.Scenario, out.Browser, out.RunID, out.Elapsed.Round(time.Millisecond))
	if !out.Pass {
		fmt.Fprintf(w, "  %s: %s\n", out.Code, out.Message)
	}
	for _, st := range out.Steps {
		line := fmt.Sprintf("  %d. %s [%s]", st.Seq, st.Action, st.Status)
		if st.Detail != "" {
			line += " " + st.Detail
		}
		fmt.Fprintln(w, line)
	}
}
