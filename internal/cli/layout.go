package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/storecheck/internal/layout"
)

// LayoutValidation holds the result of layout validate.
type LayoutValidation struct {
	Valid    bool   `json:"valid"`
	Source   string `json:"source"`
	BaseURL  string `json:"base_url"`
	Locators int    `json:"locators"`
}

// LayoutEntry is one row of layout show.
type LayoutEntry struct {
	Path    string `json:"path"`
	Locator string `json:"locator"`
}

// NewLayoutCommand creates the layout command group.
func NewLayoutCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Inspect the storefront selector layout",
		Long: `Inspect the CUE selector layout that maps page elements to locators.

Without --layout the built-in demoblaze layout is used.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate [file]",
		Short: "Compile a layout against the schema",
		Long: `Compile a CUE layout file against the layout schema and check every
locator expression.

Examples:
  storecheck layout validate ./my-shop.cue
  storecheck layout validate --layout ./my-shop.cue --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.Layout
			if len(args) == 1 {
				path = args[0]
			}
			return runLayoutValidate(rootOpts, path, cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "show",
		Short:         "List every named locator",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayoutShow(rootOpts, cmd)
		},
	})

	return cmd
}

func layoutSource(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}

func runLayoutValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	formatter.VerboseLog("Compiling layout %s", layoutSource(path))

	l, err := loadLayout(path)
	if err != nil {
		var layoutErr *layout.Error
		if errors.As(err, &layoutErr) {
			_ = formatter.Error(ErrCodeLayoutInvalid, layoutErr.Error(), map[string]any{
				"field": layoutErr.Field,
				"line":  lineOf(layoutErr),
			})
			return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", ErrCodeLayoutInvalid, layoutErr.Error()))
		}
		return formatter.Fail(ExitCommandError, ErrCodeLayoutInvalid, "layout invalid", err)
	}

	result := LayoutValidation{
		Valid:    true,
		Source:   layoutSource(path),
		BaseURL:  l.BaseURL,
		Locators: len(l.Entries()),
	}
	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Layout valid: %s (%d locators)\n", result.Source, result.Locators)
	return nil
}

func lineOf(e *layout.Error) int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

func runLayoutShow(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	l, err := loadLayout(opts.Layout)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLayoutInvalid, "layout invalid", err)
	}

	entries := l.Entries()
	rows := make([]LayoutEntry, 0, len(entries))
	width := 0
	for _, e := range entries {
		rows = append(rows, LayoutEntry{Path: e.Path, Locator: e.Locator.String()})
		width = max(width, len(e.Path))
	}

	if formatter.JSON() {
		return formatter.Success(map[string]any{
			"base_url": l.BaseURL,
			"locators": rows,
		})
	}
	fmt.Fprintf(formatter.Writer, "base_url  %s\n", l.BaseURL)
	for _, r := range rows {
		fmt.Fprintf(formatter.Writer, "%-*s  %s\n", width, r.Path, r.Locator)
	}
	return nil
}
