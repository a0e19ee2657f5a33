package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/srcsetter/internal/breakpoints"
	"github.com/lehigh-university-libraries/srcsetter/internal/units"
	"github.com/spf13/cobra"
)

func newInspectCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect PATH...",
		Short: "Show size and mime type of media files",
		Example: `  srcsetter inspect media/hero.jpg media/logo.svg`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			for _, arg := range args {
				info := a.site.Inspect(a.site.Normalize(arg))
				fmt.Fprintf(out, "%s\n", arg)
				fmt.Fprintf(out, "  Size:      %d\n", info.Size)
				fmt.Fprintf(out, "  Mime type: %s\n", info.MimeType)
				fmt.Fprintf(out, "  Type:      %s\n", info.Type)
				fmt.Fprintf(out, "  Subtype:   %s\n", info.Subtype)
			}
			return nil
		},
	}

	return cmd
}

func newBreakpointsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "breakpoints",
		Short: "List the breakpoints of the active theme",
		Long: `Parses the active theme's assets/css/breakpoints.css and prints every
breakpoint in stylesheet order with its width in pixels.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			bpPath := a.site.BreakpointsPath()
			bands, err := a.catalog.Get(bpPath)
			if errors.Is(err, breakpoints.ErrCatalogNotFound) {
				return fmt.Errorf("no breakpoints for theme %q at %s", a.cfg.Site.Theme, bpPath)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-12s %-10s %s\n", "NAME", "WIDTH", "PX")
			fmt.Fprintln(out, strings.Repeat("-", 32))
			for _, b := range bands {
				fmt.Fprintf(out, "%-12s %-10s %s\n", b.Name, b.Width, units.FormatNumber(b.Px))
			}
			return nil
		},
	}

	return cmd
}
