package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/srcsetter/internal/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "srcsetter",
		Short: "Responsive image markup generator driven by theme breakpoints",
		Long: `Srcsetter turns a single source image into responsive <img> markup.

It reads the breakpoint catalog of the active theme, resizes the image once per
requested breakpoint and emits srcset and sizes attributes together with alt and
title text resolved from caller input and stored image metadata.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "Path to YAML configuration file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(newRenderCmd(opts))
	cmd.AddCommand(newTagCmd(opts))
	cmd.AddCommand(newBatchCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newInspectCmd(opts))
	cmd.AddCommand(newBreakpointsCmd(opts))
	cmd.AddCommand(newDescribeCmd(opts))
	cmd.AddCommand(newMetaCmd(opts))

	return cmd
}
