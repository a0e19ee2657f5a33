package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/lehigh-university-libraries/srcsetter/cmd"
)

// version is stamped by release builds via -ldflags.
var version = "dev"

func main() {
	root := cmd.NewRootCmd()

	// fang adds completions and man pages on top of cobra.
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
