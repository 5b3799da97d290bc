// Package main implements the main entry point for the SRAM startup value analyzer
package main

import (
	"context"
	"errors"
	"os"

	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
	sramapp "github.com/retroenv/sramtools/internal/app"
	"github.com/retroenv/sramtools/internal/cli"
	"github.com/retroenv/sramtools/internal/config"
	"github.com/retroenv/sramtools/internal/pipeline"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	ctx := app.Context()

	opts, err := cli.ParseFlags()
	if err != nil {
		logger := config.CreateLogger(opts.Debug, opts.Quiet)
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			sramapp.PrintBanner(os.Stdout, opts, version, commit, date)
			usageErr.ShowUsage()
		} else {
			logger.Fatal(err.Error())
		}
		os.Exit(1)
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	sramapp.PrintBanner(os.Stdout, opts, version, commit, date)

	p := pipeline.New(logger, opts)
	if err := p.Execute(ctx, os.Stdout); err != nil {
		// Handle context cancellation (Ctrl+C) gracefully
		if errors.Is(err, context.Canceled) {
			logger.Info("Operation cancelled")
			return
		}
		logger.Error("Command failed", log.String("command", opts.Command), log.Err(err))
		os.Exit(1)
	}
}
