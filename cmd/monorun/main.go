// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the monorun command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/monorun"
	"github.com/matt-FFFFFF/monorun/cmd/monorun/list"
	"github.com/matt-FFFFFF/monorun/cmd/monorun/run"
	"github.com/matt-FFFFFF/monorun/internal/ctxlog"
	"github.com/matt-FFFFFF/monorun/internal/signalbroker"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Commands: []*cli.Command{
		run.RunCmd,
		list.ListCmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "monorun",
	Description: `monorun runs a package.json script in every package of a JavaScript monorepo,
concurrently, each in its own pseudo-terminal. Output is multiplexed on one screen
with a colored tag per package, or shown in an interactive dashboard.

The first failing package stops the run and terminates the others.`,
	Usage:     "monorun run build",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
	ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
		restoreCursor()
		cli.HandleExitCoder(err)
	},
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.FromEnv())
	defer cancel()

	sigCh := signalbroker.New(ctx)
	defer signalbroker.Stop(sigCh)

	go signalbroker.Watch(ctx, sigCh, cancel)

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", monorun.Version, monorun.Commit)

	err := rootCmd.Run(ctx, os.Args) // Err is handled by cli framework

	restoreCursor()

	if ctx.Err() != nil {
		ctxlog.Logger(ctx).Error("command terminated due to cancellation", "error", ctx.Err())
		os.Exit(1)
	}

	if err != nil {
		ctxlog.Logger(ctx).Debug("command execution failed", "error", err)
		os.Exit(1)
	}

	ctxlog.Logger(ctx).Info("command completed successfully")
}

// restoreCursor shows the cursor again in case a child process hid it.
func restoreCursor() {
	if !term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec
		return
	}

	termenv.NewOutput(os.Stdout).ShowCursor()
}
