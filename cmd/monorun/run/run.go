// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run contains the run command, which executes a script in every package.
package run

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/matt-FFFFFF/monorun/internal/config"
	"github.com/matt-FFFFFF/monorun/internal/ctxlog"
	"github.com/matt-FFFFFF/monorun/internal/gate"
	"github.com/matt-FFFFFF/monorun/internal/orchestrator"
	"github.com/matt-FFFFFF/monorun/internal/output"
	"github.com/matt-FFFFFF/monorun/internal/pkgmanager"
	"github.com/matt-FFFFFF/monorun/internal/progress"
	"github.com/matt-FFFFFF/monorun/internal/ptyrun"
	"github.com/matt-FFFFFF/monorun/internal/signalbroker"
	"github.com/matt-FFFFFF/monorun/internal/tui"
	"github.com/matt-FFFFFF/monorun/internal/workspace"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

const (
	scriptArg          = "script"
	concurrencyFlag    = "concurrency"
	streamFlag         = "stream"
	throttleFlag       = "throttle"
	uiFlag             = "ui"
	layoutFlag         = "layout"
	packageManagerFlag = "package-manager"
	killTimeoutFlag    = "kill-timeout"
	cliExitStr         = ""
)

// RunCmd is the command that runs a script in the packages of the monorepo.
var RunCmd = newCommand()

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run a script in the monorepo packages",
		Description: `Run a package.json script in every package that declares it.

Packages are found with the workspace patterns of the root package.json (or
pnpm-workspace.yaml), or with --patterns. Each script runs in its own
pseudo-terminal through the package manager of the repository.

Defaults for every flag can be set in .monorun.yaml; flags take precedence.`,
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      scriptArg,
				UsageText: "SCRIPT",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		},
		Flags: append(DiscoveryFlags(),
			&cli.StringFlag{
				Name:    concurrencyFlag,
				Aliases: []string{"c"},
				Usage: "Limit the number of active parallel tasks. " +
					"`auto` is the number of CPU cores. By default there is no limit.",
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:        streamFlag,
				Aliases:     []string{"s"},
				Usage:       "Stream output directly instead of waiting for the end of each task",
				DefaultText: "false",
				OnlyOnce:    true,
			},
			&cli.DurationFlag{
				Name:        throttleFlag,
				Usage:       "Throttle streamed output, implies --stream",
				Value:       defaultThrottle,
				DefaultText: defaultThrottle.String(),
				OnlyOnce:    true,
			},
			&cli.BoolFlag{
				Name:        uiFlag,
				Aliases:     []string{"interactive"},
				Usage:       "Display an interactive dashboard with one pane per package",
				DefaultText: "false",
				OnlyOnce:    true,
			},
			&cli.StringFlag{
				Name:     layoutFlag,
				Usage:    "Dashboard layout, `row` or `column`, implies --ui",
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:     packageManagerFlag,
				Aliases:  []string{"pm"},
				Usage:    "Package manager used to run scripts (npm, yarn, pnpm). Detected from the lockfile by default.",
				OnlyOnce: true,
			},
			&cli.DurationFlag{
				Name:        killTimeoutFlag,
				Usage:       "Maximum time to wait for processes to exit after a failure",
				Value:       orchestrator.DefaultKillTimeout,
				DefaultText: orchestrator.DefaultKillTimeout.String(),
				OnlyOnce:    true,
			},
		),
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("Running run command")

	script := cmd.StringArg(scriptArg)
	if script == "" {
		return cli.Exit("Please provide the name of the script to run", 1)
	}

	fs := workspace.FsFactory()

	cwd, err := WorkingDirectory(fs, cmd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	cfg, err := config.Load(ctx, fs, cwd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	s, err := resolveSettings(cmd, cfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	s.interactive = s.interactive && stdoutIsTerminal()

	folders, err := workspace.Find(ctx, fs, cwd, script, s.patterns)
	if errors.Is(err, workspace.ErrNoPatterns) {
		logger.Error(err.Error())
		return nil
	}

	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	limit, err := gate.ResolveLimit(s.concurrency, len(folders))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	manager := pkgmanager.Detect(fs, cwd)
	if s.manager != "" {
		if manager, err = pkgmanager.Parse(s.manager); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	rep := progress.NewChannelReporter(progress.BufferFor(len(folders)))
	rep.Listen(progress.ListenerFunc(func(e progress.Event) {
		logger.Debug("task status changed", ctxlog.FolderKey, e.Folder, "status", e.Status.String())
	}))

	opts := orchestrator.Options{
		Script:      script,
		Folders:     folders,
		Concurrency: limit,
		Streaming:   s.streaming,
		Throttle:    s.throttle,
		Interactive: s.interactive,
		Command:     pkgmanager.RunCommand(fs, manager, cwd, script),
		Env:         s.env,
		Size:        terminalSize(s.interactive),
		Screen:      output.NewScreen(cmd.Writer),
		Reporter:    rep,
		KillTimeout: s.killTimeout,
	}

	logger.Debug("run settings",
		"folders", len(folders),
		"concurrency", limit,
		"manager", manager,
		"stream", s.streaming,
		"ui", s.interactive,
	)

	start := time.Now()

	var (
		res    orchestrator.Results
		runErr error
	)

	if s.interactive {
		res, runErr = runDashboard(ctx, opts, s.layout, rep)
	} else {
		res, runErr = runPlain(ctx, opts)
	}

	closeReporter(logger, rep)

	return report(cmd.Writer, cmd.ErrWriter, script, folders, res, runErr, time.Since(start))
}

// closeReporter waits for the listeners and logs events lost to a full buffer.
func closeReporter(logger *slog.Logger, rep *progress.ChannelReporter) {
	rep.Close()

	if n := rep.Dropped(); n > 0 {
		logger.Debug("task status events dropped", "count", n)
	}
}

func runPlain(ctx context.Context, opts orchestrator.Options) (orchestrator.Results, error) {
	d := orchestrator.New(opts)

	resizeCtx, stop := context.WithCancel(ctx)
	defer stop()

	go followResize(resizeCtx, d)

	return d.Run(ctx)
}

func runDashboard(ctx context.Context, opts orchestrator.Options, layout config.Layout, rep *progress.ChannelReporter) (orchestrator.Results, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	d := orchestrator.New(opts)
	r := tui.NewRunner(d, opts.Folders, layout, cancel)
	rep.Listen(r)

	return r.Run(runCtx, d.Run)
}

// followResize keeps the pty size of running scripts in line with the terminal.
func followResize(ctx context.Context, d *orchestrator.Driver) {
	ch := signalbroker.NotifyResize()
	if ch == nil {
		return
	}
	defer signalbroker.Stop(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			if err := d.Resize(terminalSize(false)); err != nil {
				ctxlog.Debug(ctx, "resize not applied", "error", err)
			}
		}
	}
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) //nolint:gosec
}

// terminalSize returns the pty size for scripts printing to this terminal: two
// columns are taken by the task border. Dashboard panes are sized by the dashboard.
func terminalSize(interactive bool) ptyrun.Size {
	if interactive {
		return ptyrun.Size{}
	}

	cols, rows, err := term.GetSize(int(os.Stdout.Fd())) //nolint:gosec
	if err != nil || cols <= 2 || rows <= 0 {
		return ptyrun.Size{}
	}

	return ptyrun.Size{Cols: uint16(cols - 2), Rows: uint16(rows)} //nolint:gosec
}
