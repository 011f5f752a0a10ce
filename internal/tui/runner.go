// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/monorun/internal/config"
	"github.com/matt-FFFFFF/monorun/internal/ctxlog"
	"github.com/matt-FFFFFF/monorun/internal/orchestrator"
	"github.com/matt-FFFFFF/monorun/internal/progress"
)

// ErrDashboard wraps failures of the terminal program itself.
var ErrDashboard = errors.New("dashboard failed")

// Runner shows the dashboard while a run executes.
type Runner struct {
	model   *Model
	program *tea.Program
}

// NewRunner creates a dashboard for the folders of a run. cancel must end the run; it
// is called on ctrl+c and when the dashboard fails.
func NewRunner(ctrl Controller, folders []string, layout config.Layout, cancel context.CancelFunc, opts ...tea.ProgramOption) *Runner {
	model := NewModel(ctrl, folders, layout, cancel)

	return &Runner{
		model:   model,
		program: tea.NewProgram(model, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...),
	}
}

// OnEvent implements progress.Listener by forwarding events to the dashboard.
func (r *Runner) OnEvent(event progress.Event) {
	r.program.Send(ProgressEventMsg{Event: event})
}

var _ progress.Listener = (*Runner)(nil)

// Run starts the dashboard, calls run and keeps the dashboard up until run returns.
// If the dashboard exits first, the run is cancelled and awaited.
func (r *Runner) Run(ctx context.Context, run func(context.Context) (orchestrator.Results, error)) (orchestrator.Results, error) {
	type outcome struct {
		res orchestrator.Results
		err error
	}

	runDone := make(chan outcome, 1)

	go func() {
		res, err := run(ctx)
		runDone <- outcome{res, err}
	}()

	tuiDone := make(chan error, 1)

	go func() {
		_, err := r.program.Run()
		tuiDone <- err
	}()

	select {
	case o := <-runDone:
		r.program.Send(RunFinishedMsg{})

		if err := <-tuiDone; err != nil {
			ctxlog.Warn(ctx, "dashboard exited with an error", "error", err)
		}

		return o.res, o.err

	case err := <-tuiDone:
		r.model.cancel()

		o := <-runDone
		if err != nil {
			return o.res, errors.Join(o.err, fmt.Errorf("%w: %w", ErrDashboard, err))
		}

		return o.res, o.err
	}
}
