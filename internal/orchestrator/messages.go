// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package orchestrator

import (
	"context"

	"github.com/matt-FFFFFF/monorun/internal/ctxlog"
	"github.com/matt-FFFFFF/monorun/internal/progress"
	"github.com/matt-FFFFFF/monorun/internal/ptyrun"
)

// message is applied by the run loop, the only goroutine that touches run state.
type message interface {
	apply(ctx context.Context, d *Driver)
}

// exited reports the end of one attempt of a task.
type exited struct {
	folder  string
	attempt int
	handle  ptyrun.Handle
	err     error
}

func (m exited) apply(ctx context.Context, d *Driver) {
	d.live--
	d.reg.Remove(m.folder, m.handle)

	t := d.tasks[m.folder]
	if m.attempt != t.attempt {
		// superseded by a restart
		return
	}

	d.settle(ctx, t, m.err)
}

// killed reports the end of a termination started by the loop.
type killed struct {
	err error
}

func (m killed) apply(_ context.Context, d *Driver) {
	d.killsPending--

	if m.err != nil {
		d.logger.Warn("some processes could not be terminated", "error", m.err)
	}
}

// request is a control call waiting for the loop's answer.
type request struct {
	run   func(ctx context.Context, d *Driver) error
	reply chan error
}

func (m request) apply(ctx context.Context, d *Driver) {
	m.reply <- m.run(ctx, d)
}

func (d *Driver) call(run func(ctx context.Context, d *Driver) error) error {
	if !d.started.Load() {
		return ErrNotRunning
	}

	m := request{run: run, reply: make(chan error, 1)}

	select {
	case d.msgs <- m:
	case <-d.loopDone:
		return ErrNotRunning
	}

	select {
	case err := <-m.reply:
		return err
	case <-d.loopDone:
		return ErrNotRunning
	}
}

func (d *Driver) interactiveTask(folder string) (*task, error) {
	if !d.opts.Interactive {
		return nil, ErrNotInteractive
	}

	t, ok := d.tasks[folder]
	if !ok {
		return nil, ErrUnknownFolder
	}

	return t, nil
}

// Stop terminates the process tree of a running task. The task becomes killed and
// keeps its concurrency slot until it is restarted by hand.
func (d *Driver) Stop(folder string) error {
	return d.call(func(ctx context.Context, d *Driver) error {
		t, err := d.interactiveTask(folder)
		if err != nil {
			return err
		}

		if t.status != progress.StatusRunning || t.handle == nil {
			return ErrTaskNotRunning
		}

		h := t.handle
		t.stopping = true
		d.report(t, progress.StatusKilled)
		d.logger.Debug("stopping task", ctxlog.FolderKey, folder)

		d.killsPending++

		go func() {
			kctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.KillTimeout)
			defer cancel()

			d.send(killed{err: d.reg.Terminate(kctx, folder, h)})
		}()

		return nil
	})
}

// Restart starts a task that is not running, outside the concurrency gate.
// A task still waiting in the gate's queue is taken out of it first.
func (d *Driver) Restart(folder string) error {
	return d.call(func(ctx context.Context, d *Driver) error {
		t, err := d.interactiveTask(folder)
		if err != nil {
			return err
		}

		if d.failure != nil {
			return ErrRunAborted
		}

		if t.status == progress.StatusRunning {
			return ErrTaskRunning
		}

		d.gate.Withdraw(folder)
		d.logger.Debug("restarting task", ctxlog.FolderKey, folder)
		d.launch(ctx, t, nil)

		return nil
	})
}

// Quit ends an interactive run. It fails with ErrTasksRunning while any task runs.
func (d *Driver) Quit() error {
	return d.call(func(_ context.Context, d *Driver) error {
		if !d.opts.Interactive {
			return ErrNotInteractive
		}

		for _, t := range d.tasks {
			if t.status == progress.StatusRunning {
				return ErrTasksRunning
			}
		}

		d.quit = true

		return nil
	})
}

// Resize changes the terminal size of every live process and of later starts.
func (d *Driver) Resize(size ptyrun.Size) error {
	return d.call(func(_ context.Context, d *Driver) error {
		d.opts.Size = size

		for _, t := range d.tasks {
			if t.handle == nil {
				continue
			}

			if err := t.handle.Resize(size); err != nil {
				d.logger.Debug("resize failed", ctxlog.FolderKey, t.folder, "error", err)
			}
		}

		return nil
	})
}
