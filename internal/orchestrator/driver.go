// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matt-FFFFFF/monorun/internal/color"
	"github.com/matt-FFFFFF/monorun/internal/ctxlog"
	"github.com/matt-FFFFFF/monorun/internal/gate"
	"github.com/matt-FFFFFF/monorun/internal/output"
	"github.com/matt-FFFFFF/monorun/internal/progress"
	"github.com/matt-FFFFFF/monorun/internal/ptyrun"
	"github.com/matt-FFFFFF/monorun/internal/terminate"
)

const messageBacklog = 16

var (
	// ErrCancelled is the run error when the context is cancelled before the run ends.
	ErrCancelled = errors.New("run cancelled")
	// ErrAlreadyStarted is returned by a second call to Run.
	ErrAlreadyStarted = errors.New("run already started")
	// ErrNotRunning is returned by controls used when no run loop is active.
	ErrNotRunning = errors.New("run is not active")
	// ErrUnknownFolder is returned by controls given a folder that is not part of the run.
	ErrUnknownFolder = errors.New("folder is not part of this run")
	// ErrTaskNotRunning is returned by Stop for a task without a live process.
	ErrTaskNotRunning = errors.New("task is not running")
	// ErrTaskRunning is returned by Restart for a task that is still running.
	ErrTaskRunning = errors.New("task is still running")
	// ErrTasksRunning is returned by Quit while any task is running.
	ErrTasksRunning = errors.New("tasks are still running")
	// ErrRunAborted is returned by Restart once the run is shutting down.
	ErrRunAborted = errors.New("run is shutting down")
	// ErrNotInteractive is returned by Stop, Restart and Quit outside interactive mode.
	ErrNotInteractive = errors.New("run is not interactive")
)

type task struct {
	folder string
	color  color.Code
	log    *output.DisplayLog

	// logMu orders display log writes of an attempt against the reset of the next one.
	logMu      sync.Mutex
	logAttempt int

	status   progress.Status
	err      error
	handle   ptyrun.Handle
	release  func()
	attempt  int
	stopping bool
	started  time.Time
	finished time.Time
}

// Driver runs one script across folders. Create it with New and call Run once.
type Driver struct {
	opts Options

	tasks map[string]*task
	gate  *gate.Gate[string]
	reg   *terminate.Registry

	msgs     chan message
	loopDone chan struct{}
	started  atomic.Bool

	logger       *slog.Logger
	live         int
	killsPending int
	failure      error
	timedOut     bool
	quit         bool
}

// New prepares a Driver. Colours and display logs are assigned here so that a
// dashboard can read them before Run starts.
func New(opts Options) *Driver {
	opts.defaults()

	d := &Driver{
		opts:     opts,
		tasks:    make(map[string]*task, len(opts.Folders)),
		reg:      terminate.NewRegistry(opts.Terminator),
		msgs:     make(chan message, messageBacklog),
		loopDone: make(chan struct{}),
	}

	for _, f := range opts.Folders {
		t := &task{folder: f, color: opts.Palette.Pick(), status: progress.StatusPending}
		if opts.Interactive {
			t.log = output.NewDisplayLog(opts.LogLines)
		}

		d.tasks[f] = t
	}

	return d
}

// Color returns the display colour assigned to folder.
func (d *Driver) Color(folder string) color.Code {
	if t, ok := d.tasks[folder]; ok {
		return t.color
	}

	return color.Reset
}

// DisplayLog returns the dashboard log of folder, or nil outside interactive mode.
func (d *Driver) DisplayLog(folder string) *output.DisplayLog {
	if t, ok := d.tasks[folder]; ok {
		return t.log
	}

	return nil
}

// Run executes the script in every folder and blocks until the run ends.
//
// Outside interactive mode the run ends when every task completed, or on the first
// failure once all process trees are gone (or KillTimeout passed). An interactive run
// ends on Quit. Cancelling ctx aborts the run with ErrCancelled.
func (d *Driver) Run(ctx context.Context) (Results, error) {
	if !d.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyStarted
	}

	defer close(d.loopDone)

	d.logger = ctxlog.Logger(ctx).With("script", d.opts.Script)

	if len(d.opts.Folders) == 0 {
		d.logger.Debug("no folders to run")
		return Results{}, nil
	}

	d.logger.Debug("starting run",
		"folders", len(d.opts.Folders),
		"concurrency", d.opts.Concurrency,
		"interactive", d.opts.Interactive,
		"streaming", d.opts.Streaming,
	)

	d.gate = gate.New(d.opts.Folders, d.opts.Concurrency, func(folder string, release func()) {
		d.launch(ctx, d.tasks[folder], release)
	})

	for _, f := range d.opts.Folders {
		if d.failure != nil {
			break
		}

		if !d.gate.Next() {
			d.report(d.tasks[f], progress.StatusPending)
		}
	}

	var (
		ctxDone = ctx.Done()
		abort   *time.Timer
		abortC  <-chan time.Time
	)

	defer func() {
		if abort != nil {
			abort.Stop()
		}
	}()

	for !d.finished() {
		if d.failure != nil && abort == nil {
			abort = time.NewTimer(d.opts.KillTimeout)
			abortC = abort.C
		}

		select {
		case <-ctxDone:
			ctxDone = nil

			d.fail(ctx, ErrCancelled)
		case m := <-d.msgs:
			m.apply(ctx, d)
		case <-abortC:
			d.logger.Warn("processes still alive after kill timeout", "count", d.live)

			d.timedOut = true
		}
	}

	return d.results(), d.failure
}

func (d *Driver) finished() bool {
	switch {
	case d.timedOut:
		return true
	case d.failure != nil:
		return d.live == 0 && d.killsPending == 0
	case d.opts.Interactive:
		return d.quit && d.live == 0 && d.killsPending == 0
	default:
		return d.live == 0 && len(d.gate.Queued()) == 0
	}
}

// launch starts an attempt of t. release is nil for manual restarts, which run
// outside the gate.
func (d *Driver) launch(ctx context.Context, t *task, release func()) {
	t.attempt++
	t.release = release
	t.stopping = false
	t.err = nil
	t.handle = nil
	t.started = time.Now()
	t.finished = time.Time{}

	if t.log != nil {
		t.logMu.Lock()
		t.logAttempt = t.attempt
		t.log.Reset()
		t.logMu.Unlock()
	}

	d.report(t, progress.StatusRunning)

	h, err := d.opts.Spawner.Start(ctx, ptyrun.Spec{
		Folder:  t.folder,
		Script:  d.opts.Script,
		Command: d.opts.Command,
		Size:    d.opts.Size,
		Env:     d.opts.Env,
	})
	if err != nil {
		d.logger.Debug("spawn failed", ctxlog.FolderKey, t.folder, "error", err)
		d.settle(ctx, t, err)

		return
	}

	t.handle = h
	d.live++
	d.reg.Add(t.folder, h)

	go d.watch(t.attempt, t.folder, h, d.stream(t))
}

func (d *Driver) stream(t *task) *output.Stream {
	if d.opts.Interactive {
		return output.NewStream(t.logSink(t.attempt), output.WithThrottle(d.opts.Throttle))
	}

	sink := d.opts.Screen.Sink(output.Tag{Folder: t.folder, Color: t.color}, func(err error) {
		d.logger.Debug("writing output failed", ctxlog.FolderKey, t.folder, "error", err)
	})

	if d.opts.Streaming {
		return output.NewStream(sink, output.WithThrottle(d.opts.Throttle))
	}

	return output.NewStream(sink, output.Buffered())
}

// logSink writes to the display log of t while attempt is the latest one. Output a
// stopped attempt still drains after a restart is discarded.
func (t *task) logSink(attempt int) func(string) {
	return func(chunk string) {
		t.logMu.Lock()
		defer t.logMu.Unlock()

		if t.logAttempt == attempt {
			t.log.Add(chunk)
		}
	}
}

// watch drains the output of one attempt and reports its exit to the loop.
// The stream is flushed before the exit is reported so no output is lost.
func (d *Driver) watch(attempt int, folder string, h ptyrun.Handle, s *output.Stream) {
	for chunk := range h.Output() {
		s.Write(chunk)
	}

	<-h.Done()
	s.Close()

	d.send(exited{folder: folder, attempt: attempt, handle: h, err: h.Err()})
}

func (d *Driver) send(m message) {
	select {
	case d.msgs <- m:
	case <-d.loopDone:
	}
}

// settle records the end of the current attempt of t.
func (d *Driver) settle(ctx context.Context, t *task, err error) {
	t.handle = nil
	t.finished = time.Now()

	switch {
	case d.failure != nil:
		// collateral of an abort: recorded, not reported
		if t.status == progress.StatusRunning {
			t.status = progress.StatusKilled
		}
	case t.stopping:
		t.stopping = false
	case err == nil:
		d.report(t, progress.StatusCompleted)
		d.releaseSlot(t)
	default:
		t.err = err
		d.report(t, progress.StatusError)

		// a failed task keeps its slot, as a stopped one does
		if d.opts.Interactive {
			return
		}

		d.fail(ctx, err)
	}
}

func (d *Driver) releaseSlot(t *task) {
	if t.release == nil {
		return
	}

	release := t.release
	t.release = nil
	release()
}

// fail aborts the run once: no more admissions, one KillAll, one report.
func (d *Driver) fail(ctx context.Context, err error) {
	if d.failure != nil {
		return
	}

	d.failure = err
	d.gate.Close()

	if errors.Is(err, ErrCancelled) {
		d.logger.Info("run cancelled, terminating processes", "live", d.live)
	} else {
		d.logger.Error("task failed, terminating other processes", "error", err, "live", d.live)
	}

	d.killsPending++

	go func() {
		kctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.KillTimeout)
		defer cancel()

		d.send(killed{err: d.reg.KillAll(kctx)})
	}()
}

func (d *Driver) report(t *task, s progress.Status) {
	t.status = s

	d.opts.Reporter.Report(progress.Event{
		Folder:    t.folder,
		Status:    s,
		Err:       t.err,
		Timestamp: time.Now(),
	})
}

func (d *Driver) results() Results {
	out := make(Results, 0, len(d.opts.Folders))

	for _, f := range d.opts.Folders {
		t := d.tasks[f]

		status := t.status
		if status == progress.StatusRunning {
			// only reachable after the kill timeout
			status = progress.StatusKilled
		}

		out = append(out, TaskResult{
			Folder:   f,
			Status:   status,
			Err:      t.err,
			Started:  t.started,
			Finished: t.finished,
		})
	}

	return out
}
