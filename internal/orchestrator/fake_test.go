// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matt-FFFFFF/monorun/internal/progress"
	"github.com/matt-FFFFFF/monorun/internal/ptyrun"
)

// fakeProc is a process whose output and exit are driven by the test.
type fakeProc struct {
	pid      int
	folder   string
	sp       *fakeSpawner
	out      chan string
	done     chan struct{}
	err      error
	once     sync.Once
	killed   atomic.Bool
	stubborn bool // ignores Kill
	size     atomic.Value
}

func (p *fakeProc) Pid() int              { return p.pid }
func (p *fakeProc) Folder() string        { return p.folder }
func (p *fakeProc) Output() <-chan string { return p.out }
func (p *fakeProc) Done() <-chan struct{} { return p.done }
func (p *fakeProc) Err() error            { return p.err }
func (p *fakeProc) LastLine() string      { return "" }

func (p *fakeProc) Resize(s ptyrun.Size) error {
	p.size.Store(s)
	return nil
}

func (p *fakeProc) Kill() error {
	p.killed.Store(true)

	if !p.stubborn {
		p.exit(&ptyrun.ExitFailure{Code: -1, Folder: p.folder})
	}

	return nil
}

func (p *fakeProc) write(s string) { p.out <- s }

func (p *fakeProc) exit(err error) {
	p.once.Do(func() {
		p.err = err
		p.sp.exited(p)
		close(p.out)
		close(p.done)
	})
}

func (p *fakeProc) fail(code int) {
	p.exit(&ptyrun.ExitFailure{Code: code, Folder: p.folder, Script: "build"})
}

type fakeSpawner struct {
	mu       sync.Mutex
	nextPid  int
	running  int
	peak     int
	all      []*fakeProc
	startErr map[string]error
	stubborn map[string]bool
	started  chan *fakeProc
}

func newFakeSpawner() *fakeSpawner {
	return &fakeSpawner{
		nextPid:  100,
		startErr: map[string]error{},
		stubborn: map[string]bool{},
		started:  make(chan *fakeProc, 64),
	}
}

func (s *fakeSpawner) Start(_ context.Context, spec ptyrun.Spec) (ptyrun.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.startErr[spec.Folder]; err != nil {
		return nil, &ptyrun.SpawnFailure{Folder: spec.Folder, Script: spec.Script, Err: err}
	}

	s.nextPid++
	p := &fakeProc{
		pid:      s.nextPid,
		folder:   spec.Folder,
		sp:       s,
		out:      make(chan string, 16),
		done:     make(chan struct{}),
		stubborn: s.stubborn[spec.Folder],
	}
	p.size.Store(spec.Size)

	s.all = append(s.all, p)
	s.running++
	s.peak = max(s.peak, s.running)
	s.started <- p

	return p, nil
}

func (s *fakeSpawner) exited(*fakeProc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running--
}

func (s *fakeSpawner) peakRunning() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.peak
}

// next returns the next started process, failing the test after a timeout.
func (s *fakeSpawner) next(t *testing.T) *fakeProc {
	t.Helper()

	select {
	case p := <-s.started:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("no process started")
		return nil
	}
}

func (s *fakeSpawner) none(t *testing.T) {
	t.Helper()

	select {
	case p := <-s.started:
		t.Fatalf("unexpected start of %s", p.folder)
	case <-time.After(50 * time.Millisecond):
	}
}

// pidTerminator records the pids it was asked to terminate.
type pidTerminator struct {
	mu   sync.Mutex
	pids []int
}

func (p *pidTerminator) Terminate(_ context.Context, pid int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pids = append(p.pids, pid)

	return nil
}

func (p *pidTerminator) got() []int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]int(nil), p.pids...)
}

// eventLog collects events from a ChannelReporter.
type eventLog struct {
	mu     sync.Mutex
	events []progress.Event
}

func (l *eventLog) OnEvent(e progress.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, e)
}

type folderStatus struct {
	Folder string
	Status progress.Status
}

func (l *eventLog) sequence() []folderStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]folderStatus, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, folderStatus{e.Folder, e.Status})
	}

	return out
}

func (l *eventLog) of(folder string) []progress.Status {
	var out []progress.Status

	for _, fs := range l.sequence() {
		if fs.Folder == folder {
			out = append(out, fs.Status)
		}
	}

	return out
}

// runAsync starts d.Run and returns a function that waits for its result.
func runAsync(ctx context.Context, d *Driver) func(t *testing.T) (Results, error) {
	type outcome struct {
		res Results
		err error
	}

	ch := make(chan outcome, 1)

	go func() {
		res, err := d.Run(ctx)
		ch <- outcome{res, err}
	}()

	return func(t *testing.T) (Results, error) {
		t.Helper()

		select {
		case o := <-ch:
			return o.res, o.err
		case <-time.After(5 * time.Second):
			t.Fatal("run did not finish")
			return nil, errors.New("timeout")
		}
	}
}
