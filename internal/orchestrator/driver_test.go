// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/matt-FFFFFF/monorun/internal/color"
	"github.com/matt-FFFFFF/monorun/internal/output"
	"github.com/matt-FFFFFF/monorun/internal/progress"
	"github.com/matt-FFFFFF/monorun/internal/ptyrun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	sp     *fakeSpawner
	term   *pidTerminator
	events *eventLog
	rep    *progress.ChannelReporter
	screen *bytes.Buffer
}

func newFixture(t *testing.T, opts *Options) (*fixture, *Driver) {
	t.Helper()

	f := &fixture{
		sp:     newFakeSpawner(),
		term:   &pidTerminator{},
		events: &eventLog{},
		rep:    progress.NewChannelReporter(progress.BufferFor(len(opts.Folders))),
		screen: &bytes.Buffer{},
	}

	f.rep.Listen(f.events)
	t.Cleanup(f.rep.Close)

	opts.Script = "build"
	opts.Spawner = f.sp
	opts.Terminator = f.term
	opts.Reporter = f.rep

	if opts.Screen == nil && !opts.Interactive {
		opts.Screen = output.NewScreen(f.screen, output.WithColour(false))
	}

	return f, New(*opts)
}

// settled closes the reporter so that every event has reached the log.
func (f *fixture) settled() *eventLog {
	f.rep.Close()
	return f.events
}

func TestRun_EmptyFolderList(t *testing.T) {
	f, d := newFixture(t, &Options{})

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.Empty(t, f.settled().sequence())

	_, err = d.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyStarted)
	assert.ErrorIs(t, d.Quit(), ErrNotRunning)
}

func TestRun_ThreeFoldersLastOneFails(t *testing.T) {
	f, d := newFixture(t, &Options{Folders: []string{"/r/a", "/r/b", "/r/c"}, Concurrency: 2})
	wait := runAsync(context.Background(), d)

	a := f.sp.next(t)
	b := f.sp.next(t)
	assert.Equal(t, "/r/a", a.folder)
	assert.Equal(t, "/r/b", b.folder)
	f.sp.none(t)

	a.exit(nil)

	c := f.sp.next(t)
	assert.Equal(t, "/r/c", c.folder)

	b.exit(nil)
	assert.Eventually(t, func() bool {
		return len(f.events.of("/r/b")) == 2
	}, time.Second, 5*time.Millisecond)

	c.fail(1)

	res, err := wait(t)

	var ef *ptyrun.ExitFailure
	require.ErrorAs(t, err, &ef)
	assert.Equal(t, "/r/c", ef.Folder)
	assert.Equal(t, 1, ef.Code)

	require.Len(t, res, 3)
	assert.Equal(t, progress.StatusCompleted, res[0].Status)
	assert.Equal(t, progress.StatusCompleted, res[1].Status)
	assert.Equal(t, progress.StatusError, res[2].Status)
	assert.Equal(t, Results{res[2]}, res.Failed())

	ev := f.settled()
	assert.Equal(t, []progress.Status{progress.StatusRunning, progress.StatusCompleted}, ev.of("/r/a"))
	assert.Equal(t, []progress.Status{progress.StatusRunning, progress.StatusCompleted}, ev.of("/r/b"))
	assert.Equal(t, []progress.Status{progress.StatusPending, progress.StatusRunning, progress.StatusError}, ev.of("/r/c"))
}

func TestRun_FailureAbortsRun(t *testing.T) {
	f, d := newFixture(t, &Options{Folders: []string{"/r/a", "/r/b", "/r/c"}, Concurrency: 2})
	wait := runAsync(context.Background(), d)

	a := f.sp.next(t)
	b := f.sp.next(t)

	a.fail(2)

	res, err := wait(t)

	var ef *ptyrun.ExitFailure
	require.ErrorAs(t, err, &ef)
	assert.Equal(t, "/r/a", ef.Folder)
	assert.Equal(t, 2, ef.Code)

	assert.True(t, b.killed.Load(), "live process receives a kill")
	assert.Contains(t, f.term.got(), b.pid, "live process tree is terminated")
	f.sp.none(t)

	assert.Equal(t, progress.StatusError, res[0].Status)
	assert.Equal(t, progress.StatusKilled, res[1].Status)
	assert.NoError(t, res[1].Err, "collateral kills carry no error")
	assert.Equal(t, progress.StatusPending, res[2].Status, "no admission after failure")

	ev := f.settled()
	assert.Equal(t, []progress.Status{progress.StatusRunning}, ev.of("/r/b"), "collateral exit is silent")
	assert.Equal(t, []progress.Status{progress.StatusPending}, ev.of("/r/c"))
	assert.Len(t, res.Failed(), 1, "exactly one failure is reported")
}

func TestRun_SecondFailureAfterAbortNotReported(t *testing.T) {
	f, d := newFixture(t, &Options{Folders: []string{"/r/a", "/r/b"}})
	f.sp.stubborn["/r/b"] = true
	wait := runAsync(context.Background(), d)

	a := f.sp.next(t)
	b := f.sp.next(t)

	a.fail(1)

	assert.Eventually(t, b.killed.Load, time.Second, 5*time.Millisecond)
	b.fail(3)

	res, err := wait(t)

	var ef *ptyrun.ExitFailure
	require.ErrorAs(t, err, &ef)
	assert.Equal(t, "/r/a", ef.Folder)
	assert.Equal(t, progress.StatusKilled, res[1].Status)
	assert.Equal(t, []progress.Status{progress.StatusRunning}, f.settled().of("/r/b"))
}

func TestRun_SpawnFailure(t *testing.T) {
	f, d := newFixture(t, &Options{Folders: []string{"/r/a", "/r/b", "/r/c"}, Concurrency: 2})
	f.sp.startErr["/r/b"] = errors.New("no such file")
	wait := runAsync(context.Background(), d)

	a := f.sp.next(t)

	res, err := wait(t)

	var sf *ptyrun.SpawnFailure
	require.ErrorAs(t, err, &sf)
	assert.Equal(t, "/r/b", sf.Folder)
	assert.True(t, a.killed.Load())
	assert.Equal(t, progress.StatusError, res[1].Status)
	assert.Equal(t, progress.StatusPending, res[2].Status)
}

func TestRun_ContextCancel(t *testing.T) {
	f, d := newFixture(t, &Options{Folders: []string{"/r/a", "/r/b"}})

	ctx, cancel := context.WithCancel(context.Background())
	wait := runAsync(ctx, d)

	a := f.sp.next(t)
	b := f.sp.next(t)

	cancel()

	res, err := wait(t)
	require.ErrorIs(t, err, ErrCancelled)
	assert.True(t, a.killed.Load())
	assert.True(t, b.killed.Load())
	assert.Equal(t, []string{"/r/a", "/r/b"}, res.WithStatus(progress.StatusKilled))
	assert.Empty(t, res.Failed())
}

func TestRun_KillTimeout(t *testing.T) {
	f, d := newFixture(t, &Options{Folders: []string{"/r/a", "/r/b"}, KillTimeout: 50 * time.Millisecond})
	f.sp.stubborn["/r/b"] = true
	wait := runAsync(context.Background(), d)

	a := f.sp.next(t)
	b := f.sp.next(t)

	start := time.Now()

	a.fail(1)

	res, err := wait(t)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, progress.StatusKilled, res[1].Status)

	// let the watcher goroutine finish
	b.exit(nil)
}

func TestRun_ConcurrencyNeverExceeded(t *testing.T) {
	for _, c := range []int{1, 2, 3, 5} {
		t.Run(fmt.Sprintf("c=%d", c), func(t *testing.T) {
			folders := []string{"/r/1", "/r/2", "/r/3", "/r/4", "/r/5"}
			f, d := newFixture(t, &Options{Folders: folders, Concurrency: c})
			wait := runAsync(context.Background(), d)

			for range folders {
				f.sp.next(t).exit(nil)
			}

			res, err := wait(t)
			require.NoError(t, err)
			assert.Equal(t, folders, res.WithStatus(progress.StatusCompleted))
			assert.LessOrEqual(t, f.sp.peakRunning(), c)

			ev := f.settled()

			pending := 0

			for _, fs := range ev.sequence() {
				if fs.Status == progress.StatusPending {
					pending++
				}
			}

			assert.Equal(t, len(folders)-c, pending, "N-c tasks start pending")
		})
	}
}

func TestRun_BufferedOutputPrintedAtExit(t *testing.T) {
	f, d := newFixture(t, &Options{Folders: []string{"/r/a", "/r/b"}})
	wait := runAsync(context.Background(), d)

	a := f.sp.next(t)
	b := f.sp.next(t)

	a.write("a1\n")
	b.write("b1\n")
	a.write("a2\n")

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, f.screen.String(), "nothing printed before exit")

	a.exit(nil)
	b.exit(nil)

	_, err := wait(t)
	require.NoError(t, err)

	out := f.screen.String()
	assert.Contains(t, out, "⎡⚑ a\n")
	assert.Contains(t, out, "⎡⚑ b\n")
	assert.Less(t, strings.Index(out, "a1"), strings.Index(out, "a2"))
	assert.Equal(t, 1, strings.Count(out, "⎡⚑ a"), "buffered output of a task is printed in one piece")
}

func TestRun_StreamingOutput(t *testing.T) {
	f, d := newFixture(t, &Options{Folders: []string{"/r/a"}, Streaming: true})
	wait := runAsync(context.Background(), d)

	a := f.sp.next(t)
	a.write("first\n")

	assert.Eventually(t, func() bool {
		return strings.Contains(f.screen.String(), "first")
	}, time.Second, 5*time.Millisecond)

	a.write("abc")
	a.write("\x1b[2K")
	a.write("last\n")
	a.exit(nil)

	_, err := wait(t)
	require.NoError(t, err)
	assert.Contains(t, f.screen.String(), "last")
}

func TestRun_Resize(t *testing.T) {
	f, d := newFixture(t, &Options{Folders: []string{"/r/a"}, Size: ptyrun.Size{Cols: 80, Rows: 24}})
	wait := runAsync(context.Background(), d)

	a := f.sp.next(t)
	require.NoError(t, d.Resize(ptyrun.Size{Cols: 100, Rows: 50}))
	assert.Equal(t, ptyrun.Size{Cols: 100, Rows: 50}, a.size.Load())

	assert.ErrorIs(t, d.Stop("/r/a"), ErrNotInteractive)

	a.exit(nil)

	_, err := wait(t)
	require.NoError(t, err)
}

func TestInteractive_FailureDoesNotAbort(t *testing.T) {
	f, d := newFixture(t, &Options{Folders: []string{"/r/a", "/r/b"}, Concurrency: 1, Interactive: true})
	wait := runAsync(context.Background(), d)

	a := f.sp.next(t)
	f.sp.none(t)

	a.fail(1)
	f.sp.none(t)

	require.NoError(t, d.Restart("/r/b"), "the failed task still holds the only slot")
	b := f.sp.next(t)
	assert.ErrorIs(t, d.Quit(), ErrTasksRunning)

	b.exit(nil)

	assert.Eventually(t, func() bool { return d.Quit() == nil }, time.Second, 5*time.Millisecond)

	res, err := wait(t)
	require.NoError(t, err)
	assert.Equal(t, progress.StatusError, res[0].Status)
	assert.Equal(t, progress.StatusCompleted, res[1].Status)
	assert.Len(t, res.Failed(), 1)

	ev := f.settled()
	assert.Equal(t, []progress.Status{progress.StatusRunning, progress.StatusError}, ev.of("/r/a"))
	assert.Equal(t, []progress.Status{
		progress.StatusPending, progress.StatusRunning, progress.StatusCompleted,
	}, ev.of("/r/b"))
}

func TestInteractive_StopKeepsSlotRestartBypassesGate(t *testing.T) {
	f, d := newFixture(t, &Options{Folders: []string{"/r/a", "/r/b"}, Concurrency: 1, Interactive: true})
	wait := runAsync(context.Background(), d)

	a := f.sp.next(t)

	require.NoError(t, d.Stop("/r/a"))
	assert.Eventually(t, a.killed.Load, time.Second, 5*time.Millisecond)
	assert.Contains(t, f.term.got(), a.pid)
	f.sp.none(t)

	assert.ErrorIs(t, d.Stop("/r/a"), ErrTaskNotRunning)

	require.NoError(t, d.Restart("/r/b"), "queued task starts by hand")
	b := f.sp.next(t)
	assert.ErrorIs(t, d.Restart("/r/b"), ErrTaskRunning)

	require.NoError(t, d.Restart("/r/a"))
	a2 := f.sp.next(t)
	assert.Equal(t, "/r/a", a2.folder)
	assert.NotEqual(t, a.pid, a2.pid)

	b.exit(nil)
	a2.exit(nil)
	f.sp.none(t)

	assert.Eventually(t, func() bool { return d.Quit() == nil }, time.Second, 5*time.Millisecond)

	res, err := wait(t)
	require.NoError(t, err)
	assert.Equal(t, []string{"/r/a", "/r/b"}, res.WithStatus(progress.StatusCompleted))

	ev := f.settled()
	assert.Equal(t, []progress.Status{
		progress.StatusRunning, progress.StatusKilled, progress.StatusRunning, progress.StatusCompleted,
	}, ev.of("/r/a"))
	assert.Equal(t, []progress.Status{
		progress.StatusPending, progress.StatusRunning, progress.StatusCompleted,
	}, ev.of("/r/b"))
}

func TestInteractive_Controls(t *testing.T) {
	f, d := newFixture(t, &Options{Folders: []string{"/r/a"}, Interactive: true})

	assert.ErrorIs(t, d.Stop("/r/a"), ErrNotRunning, "controls need a run loop")

	wait := runAsync(context.Background(), d)
	a := f.sp.next(t)

	assert.ErrorIs(t, d.Stop("/r/zz"), ErrUnknownFolder)
	assert.ErrorIs(t, d.Restart("/r/zz"), ErrUnknownFolder)

	a.exit(nil)
	assert.Eventually(t, func() bool { return d.Quit() == nil }, time.Second, 5*time.Millisecond)

	_, err := wait(t)
	require.NoError(t, err)
	assert.ErrorIs(t, d.Restart("/r/a"), ErrNotRunning)
}

func TestInteractive_DisplayLog(t *testing.T) {
	f, d := newFixture(t, &Options{
		Folders:     []string{"/r/a"},
		Interactive: true,
		Throttle:    time.Millisecond,
	})
	require.NotNil(t, d.DisplayLog("/r/a"))
	assert.Nil(t, d.DisplayLog("/r/zz"))
	assert.Equal(t, color.Reset, d.Color("/r/zz"))

	wait := runAsync(context.Background(), d)
	a := f.sp.next(t)

	logged := func(want string) func() bool {
		return func() bool { return d.DisplayLog("/r/a").String() == want }
	}

	a.write("\x1b[32mhello\x1b[0m\r\n")
	a.write("50%")
	assert.Eventually(t, logged("hello\n50%"), time.Second, 5*time.Millisecond)

	a.write("\x1b[2K\r100%\n")

	assert.Eventually(t, logged("hello\n100%"), time.Second, 5*time.Millisecond)
	assert.Empty(t, f.screen.String(), "interactive output stays off the screen")

	a.exit(nil)
	assert.Eventually(t, func() bool { return d.Quit() == nil }, time.Second, 5*time.Millisecond)

	_, err := wait(t)
	require.NoError(t, err)
}

func TestInteractive_RestartDiscardsOutputOfStoppedAttempt(t *testing.T) {
	f, d := newFixture(t, &Options{
		Folders:     []string{"/r/a"},
		Interactive: true,
		Throttle:    time.Millisecond,
	})
	f.sp.stubborn["/r/a"] = true

	wait := runAsync(context.Background(), d)
	a := f.sp.next(t)

	require.NoError(t, d.Stop("/r/a"))
	require.NoError(t, d.Restart("/r/a"))
	a2 := f.sp.next(t)

	a.write("stale\n")
	a.exit(nil)
	a2.write("fresh\n")
	a2.exit(nil)

	assert.Eventually(t, func() bool { return d.Quit() == nil }, time.Second, 5*time.Millisecond)

	_, err := wait(t)
	require.NoError(t, err)
	assert.Equal(t, "fresh", d.DisplayLog("/r/a").String())
}

func TestInteractive_CancelKillsEverything(t *testing.T) {
	f, d := newFixture(t, &Options{Folders: []string{"/r/a"}, Interactive: true})

	ctx, cancel := context.WithCancel(context.Background())
	wait := runAsync(ctx, d)

	a := f.sp.next(t)
	cancel()

	res, err := wait(t)
	require.ErrorIs(t, err, ErrCancelled)
	assert.True(t, a.killed.Load())
	assert.Equal(t, progress.StatusKilled, res[0].Status)
	assert.ErrorIs(t, d.Restart("/r/a"), ErrNotRunning)
}

func TestResults_Duration(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	res := Results{
		{Folder: "a", Started: t0, Finished: t0.Add(2 * time.Second)},
		{Folder: "b", Started: t0.Add(time.Second), Finished: t0.Add(5 * time.Second)},
		{Folder: "c"},
	}

	assert.Equal(t, 5*time.Second, res.Duration())
	assert.Equal(t, 4*time.Second, res[1].Duration())
	assert.Zero(t, res[2].Duration())
	assert.Zero(t, Results{}.Duration())
}
