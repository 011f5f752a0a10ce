// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package terminate

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeHandle struct {
	pid     int
	killErr error
	killed  bool
}

func (h *fakeHandle) Pid() int { return h.pid }

func (h *fakeHandle) Kill() error {
	h.killed = true
	return h.killErr
}

type recordingTerminator struct {
	mu   sync.Mutex
	pids []int
	fail map[int]error
}

func (r *recordingTerminator) Terminate(_ context.Context, pid int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pids = append(r.pids, pid)

	return r.fail[pid]
}

func TestRegistry_AddRemove(t *testing.T) {
	r := NewRegistry(&recordingTerminator{})
	old := &fakeHandle{pid: 10}
	restarted := &fakeHandle{pid: 11}

	r.Add("/repo/a", old)
	r.Add("/repo/b", &fakeHandle{pid: 12})
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"/repo/a", "/repo/b"}, r.Folders())

	r.Add("/repo/a", restarted)
	r.Remove("/repo/a", old)

	h, ok := r.Get("/repo/a")
	require.True(t, ok, "a stale exit must not remove the restarted process")
	assert.Same(t, restarted, h)

	r.Remove("/repo/a", restarted)
	_, ok = r.Get("/repo/a")
	assert.False(t, ok)
}

func TestRegistry_KillAll(t *testing.T) {
	term := &recordingTerminator{}
	r := NewRegistry(term)

	handles := []*fakeHandle{{pid: 1}, {pid: 2}, {pid: 3, killErr: os.ErrProcessDone}}
	for i, h := range handles {
		r.Add(string(rune('a'+i)), h)
	}

	require.NoError(t, r.KillAll(context.Background()))
	assert.ElementsMatch(t, []int{1, 2, 3}, term.pids)
	assert.Equal(t, 0, r.Len(), "registry is cleared")

	for _, h := range handles {
		assert.True(t, h.killed, "direct kill is also sent to pid %d", h.pid)
	}

	require.NoError(t, r.KillAll(context.Background()), "empty registry is a no-op")
}

func TestRegistry_KillAllCollectsFailures(t *testing.T) {
	boom := errors.New("boom")
	term := &recordingTerminator{fail: map[int]error{2: boom}}
	r := NewRegistry(term)

	r.Add("/repo/a", &fakeHandle{pid: 1})
	r.Add("/repo/b", &fakeHandle{pid: 2, killErr: errors.New("denied")})

	err := r.KillAll(context.Background())
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
	assert.ErrorIs(t, err, boom)

	var tf *TerminationFailure
	require.ErrorAs(t, err, &tf)
	assert.Equal(t, "/repo/b", tf.Folder)
	assert.Equal(t, 2, tf.Pid)
}

func TestRegistry_TerminateOne(t *testing.T) {
	term := &recordingTerminator{}
	r := NewRegistry(term)
	old := &fakeHandle{pid: 7}
	restarted := &fakeHandle{pid: 9}

	r.Add("/repo/a", old)
	r.Add("/repo/b", &fakeHandle{pid: 8})

	require.NoError(t, r.Terminate(context.Background(), "/repo/a", old))
	assert.Equal(t, []int{7}, term.pids)
	assert.True(t, old.killed)
	assert.Equal(t, []string{"/repo/b"}, r.Folders())

	r.Add("/repo/a", restarted)
	require.NoError(t, r.Terminate(context.Background(), "/repo/a", old))

	h, ok := r.Get("/repo/a")
	require.True(t, ok, "terminating a stale handle keeps the new one registered")
	assert.Same(t, restarted, h)
}

func TestTerminatorFunc(t *testing.T) {
	var got int

	f := TerminatorFunc(func(_ context.Context, pid int) error {
		got = pid
		return nil
	})

	require.NoError(t, f.Terminate(context.Background(), 42))
	assert.Equal(t, 42, got)
}

func TestInvalidPid(t *testing.T) {
	assert.ErrorIs(t, Default().Terminate(context.Background(), 0), ErrInvalidPid)
	assert.ErrorIs(t, processKiller{}.Terminate(context.Background(), -1), ErrInvalidPid)
}
