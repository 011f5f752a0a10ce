// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build unix

package terminate

import (
	"context"
	"errors"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// startGroup starts a shell leading its own process group with a grandchild.
func startGroup(t *testing.T, script string) *exec.Cmd {
	t.Helper()

	cmd := exec.Command("/bin/sh", "-c", script)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	require.NoError(t, cmd.Start())

	return cmd
}

func waitExit(t *testing.T, cmd *exec.Cmd) {
	t.Helper()

	done := make(chan struct{})

	go func() {
		_ = cmd.Wait()

		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}
}

func TestGroupTerminator_KillsDescendants(t *testing.T) {
	cmd := startGroup(t, "sleep 30 & sleep 30; wait")
	pgid := cmd.Process.Pid

	term := &GroupTerminator{Grace: time.Second}
	require.NoError(t, term.Terminate(context.Background(), pgid))

	waitExit(t, cmd)

	assert.Eventually(t, func() bool {
		return errors.Is(unix.Kill(-pgid, 0), unix.ESRCH)
	}, 2*time.Second, 20*time.Millisecond, "the background sleep must be gone too")
}

func TestGroupTerminator_EscalatesToSigkill(t *testing.T) {
	cmd := startGroup(t, "trap '' TERM; sleep 30 & wait")

	// let the shell install the trap
	time.Sleep(100 * time.Millisecond)

	term := &GroupTerminator{Grace: 200 * time.Millisecond}
	start := time.Now()

	require.NoError(t, term.Terminate(context.Background(), cmd.Process.Pid))
	waitExit(t, cmd)

	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestGroupTerminator_GoneProcess(t *testing.T) {
	cmd := startGroup(t, "exit 0")
	waitExit(t, cmd)

	assert.NoError(t, Default().Terminate(context.Background(), cmd.Process.Pid))
}
