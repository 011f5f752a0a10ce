// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package terminate kills process trees.
//
// Default returns the Terminator for the current platform. On unix the whole process
// group is signalled, on Windows taskkill removes the tree, and anywhere else only the
// process itself is killed, so its descendants may survive.
//
// A Registry tracks the live processes of a run so they can all be terminated at once.
package terminate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// DefaultGrace is how long a process group gets between SIGTERM and SIGKILL.
const DefaultGrace = 2 * time.Second

// ErrInvalidPid is returned for pids that cannot name a child process.
var ErrInvalidPid = errors.New("invalid pid")

// Terminator kills a process and its descendants.
type Terminator interface {
	// Terminate must return once ctx is done, even if the tree is still alive.
	Terminate(ctx context.Context, pid int) error
}

// TerminatorFunc adapts a function to the Terminator interface.
type TerminatorFunc func(ctx context.Context, pid int) error

// Terminate calls f(ctx, pid).
func (f TerminatorFunc) Terminate(ctx context.Context, pid int) error { return f(ctx, pid) }

// TerminationFailure records a process tree that could not be killed.
type TerminationFailure struct {
	Folder string
	Pid    int
	Err    error
}

func (e *TerminationFailure) Error() string {
	return fmt.Sprintf("could not terminate process %d in %s: %v", e.Pid, e.Folder, e.Err)
}

func (e *TerminationFailure) Unwrap() error {
	return e.Err
}

// processKiller kills only the process itself.
type processKiller struct{}

func (processKiller) Terminate(_ context.Context, pid int) error {
	if pid <= 0 {
		return ErrInvalidPid
	}

	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}

	if err := p.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}

	return nil
}
