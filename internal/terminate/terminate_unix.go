// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build unix

package terminate

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sys/unix"
)

const groupPollInterval = 25 * time.Millisecond

// Default returns the process group Terminator.
func Default() Terminator {
	return &GroupTerminator{Grace: DefaultGrace}
}

// GroupTerminator signals the process group led by pid: SIGTERM first, then SIGKILL
// once Grace has passed and members are still alive.
type GroupTerminator struct {
	Grace time.Duration
}

// Terminate implements Terminator.
func (g *GroupTerminator) Terminate(ctx context.Context, pid int) error {
	if pid <= 0 {
		return ErrInvalidPid
	}

	pgid, err := unix.Getpgid(pid)
	if err != nil {
		if errors.Is(err, unix.ESRCH) {
			return nil
		}

		pgid = pid
	}

	// never signal our own group
	if pgid == unix.Getpgrp() {
		return processKiller{}.Terminate(ctx, pid)
	}

	if err := unix.Kill(-pgid, unix.SIGTERM); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return nil
		}

		return err
	}

	if g.waitGone(ctx, pgid) {
		return nil
	}

	if err := unix.Kill(-pgid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return err
	}

	return nil
}

// waitGone reports whether the group disappeared within the grace period.
func (g *GroupTerminator) waitGone(ctx context.Context, pgid int) bool {
	deadline := time.NewTimer(g.Grace)
	defer deadline.Stop()

	tick := time.NewTicker(groupPollInterval)
	defer tick.Stop()

	for {
		if errors.Is(unix.Kill(-pgid, 0), unix.ESRCH) {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-tick.C:
		}
	}
}
