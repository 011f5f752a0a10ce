// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build windows

package terminate

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// Default returns the taskkill Terminator.
func Default() Terminator {
	return TaskKill{}
}

// TaskKill removes a process tree with taskkill /T /F.
type TaskKill struct{}

// Terminate implements Terminator.
func (TaskKill) Terminate(ctx context.Context, pid int) error {
	if pid <= 0 {
		return ErrInvalidPid
	}

	out, err := exec.CommandContext(ctx, "taskkill", "/T", "/F", "/PID", strconv.Itoa(pid)).CombinedOutput()
	if err != nil {
		return fmt.Errorf("taskkill: %w: %s", err, out)
	}

	return nil
}
