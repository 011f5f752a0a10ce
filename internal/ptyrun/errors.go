// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ptyrun

import (
	"errors"
	"fmt"
)

// ErrCouldNotStartProcess is wrapped by every SpawnFailure.
var ErrCouldNotStartProcess = errors.New("could not start process")

// SpawnFailure is returned when the script's process cannot be started.
type SpawnFailure struct {
	Folder string
	Script string
	Err    error
}

func (e *SpawnFailure) Error() string {
	return fmt.Sprintf("could not start script %s in %s: %v", e.Script, e.Folder, e.Err)
}

// Unwrap allows errors.Is against both ErrCouldNotStartProcess and the cause.
func (e *SpawnFailure) Unwrap() []error {
	return []error{ErrCouldNotStartProcess, e.Err}
}

// ExitFailure is the result of a process that exited with a non-zero status.
// Code is -1 when the process was ended by a signal.
type ExitFailure struct {
	Code     int
	Folder   string
	Script   string
	LastLine string
}

func (e *ExitFailure) Error() string {
	return fmt.Sprintf("process exited with code %d for script %s in %s", e.Code, e.Script, e.Folder)
}
