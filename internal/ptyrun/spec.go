// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ptyrun

import (
	"context"
	"strings"
)

// Default terminal size used when the caller does not know one.
const (
	DefaultCols = 80
	DefaultRows = 24
)

// Command is a resolved executable and its arguments.
type Command struct {
	Path string
	Args []string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Size is a terminal size in character cells.
type Size struct {
	Cols uint16
	Rows uint16
}

// OrDefault replaces zero dimensions with DefaultCols and DefaultRows.
func (s Size) OrDefault() Size {
	if s.Cols == 0 {
		s.Cols = DefaultCols
	}

	if s.Rows == 0 {
		s.Rows = DefaultRows
	}

	return s
}

// Spec describes one script execution.
type Spec struct {
	Folder  string   // working directory
	Script  string   // script name, used in errors
	Command Command  // package manager invocation
	Size    Size     // initial pty size
	Env     []string // added to the parent environment, KEY=VALUE
}

// Handle is a running script as seen by its owner.
type Handle interface {
	Pid() int
	Folder() string
	Output() <-chan string
	Done() <-chan struct{}
	// Err is valid after Done is closed.
	Err() error
	Resize(Size) error
	Kill() error
	LastLine() string
}

// Spawner starts scripts.
type Spawner interface {
	Start(ctx context.Context, spec Spec) (Handle, error)
}

// SpawnerFunc adapts a function to the Spawner interface.
type SpawnerFunc func(ctx context.Context, spec Spec) (Handle, error)

// Start calls f(ctx, spec).
func (f SpawnerFunc) Start(ctx context.Context, spec Spec) (Handle, error) { return f(ctx, spec) }

// PTY is the Spawner backed by Start.
var PTY Spawner = SpawnerFunc(func(ctx context.Context, spec Spec) (Handle, error) {
	p, err := Start(ctx, spec)
	if err != nil {
		return nil, err
	}

	return p, nil
})
