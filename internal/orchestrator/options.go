// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package orchestrator

import (
	"os"
	"time"

	"github.com/matt-FFFFFF/monorun/internal/color"
	"github.com/matt-FFFFFF/monorun/internal/output"
	"github.com/matt-FFFFFF/monorun/internal/progress"
	"github.com/matt-FFFFFF/monorun/internal/ptyrun"
	"github.com/matt-FFFFFF/monorun/internal/terminate"
)

const (
	// DefaultKillTimeout bounds the wait for process trees after an abort.
	DefaultKillTimeout = 5 * time.Second
	// DefaultInteractiveThrottle is the flush interval for dashboard logs.
	DefaultInteractiveThrottle = 200 * time.Millisecond
	// DefaultLogLines is how many lines each dashboard log keeps.
	DefaultLogLines = 1000
)

// Options configures a Driver.
type Options struct {
	Script  string
	Folders []string
	// Concurrency is the resolved limit. Values < 1 mean one slot per folder.
	Concurrency int

	// Streaming prints output as it arrives, at most once per Throttle.
	// Otherwise each task's output is printed when it exits.
	Streaming bool
	Throttle  time.Duration

	// Interactive sends output to per-folder display logs instead of Screen, keeps the
	// run alive until Quit, and does not abort on failure.
	Interactive bool
	LogLines    int

	Command ptyrun.Command
	Env     []string
	Size    ptyrun.Size

	Screen     *output.Screen
	Palette    *color.Palette
	Reporter   progress.Reporter
	Spawner    ptyrun.Spawner
	Terminator terminate.Terminator

	KillTimeout time.Duration
}

func (o *Options) defaults() {
	if o.Concurrency < 1 || o.Concurrency > len(o.Folders) {
		o.Concurrency = len(o.Folders)
	}

	if o.Interactive && o.Throttle <= 0 {
		o.Throttle = DefaultInteractiveThrottle
	}

	if o.LogLines <= 0 {
		o.LogLines = DefaultLogLines
	}

	if o.Screen == nil && !o.Interactive {
		o.Screen = output.NewScreen(os.Stdout)
	}

	if o.Palette == nil {
		o.Palette = color.NewPalette()
	}

	if o.Reporter == nil {
		o.Reporter = progress.NewNullReporter()
	}

	if o.Spawner == nil {
		o.Spawner = ptyrun.PTY
	}

	if o.Terminator == nil {
		o.Terminator = terminate.Default()
	}

	if o.KillTimeout <= 0 {
		o.KillTimeout = DefaultKillTimeout
	}
}
