// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package output

import (
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
)

// DefaultDisplayLogLines bounds a DisplayLog created with a non-positive size.
const DefaultDisplayLogLines = 1000

// DisplayLog holds the most recent plain-text lines of one task for a dashboard pane.
type DisplayLog struct {
	mu    sync.Mutex
	lines []string
	max   int
}

// NewDisplayLog creates a DisplayLog keeping at most maxLines lines.
func NewDisplayLog(maxLines int) *DisplayLog {
	if maxLines <= 0 {
		maxLines = DefaultDisplayLogLines
	}

	return &DisplayLog{max: maxLines}
}

// Add appends a chunk. Each erase-line sequence in the chunk removes the last line
// first. Escape sequences and carriage returns are stripped and blank lines dropped.
func (l *DisplayLog) Add(chunk string) {
	n := CountEraseLine(chunk)
	text := strings.ReplaceAll(ansi.Strip(chunk), "\r", "")

	l.mu.Lock()
	defer l.mu.Unlock()

	l.lines = l.lines[:len(l.lines)-min(n, len(l.lines))]

	for line := range strings.SplitSeq(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		l.lines = append(l.lines, line)
	}

	if over := len(l.lines) - l.max; over > 0 {
		l.lines = slices.Delete(l.lines, 0, over)
	}
}

// Lines returns a copy of the current lines.
func (l *DisplayLog) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return slices.Clone(l.lines)
}

// String joins the current lines with newlines.
func (l *DisplayLog) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return strings.Join(l.lines, "\n")
}

// Reset removes every line, used when a task is restarted.
func (l *DisplayLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lines = nil
}
