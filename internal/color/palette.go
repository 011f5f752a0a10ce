// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import "sync"

// DefaultTaskColors is the rotation used to tell concurrent tasks apart.
var DefaultTaskColors = []Code{
	FgCyan,
	FgMagenta,
	FgYellow,
	FgBlue,
	FgGreen,
	FgHiCyan,
	FgHiMagenta,
	FgHiYellow,
	FgHiBlue,
	FgHiGreen,
}

// Palette hands out colors round-robin. It is safe for concurrent use.
type Palette struct {
	codes []Code
	next  int
	mu    sync.Mutex
}

// NewPalette creates a palette from the given codes, or DefaultTaskColors if none are given.
func NewPalette(codes ...Code) *Palette {
	if len(codes) == 0 {
		codes = DefaultTaskColors
	}

	return &Palette{codes: codes}
}

// Pick returns the next color in the rotation.
func (p *Palette) Pick() Code {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := p.codes[p.next%len(p.codes)]
	p.next++

	return c
}
