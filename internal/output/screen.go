// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package output

import (
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/matt-FFFFFF/monorun/internal/color"
)

const (
	tagGlyph    = "⎡⚑ "
	borderGlyph = "⎢"
	marker      = "\x00border\x00"
)

var (
	// clearingRe detects chunks that move back to the start of the line or clear it.
	clearingRe = regexp.MustCompile(`\r|\x1b\[2K|\x1b\[[12]?G`)
	// homeRunRe matches runs of line-start moves, which collapse into one border.
	homeRunRe = regexp.MustCompile(`(?:\r|\x1b\[[12]?G)+`)
)

// Tag identifies the task that owns a piece of output.
type Tag struct {
	Folder string
	Color  color.Code
}

// Screen is a terminal shared by several tasks.
// It remembers which task wrote last so that a folder tag can be printed whenever the
// writer changes. Print is safe for concurrent use.
type Screen struct {
	w      io.Writer
	colour bool

	mu          sync.Mutex
	lastFolder  string
	lastCleared bool
}

// ScreenOption configures a Screen.
type ScreenOption func(*Screen)

// WithColour overrides colour detection for the tag and border glyphs.
func WithColour(enabled bool) ScreenOption {
	return func(s *Screen) {
		s.colour = enabled
	}
}

// NewScreen returns a Screen writing to w.
func NewScreen(w io.Writer, opts ...ScreenOption) *Screen {
	s := &Screen{
		w:      w,
		colour: color.Enabled(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Screen) paint(str string, c color.Code) string {
	if !s.colour {
		return str
	}

	return color.Force(str, c)
}

// Confine rewrites data so that cursor moves land behind the task's left border
// instead of at column zero.
func (s *Screen) Confine(tag Tag, data string) string {
	border := CursorToCol0 + s.paint(borderGlyph, tag.Color) + CursorToCol2

	data = strings.ReplaceAll(data, EraseLine, EraseLine+marker)
	data = homeRunRe.ReplaceAllLiteralString(data, marker)
	data = strings.ReplaceAll(data, "\n", "\n"+marker)

	return strings.ReplaceAll(data, marker, border)
}

// Print writes one flush of a task's output. Blank data is ignored.
func (s *Screen) Print(tag Tag, data string) error {
	if strings.TrimSpace(data) == "" {
		return nil
	}

	clearing := clearingRe.MatchString(data)
	body := s.Confine(tag, data)

	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder

	if tag.Folder != s.lastFolder {
		if s.lastCleared {
			b.WriteString(EraseLine + CursorToCol0)
		}

		b.WriteString("\n\n")
		b.WriteString(s.paint(tagGlyph+filepath.Base(tag.Folder), tag.Color))
		b.WriteString("\n")
		b.WriteString(s.paint(borderGlyph, tag.Color))
		b.WriteString(CursorToCol2)

		if clearing {
			b.WriteString("\n")
		}
	}

	b.WriteString(body)

	s.lastFolder = tag.Folder
	s.lastCleared = clearing

	_, err := io.WriteString(s.w, b.String())

	return err
}

// Sink returns a Stream sink that prints to s as tag. Write errors are passed to onErr
// when it is not nil.
func (s *Screen) Sink(tag Tag, onErr func(error)) func(string) {
	return func(data string) {
		if err := s.Print(tag, data); err != nil && onErr != nil {
			onErr(err)
		}
	}
}
