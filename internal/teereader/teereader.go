// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teereader

import (
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
)

// maxPartial caps the bytes kept for a line that has not ended yet.
const maxPartial = 4096

// LastLineTeeReader wraps an io.Reader and tracks the last complete, non-blank line
// with escape sequences removed. A carriage return inside a line keeps only what was
// written after it, as a terminal would show. It is safe for concurrent use.
type LastLineTeeReader struct {
	reader io.Reader

	mu       sync.RWMutex
	lastLine string
	partial  strings.Builder
}

// NewLastLineTeeReader creates a new LastLineTeeReader that wraps the given reader.
func NewLastLineTeeReader(r io.Reader) *LastLineTeeReader {
	return &LastLineTeeReader{reader: r}
}

// Read implements io.Reader.
func (lt *LastLineTeeReader) Read(p []byte) (int, error) {
	n, err := lt.reader.Read(p)
	if n > 0 {
		lt.Observe(string(p[:n]))
	}

	return n, err //nolint:wrapcheck
}

// Observe feeds data to the line tracker without reading it from the wrapped reader.
func (lt *LastLineTeeReader) Observe(data string) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	for {
		i := strings.IndexByte(data, '\n')
		if i < 0 {
			break
		}

		lt.partial.WriteString(data[:i])

		if line := visible(lt.partial.String()); strings.TrimSpace(line) != "" {
			lt.lastLine = line
		}

		lt.partial.Reset()
		data = data[i+1:]
	}

	if lt.partial.Len()+len(data) > maxPartial {
		keep := visible(lt.partial.String() + data)
		lt.partial.Reset()
		data = keep[max(0, len(keep)-maxPartial):]
	}

	lt.partial.WriteString(data)
}

func visible(s string) string {
	s = ansi.Strip(s)
	s = strings.TrimRight(s, "\r")

	if i := strings.LastIndexByte(s, '\r'); i >= 0 {
		s = s[i+1:]
	}

	return strings.TrimRight(s, " \t")
}

// LastLine returns the last complete visible line, or "" if there is none yet.
// If maxLength > 3 and the line is longer, it is cut and "..." appended.
func (lt *LastLineTeeReader) LastLine(maxLength int) string {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	if maxLength > 3 && len(lt.lastLine) > maxLength {
		return lt.lastLine[:maxLength-3] + "..."
	}

	return lt.lastLine
}

// Partial returns the visible text written after the last newline.
func (lt *LastLineTeeReader) Partial() string {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	return visible(lt.partial.String())
}

// Reset forgets all tracked output. The underlying reader is not affected.
func (lt *LastLineTeeReader) Reset() {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	lt.lastLine = ""
	lt.partial.Reset()
}
