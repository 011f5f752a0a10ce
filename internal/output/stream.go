// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package output

import (
	"strings"
	"sync"
	"time"
)

// Stream buffers the output of one task and flushes it to a sink.
type Stream struct {
	sink     func(string)
	throttle *Throttler
	buffered bool

	mu       sync.Mutex
	chunks   []string
	lineOpen bool
	closed   bool
}

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithThrottle sets the minimum interval between two flushes.
func WithThrottle(interval time.Duration) StreamOption {
	return func(s *Stream) {
		s.throttle = Throttle(s.Flush, interval)
	}
}

// Buffered holds all output until Close.
func Buffered() StreamOption {
	return func(s *Stream) {
		s.buffered = true
	}
}

// NewStream creates a Stream writing to sink. Without WithThrottle every chunk is
// flushed as soon as it is written.
func NewStream(sink func(string), opts ...StreamOption) *Stream {
	s := &Stream{sink: sink}
	s.throttle = Throttle(s.Flush, 0)

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Write adds a chunk to the buffer.
//
// When streaming, chunks that are blank after trimming whitespace are ignored; a
// buffered stream keeps them, so line breaks sent on their own survive. Every erase-line
// sequence in the chunk discards the most recently buffered chunk. A chunk with
// nothing visible whose erasures were all absorbed by the buffer is dropped as well,
// unless the terminal line was left open by the previous flush and still needs
// clearing.
func (s *Stream) Write(chunk string) {
	if chunk == "" || (!s.buffered && strings.TrimSpace(chunk) == "") {
		return
	}

	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return
	}

	n := CountEraseLine(chunk)
	keep := true

	if n > 0 {
		consumed := min(n, len(s.chunks))
		s.chunks = s.chunks[:len(s.chunks)-consumed]
		keep = consumed < n || s.lineOpen || !invisible(chunk)
	}

	if keep {
		s.chunks = append(s.chunks, chunk)
	}

	s.mu.Unlock()

	if !s.buffered {
		s.throttle.Trigger()
	}
}

// Flush emits the buffered text, if any, and clears the buffer.
func (s *Stream) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flushLocked()
}

func (s *Stream) flushLocked() {
	if len(s.chunks) == 0 {
		return
	}

	text := strings.Join(s.chunks, "")
	s.chunks = s.chunks[:0]
	s.lineOpen = leavesLineOpen(text)

	s.sink(text)
}

// Close flushes the remainder synchronously and rejects further writes.
// It is safe to call more than once.
func (s *Stream) Close() {
	s.throttle.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true
	s.flushLocked()
}
