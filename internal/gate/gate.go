// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package gate provides admission control for a fixed list of tasks.
//
// A Gate holds a FIFO queue and a number of free slots. Next starts the head of the
// queue when a slot is free. Every started task receives a release function; calling it
// returns the slot and immediately tries to start the next task, so completions drive
// admission without polling.
//
// A Gate is not safe for concurrent use. It is meant to be owned by a single loop
// goroutine, which also calls the release functions.
package gate

import "slices"

// Gate admits queued items as slots become free.
type Gate[T comparable] struct {
	queue  []T
	free   int
	limit  int
	closed bool
	start  func(item T, release func())
}

// New creates a gate over items with limit concurrent slots.
// Nothing is started until Next or Fill is called.
func New[T comparable](items []T, limit int, start func(item T, release func())) *Gate[T] {
	return &Gate[T]{
		queue: slices.Clone(items),
		free:  limit,
		limit: limit,
		start: start,
	}
}

// Next starts the next queued item if a slot is free.
// It returns false, and does nothing, when the queue is empty, no slot is free, or the
// gate has been closed.
func (g *Gate[T]) Next() bool {
	if g.closed || g.free <= 0 || len(g.queue) == 0 {
		return false
	}

	item := g.queue[0]
	g.queue = g.queue[1:]
	g.free--

	g.start(item, g.releaser())

	return true
}

// Fill calls Next until it returns false and returns the number of items started.
func (g *Gate[T]) Fill() int {
	n := 0
	for g.Next() {
		n++
	}

	return n
}

func (g *Gate[T]) releaser() func() {
	released := false

	return func() {
		if released {
			return
		}

		released = true
		g.free++
		g.Next()
	}
}

// Close stops all further admissions. Release functions keep returning slots.
func (g *Gate[T]) Close() {
	g.closed = true
}

// Closed reports whether Close has been called.
func (g *Gate[T]) Closed() bool {
	return g.closed
}

// Withdraw removes item from the queue. It returns false when item is not queued.
func (g *Gate[T]) Withdraw(item T) bool {
	i := slices.Index(g.queue, item)
	if i < 0 {
		return false
	}

	g.queue = slices.Delete(g.queue, i, i+1)

	return true
}

// Queued returns a copy of the items still waiting, in admission order.
func (g *Gate[T]) Queued() []T {
	return slices.Clone(g.queue)
}

// Running returns the number of slots currently taken.
func (g *Gate[T]) Running() int {
	return g.limit - g.free
}
