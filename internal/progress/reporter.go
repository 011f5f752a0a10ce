// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"sync"
	"sync/atomic"
)

// ChannelReporter implements Reporter using a buffered channel.
// Report never blocks: when the buffer is full, or the reporter is closed, the event is dropped.
// Every listener sees every event, in report order.
type ChannelReporter struct {
	ch      chan Event
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Int64

	lmu       sync.Mutex
	listeners []Listener
	drain     sync.Once
}

// NewChannelReporter creates a new ChannelReporter with the specified buffer size.
func NewChannelReporter(bufferSize int) *ChannelReporter {
	return &ChannelReporter{
		ch: make(chan Event, bufferSize),
	}
}

// BufferFor sizes a reporter buffer so that a run over n tasks does not drop events
// under normal scheduling: each task emits at most a few transitions per attempt.
func BufferFor(n int) int {
	return 4*n + 16 //nolint:mnd
}

// Report implements Reporter.Report.
func (cr *ChannelReporter) Report(event Event) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	if cr.closed {
		return
	}

	select {
	case cr.ch <- event:
	default:
		cr.dropped.Add(1)
	}
}

// Dropped returns how many events were discarded because the buffer was full.
func (cr *ChannelReporter) Dropped() int {
	return int(cr.dropped.Load())
}

// Close implements Reporter.Close.
// It closes the channel and waits for listeners to drain what is buffered.
func (cr *ChannelReporter) Close() {
	cr.once.Do(func() {
		cr.mu.Lock()
		cr.closed = true
		close(cr.ch)
		cr.mu.Unlock()
		cr.wg.Wait()
	})
}

// Listen adds listener to the listeners called for each event. The first call starts
// the goroutine that drains the buffer; it stops once the reporter is closed.
// A listener only sees events drained after it was added.
func (cr *ChannelReporter) Listen(listener Listener) {
	cr.lmu.Lock()
	cr.listeners = append(cr.listeners, listener)
	cr.lmu.Unlock()

	cr.drain.Do(func() {
		cr.wg.Add(1)

		go func() {
			defer cr.wg.Done()

			for event := range cr.ch {
				cr.lmu.Lock()
				listeners := cr.listeners
				cr.lmu.Unlock()

				for _, l := range listeners {
					l.OnEvent(event)
				}
			}
		}()
	})
}

// Events returns a read-only channel of events, closed by Close.
// Useful when you want to handle events manually instead of using a listener; do not
// mix the two.
func (cr *ChannelReporter) Events() <-chan Event {
	return cr.ch
}
