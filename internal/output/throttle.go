// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package output

import (
	"sync"
	"time"
)

// Throttler limits how often a function runs.
// Calls to Trigger within one interval of the previous run are coalesced into a single
// deferred run at the interval boundary.
type Throttler struct {
	fn       func()
	interval time.Duration

	mu      sync.Mutex
	last    time.Time
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// Throttle returns a Throttler for fn. An interval <= 0 makes Trigger call fn synchronously.
func Throttle(fn func(), interval time.Duration) *Throttler {
	return &Throttler{
		fn:       fn,
		interval: interval,
	}
}

// Trigger requests a run of fn.
func (t *Throttler) Trigger() {
	t.mu.Lock()

	if t.stopped || t.timer != nil {
		t.mu.Unlock()
		return
	}

	if t.interval <= 0 {
		t.mu.Unlock()
		t.fn()

		return
	}

	wait := t.interval - time.Since(t.last)
	if wait <= 0 {
		t.last = time.Now()
		t.mu.Unlock()
		t.fn()

		return
	}

	gen := t.gen
	t.timer = time.AfterFunc(wait, func() { t.fire(gen) })
	t.mu.Unlock()
}

func (t *Throttler) fire(gen uint64) {
	t.mu.Lock()

	if t.stopped || gen != t.gen {
		t.mu.Unlock()
		return
	}

	t.timer = nil
	t.last = time.Now()
	t.mu.Unlock()
	t.fn()
}

// cancelLocked drops a pending deferred run. A timer that already fired but has not
// taken the lock yet sees the new generation and does nothing.
func (t *Throttler) cancelLocked() {
	t.gen++

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// Flush runs fn now, cancelling any pending deferred run.
func (t *Throttler) Flush() {
	t.mu.Lock()
	t.cancelLocked()
	t.last = time.Now()
	t.mu.Unlock()
	t.fn()
}

// Stop cancels any pending run. Later calls to Trigger do nothing.
func (t *Throttler) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	t.cancelLocked()
}

// Pending reports whether a deferred run is scheduled.
func (t *Throttler) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.timer != nil
}
