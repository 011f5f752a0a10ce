// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"time"
)

// Event is a task lifecycle transition.
type Event struct {
	Folder    string    // Absolute folder of the task
	Status    Status    // New status of the task
	Err       error     // Set for StatusError
	Timestamp time.Time // When the transition happened
}

// Status is the lifecycle state of a task.
type Status int

const (
	// StatusPending means the task is waiting for a concurrency slot.
	StatusPending Status = iota
	// StatusRunning means the task's process has been started.
	StatusRunning
	// StatusCompleted means the process exited with status 0.
	StatusCompleted
	// StatusError means the process failed to start or exited non-zero.
	StatusError
	// StatusKilled means the process was terminated by the runner.
	StatusKilled
)

// String implements the Stringer interface for Status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusError:
		return "error"
	case StatusKilled:
		return "killed"
	default:
		return "unknown"
	}
}

// Finished reports whether the status is terminal for the current attempt.
func (s Status) Finished() bool {
	return s == StatusCompleted || s == StatusError || s == StatusKilled
}

// Reporter is the interface for sending lifecycle events.
type Reporter interface {
	// Report sends an event. Implementations must not block.
	Report(event Event)
	// Close signals that no more events will be sent and cleans up resources.
	Close()
}

// Listener receives events from a ChannelReporter.
type Listener interface {
	OnEvent(event Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(Event)

// OnEvent calls f(event).
func (f ListenerFunc) OnEvent(event Event) { f(event) }

// NullReporter is a no-op implementation of Reporter.
type NullReporter struct{}

// Report does nothing.
func (NullReporter) Report(Event) {}

// Close does nothing.
func (NullReporter) Close() {}

// NewNullReporter creates a new NullReporter.
func NewNullReporter() Reporter {
	return NullReporter{}
}
