// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package orchestrator

import (
	"time"

	"github.com/matt-FFFFFF/monorun/internal/progress"
)

// TaskResult is the final state of one folder.
type TaskResult struct {
	Folder   string
	Status   progress.Status
	Err      error
	Started  time.Time
	Finished time.Time
}

// Duration is the wall time of the last attempt, or zero if it never finished.
func (r TaskResult) Duration() time.Duration {
	if r.Started.IsZero() || r.Finished.IsZero() {
		return 0
	}

	return r.Finished.Sub(r.Started)
}

// Results holds one TaskResult per folder, in folder order.
type Results []TaskResult

// Failed returns the results with StatusError.
func (r Results) Failed() Results {
	var out Results

	for _, tr := range r {
		if tr.Status == progress.StatusError {
			out = append(out, tr)
		}
	}

	return out
}

// WithStatus returns the folders whose result has status s.
func (r Results) WithStatus(s progress.Status) []string {
	var out []string

	for _, tr := range r {
		if tr.Status == s {
			out = append(out, tr.Folder)
		}
	}

	return out
}

// Duration is the span from the first start to the last finish.
func (r Results) Duration() time.Duration {
	var first, last time.Time

	for _, tr := range r {
		if !tr.Started.IsZero() && (first.IsZero() || tr.Started.Before(first)) {
			first = tr.Started
		}

		if tr.Finished.After(last) {
			last = tr.Finished
		}
	}

	if first.IsZero() || last.Before(first) {
		return 0
	}

	return last.Sub(first)
}
