// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package gate

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Auto requests one slot per available CPU core.
const Auto = "auto"

// ErrInvalidConcurrency is returned when a concurrency value is neither a positive integer nor "auto".
var ErrInvalidConcurrency = errors.New("concurrency must be a positive integer or \"auto\"")

var numCPU = runtime.NumCPU

// ResolveLimit turns a requested concurrency into an effective limit for tasks items.
// An empty request means full parallelism. The result never exceeds tasks, and is at
// least 1 when there is anything to run.
func ResolveLimit(requested string, tasks int) (int, error) {
	var limit int

	switch r := strings.TrimSpace(strings.ToLower(requested)); r {
	case "":
		limit = tasks
	case Auto:
		limit = numCPU()
	default:
		n, err := strconv.Atoi(r)
		if err != nil || n < 1 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidConcurrency, requested)
		}

		limit = n
	}

	limit = min(limit, tasks)
	if tasks > 0 {
		limit = max(limit, 1)
	}

	return limit, nil
}
