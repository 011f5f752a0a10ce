// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package terminate

import (
	"context"
	"errors"
	"maps"
	"os"
	"slices"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/monorun/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

// killAllParallelism bounds how many trees are terminated at the same time.
const killAllParallelism = 8

// Handle is a live process known to the registry.
type Handle interface {
	Pid() int
	// Kill kills the process directly, without its tree.
	Kill() error
}

// Registry maps folders to their live process. It is safe for concurrent use.
type Registry struct {
	term Terminator

	mu      sync.Mutex
	handles map[string]Handle
}

// NewRegistry returns an empty Registry that terminates with t.
// A nil t means Default().
func NewRegistry(t Terminator) *Registry {
	if t == nil {
		t = Default()
	}

	return &Registry{
		term:    t,
		handles: make(map[string]Handle),
	}
}

// Add records h as the live process of folder, replacing any previous entry.
func (r *Registry) Add(folder string, h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handles[folder] = h
}

// Remove forgets folder, but only while h is still its registered process.
// This keeps a late exit of an old process from dropping a restarted one.
func (r *Registry) Remove(folder string, h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.handles[folder]; ok && cur == h {
		delete(r.handles, folder)
	}
}

// Get returns the live process of folder.
func (r *Registry) Get(folder string) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.handles[folder]

	return h, ok
}

// Len returns the number of live processes.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.handles)
}

// Folders returns the folders with a live process, sorted.
func (r *Registry) Folders() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Sorted(maps.Keys(r.handles))
}

// Terminate kills the tree of h, the process of folder, and forgets it.
// An entry that has since been replaced by another process is left alone.
func (r *Registry) Terminate(ctx context.Context, folder string, h Handle) error {
	r.Remove(folder, h)

	return r.kill(ctx, folder, h).ErrorOrNil()
}

// KillAll terminates every registered tree concurrently, then clears the registry.
// The returned error, if any, is a *multierror.Error of *TerminationFailure.
func (r *Registry) KillAll(ctx context.Context) error {
	r.mu.Lock()
	snapshot := r.handles
	r.handles = make(map[string]Handle)
	r.mu.Unlock()

	if len(snapshot) == 0 {
		return nil
	}

	ctxlog.Debug(ctx, "terminating all processes", "count", len(snapshot))

	var (
		g    errgroup.Group
		mu   sync.Mutex
		merr *multierror.Error
	)

	g.SetLimit(killAllParallelism)

	for folder, h := range snapshot {
		g.Go(func() error {
			if err := r.kill(ctx, folder, h); err != nil {
				mu.Lock()
				merr = multierror.Append(merr, err.Errors...)
				mu.Unlock()
			}

			return nil
		})
	}

	_ = g.Wait()

	return merr.ErrorOrNil()
}

func (r *Registry) kill(ctx context.Context, folder string, h Handle) *multierror.Error {
	var merr *multierror.Error

	pid := h.Pid()

	if err := r.term.Terminate(ctx, pid); err != nil {
		merr = multierror.Append(merr, &TerminationFailure{Folder: folder, Pid: pid, Err: err})
	}

	if err := h.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		merr = multierror.Append(merr, &TerminationFailure{Folder: folder, Pid: pid, Err: err})
	}

	return merr
}
