// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package orchestrator runs one script across a set of folders.
//
// A Driver feeds the folders through a concurrency gate, starts a process per admitted
// folder, routes the output through an output.Stream to the shared screen or to the
// folder's dashboard log, and reports lifecycle events.
//
// All run state (task table, gate, process registry) belongs to the goroutine that
// executes Run. Process watchers and the interactive controls (Stop, Restart, Quit,
// Resize) talk to it through a message channel.
//
// Outside interactive mode the first failure aborts the run: admission stops, every
// live process tree is terminated once, and that failure becomes the run's error.
package orchestrator
