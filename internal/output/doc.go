// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package output turns the raw pseudo-terminal chunks of many tasks into something a
// single terminal can show.
//
// A Stream buffers one task's chunks, drops chunks that a later erase-line sequence
// makes void, and hands the joined text to a sink at most once per throttle interval.
// A Screen is the sink for plain console runs: it rewrites cursor movement so every
// task's output stays behind a coloured left border, and prints a folder tag whenever
// the task writing to the terminal changes. A DisplayLog is the sink for the dashboard,
// where each task owns its own pane and escape sequences are stripped entirely.
package output
