// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package teereader provides a TeeReader that remembers the last visible line of the
// terminal output passing through it. Failure reports use it to show what a task
// printed just before it exited, without keeping the whole output in memory.
package teereader
