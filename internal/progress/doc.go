// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress carries task lifecycle events from a run to whoever displays them.
// Reporters never block the sender: a slow consumer loses events rather than stalling
// the orchestration loop.
package progress
