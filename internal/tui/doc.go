// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides the interactive dashboard of a run.
//
// Every folder gets a bordered pane showing its status and the tail of its display
// log. The arrow keys select a pane, space stops or restarts the selected task, q
// quits once nothing runs and ctrl+c kills every task.
package tui
