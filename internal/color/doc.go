// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color wraps strings in ANSI SGR codes.
//
// Colorize honours the process-wide switch: off when NO_COLOR is set, on when
// FORCE_COLOR is set, otherwise on only when stdout is a terminal. Force ignores the
// switch for writers that decide for themselves, such as the shared task screen.
// Palette hands out one foreground color per task, in round-robin order.
package color
