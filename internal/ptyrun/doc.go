// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ptyrun starts a package script inside a pseudo-terminal and exposes its
// output as a stream of text chunks.
//
// Running under a pty makes tools print what they print for a human: colours,
// progress bars and cursor movement. On Windows, which has no POSIX pty, stdout and
// stderr are merged into one pipe instead.
//
// A Process closes Output after the last chunk and closes Done after Output, so a
// consumer that drains Output sees all output before it observes completion.
package ptyrun
