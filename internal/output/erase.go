// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package output

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Terminal control sequences written or recognised by this package.
const (
	EraseLine    = "\x1b[2K"
	CursorLeft   = "\x1b[G"
	CursorToCol0 = "\x1b[1G"
	CursorToCol1 = "\x1b[2G"
	CursorToCol2 = "\x1b[3G"
)

// eraseLineRe matches sequences that make the current line void: erase line (whole,
// start, end) and absolute moves to one of the first eleven columns.
var eraseLineRe = regexp.MustCompile(`\x1b\[(?:[012]?K|(?:1[01]|[1-9])G)`)

// CountEraseLine returns the number of erase-line sequences in s.
func CountEraseLine(s string) int {
	return len(eraseLineRe.FindAllStringIndex(s, -1))
}

// invisible reports whether s has nothing to show once escape sequences and
// whitespace are removed.
func invisible(s string) bool {
	return strings.TrimSpace(ansi.Strip(s)) == ""
}

var clearLineRe = regexp.MustCompile(`\x1b\[[012]?K`)

// leavesLineOpen reports whether writing s leaves visible text on the cursor's line,
// looking at what follows the last newline or line clear.
func leavesLineOpen(s string) bool {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}

	if locs := clearLineRe.FindAllStringIndex(s, -1); len(locs) > 0 {
		s = s[locs[len(locs)-1][1]:]
	}

	return !invisible(s)
}
