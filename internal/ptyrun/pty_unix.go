// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !windows

package ptyrun

import (
	"io"
	"os/exec"

	"github.com/creack/pty"
)

// startPlatform starts cmd as the session leader of a new pseudo-terminal, which also
// makes it the leader of its own process group.
func startPlatform(cmd *exec.Cmd, size Size) (io.ReadCloser, func(Size) error, error) {
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: size.Cols, Rows: size.Rows})
	if err != nil {
		return nil, nil, err //nolint:wrapcheck
	}

	resize := func(s Size) error {
		return pty.Setsize(ptmx, &pty.Winsize{Cols: s.Cols, Rows: s.Rows}) //nolint:wrapcheck
	}

	return ptmx, resize, nil
}
