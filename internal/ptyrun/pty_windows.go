// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build windows

package ptyrun

import (
	"io"
	"os"
	"os/exec"
)

// startPlatform starts cmd with stdout and stderr merged into one pipe.
// Resizing is a no-op.
func startPlatform(cmd *exec.Cmd, _ Size) (io.ReadCloser, func(Size) error, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, nil, err //nolint:wrapcheck
	}

	cmd.Stdout = w
	cmd.Stderr = w

	if err := cmd.Start(); err != nil {
		_ = r.Close()
		_ = w.Close()

		return nil, nil, err //nolint:wrapcheck
	}

	// the child holds its own copy
	_ = w.Close()

	return r, func(Size) error { return nil }, nil
}
