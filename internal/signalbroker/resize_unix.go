// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !windows

package signalbroker

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// NotifyResize returns a channel that receives a value whenever the controlling
// terminal changes size.
func NotifyResize() chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, unix.SIGWINCH)

	return ch
}
