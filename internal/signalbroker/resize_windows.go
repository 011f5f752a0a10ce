// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build windows

package signalbroker

import "os"

// NotifyResize returns a nil channel on Windows, which has no resize signal.
// Receiving from it blocks forever, so callers can select on it unconditionally.
func NotifyResize() chan os.Signal {
	return nil
}
