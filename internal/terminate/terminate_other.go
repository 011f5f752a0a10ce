// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !unix && !windows

package terminate

// Default returns a Terminator that kills only the process itself.
// Descendants of the process may survive on this platform.
func Default() Terminator {
	return processKiller{}
}
