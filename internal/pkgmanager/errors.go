// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package pkgmanager

import "errors"

// ErrUnknownManager is returned by Parse for an unsupported package manager.
var ErrUnknownManager = errors.New("unknown package manager")
