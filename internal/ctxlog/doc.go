// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a log/slog logger in a context.Context.
//
// All records go to stderr, since stdout is shared by the scripts of a run. Records
// are pretty-printed unless MONORUN_LOG_FORMAT is "json". MONORUN_LOG_LEVEL selects
// "DEBUG", "INFO", "WARN" or "ERROR"; the default is "WARN". Task-scoped records carry
// the folder under FolderKey.
package ctxlog
