// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package workspace finds the package folders of a JavaScript monorepo.
//
// Patterns come from the `workspaces` field of the root package.json, or from the
// `packages` list of pnpm-workspace.yaml. Each pattern is matched against
// `<pattern>/package.json` and only folders whose manifest declares the requested
// script are kept.
package workspace
