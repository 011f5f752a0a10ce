// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config reads the optional .monorun.yaml file of a repository.
//
// Example:
//
//	patterns: ["packages/*", "apps/*"]
//	concurrency: auto
//	stream: true
//	throttle: 100ms
//	ui: false
//	layout: column
//	packageManager: pnpm
//	killTimeout: 10s
//	env:
//	  FORCE_COLOR: "1"
package config
