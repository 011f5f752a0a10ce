// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package pkgmanager decides which package manager runs the scripts and builds its
// command line.
package pkgmanager

import (
	"fmt"
	"path/filepath"

	"github.com/matt-FFFFFF/monorun/internal/ptyrun"
	"github.com/spf13/afero"
)

// Manager is a package manager executable name.
type Manager string

// Supported package managers.
const (
	Npm  Manager = "npm"
	Yarn Manager = "yarn"
	Pnpm Manager = "pnpm"
)

// lockfiles is checked in order; the first lockfile found wins.
var lockfiles = []struct {
	file    string
	manager Manager
}{
	{"yarn.lock", Yarn},
	{"pnpm-lock.yaml", Pnpm},
}

// Parse returns the Manager named s.
func Parse(s string) (Manager, error) {
	switch m := Manager(s); m {
	case Npm, Yarn, Pnpm:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownManager, s)
	}
}

// Detect returns the package manager used in root, judged by its lockfile.
// It falls back to npm.
func Detect(fs afero.Fs, root string) Manager {
	for _, l := range lockfiles {
		if ok, _ := afero.Exists(fs, filepath.Join(root, l.file)); ok {
			return l.manager
		}
	}

	return Npm
}

// RunCommand returns the command that runs script with m, resolved from cwd.
func RunCommand(fs afero.Fs, m Manager, cwd, script string) ptyrun.Command {
	return ptyrun.Command{
		Path: FindExecutable(fs, string(m), cwd),
		Args: []string{"run", script},
	}
}
