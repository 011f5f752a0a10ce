// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package pkgmanager

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/afero"
)

// Stubbed in tests.
var (
	getenv = os.Getenv
	goos   = runtime.GOOS
)

// windowsExts are tried, in order, after the bare name on Windows.
var windowsExts = []string{".com", ".exe"}

// FindExecutable resolves command the way a shell started in cwd would.
//
// Absolute paths are returned as they are and relative paths with a directory are
// joined to cwd. A bare name is searched on PATH, relative PATH entries being taken
// from cwd. On Windows a `.cmd` shim next to a match is preferred, and `.com` then
// `.exe` are tried when the bare name does not exist. When nothing matches, the name
// joined to cwd is returned.
func FindExecutable(fs afero.Fs, command, cwd string) string {
	if filepath.IsAbs(command) {
		return command
	}

	if filepath.Dir(command) != "." {
		return filepath.Join(cwd, command)
	}

	path := getenv("PATH")
	if path == "" {
		return filepath.Join(cwd, command)
	}

	for entry := range strings.SplitSeq(path, string(os.PathListSeparator)) {
		if entry == "" {
			continue
		}

		full := filepath.Join(entry, command)
		if !filepath.IsAbs(entry) {
			full = filepath.Join(cwd, entry, command)
		}

		if isExecutable(fs, full) {
			if goos == "windows" {
				if cmd := full + ".cmd"; isFile(fs, cmd) {
					return cmd
				}
			}

			return full
		}

		if goos != "windows" {
			continue
		}

		for _, ext := range windowsExts {
			if isFile(fs, full+ext) {
				return full + ext
			}
		}
	}

	return filepath.Join(cwd, command)
}

func isFile(fs afero.Fs, name string) bool {
	info, err := fs.Stat(name)
	return err == nil && !info.IsDir()
}

// isExecutable checks the executable bits, except on Windows which has none.
func isExecutable(fs afero.Fs, name string) bool {
	info, err := fs.Stat(name)
	if err != nil || info.IsDir() {
		return false
	}

	return goos == "windows" || info.Mode()&0o111 != 0
}
