// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package run

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/matt-FFFFFF/monorun/internal/workspace"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const (
	patternsFlag = "patterns"
	cwdFlag      = "cwd"
)

// DiscoveryFlags returns the flags that select the packages of a command.
func DiscoveryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    patternsFlag,
			Aliases: []string{"p"},
			Usage: "Folder glob patterns, as a comma separated list or a JSON array. " +
				"By default the workspaces of the root package.json are used.",
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:      cwdFlag,
			Usage:     "Root of the monorepo",
			TakesFile: true,
			OnlyOnce:  true,
		},
	}
}

// Patterns returns the patterns given with --patterns, or nil.
func Patterns(cmd *cli.Command) ([]string, error) {
	if !cmd.IsSet(patternsFlag) {
		return nil, nil
	}

	return workspace.ParsePatterns(cmd.String(patternsFlag))
}

// WorkingDirectory returns the absolute directory given with --cwd, or the current one.
func WorkingDirectory(fs afero.Fs, cmd *cli.Command) (string, error) {
	dir := cmd.String(cwdFlag)
	if dir == "" {
		return os.Getwd()
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	info, err := fs.Stat(abs)
	if err != nil {
		return "", err
	}

	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}

	return abs, nil
}
