// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package list contains the list command, which shows the packages a script would run in.
package list

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/matt-FFFFFF/monorun/cmd/monorun/run"
	"github.com/matt-FFFFFF/monorun/internal/config"
	"github.com/matt-FFFFFF/monorun/internal/ctxlog"
	"github.com/matt-FFFFFF/monorun/internal/workspace"
	"github.com/urfave/cli/v3"
)

const (
	scriptArg = "script"
	jsonFlag  = "json"
)

// ErrWriteList is returned when the folder list cannot be written.
var ErrWriteList = errors.New("failed to write folder list")

// ListCmd is the command that lists the packages declaring a script.
var ListCmd = newCommand()

func newCommand() *cli.Command {
	return &cli.Command{
		Name:        "list",
		Aliases:     []string{"ls"},
		Usage:       "List the monorepo packages that declare a script",
		Description: "List the folders `monorun run SCRIPT` would run in, one per line.",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      scriptArg,
				UsageText: "SCRIPT",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		},
		Flags: append(run.DiscoveryFlags(),
			&cli.BoolFlag{
				Name:        jsonFlag,
				Usage:       "Print the folders as a JSON array",
				DefaultText: "false",
				OnlyOnce:    true,
			},
		),
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	script := cmd.StringArg(scriptArg)
	if script == "" {
		return cli.Exit("Please provide the name of a script", 1)
	}

	folders, err := Folders(ctx, cmd, script)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	ctxlog.Debug(ctx, "listing folders", "script", script, "count", len(folders))

	if cmd.Bool(jsonFlag) {
		if folders == nil {
			folders = []string{}
		}

		if err := json.NewEncoder(cmd.Writer).Encode(folders); err != nil {
			return errors.Join(ErrWriteList, err)
		}

		return nil
	}

	for _, f := range folders {
		if _, err := fmt.Fprintln(cmd.Writer, f); err != nil {
			return errors.Join(ErrWriteList, err)
		}
	}

	return nil
}

// Folders resolves the folders of script with the discovery flags of cmd and the
// patterns of the config file.
func Folders(ctx context.Context, cmd *cli.Command, script string) ([]string, error) {
	fs := workspace.FsFactory()

	cwd, err := run.WorkingDirectory(fs, cmd)
	if err != nil {
		return nil, err
	}

	patterns, err := run.Patterns(cmd)
	if err != nil {
		return nil, err
	}

	if patterns == nil {
		cfg, err := config.Load(ctx, fs, cwd)
		if err != nil {
			return nil, err
		}

		patterns = cfg.Patterns
	}

	return workspace.Find(ctx, fs, cwd, script, patterns)
}
