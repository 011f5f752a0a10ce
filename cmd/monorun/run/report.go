// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package run

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"github.com/matt-FFFFFF/monorun/internal/color"
	"github.com/matt-FFFFFF/monorun/internal/orchestrator"
	"github.com/matt-FFFFFF/monorun/internal/ptyrun"
	"github.com/urfave/cli/v3"
)

// report prints the outcome of a run and returns the command error.
func report(w, ew io.Writer, script string, folders []string, res orchestrator.Results, err error, elapsed time.Duration) error {
	if errors.Is(err, orchestrator.ErrCancelled) {
		return cli.Exit("run cancelled", 1)
	}

	if err != nil {
		fmt.Fprintln(ew, "\n"+describe(err)) //nolint:errcheck
		return cli.Exit(cliExitStr, 1)
	}

	// interactive runs do not stop at the first failure
	if failed := res.Failed(); len(failed) > 0 {
		fmt.Fprintln(ew) //nolint:errcheck

		for _, f := range failed {
			fmt.Fprintln(ew, describe(f.Err)) //nolint:errcheck
		}

		return cli.Exit(cliExitStr, 1)
	}

	fmt.Fprintf(w, "\n\n%s Completed %s (%ss) in:\n", //nolint:errcheck
		color.Colorize("✔", color.FgGreen), color.Colorize(script, color.Bold), seconds(elapsed))

	for _, f := range folders {
		fmt.Fprintln(w, color.Colorize("  - "+f, color.FgGreen)) //nolint:errcheck
	}

	return nil
}

// describe renders a task error for the user.
func describe(err error) string {
	var (
		exit  *ptyrun.ExitFailure
		spawn *ptyrun.SpawnFailure
		msg   string
	)

	switch {
	case errors.As(err, &exit):
		msg = fmt.Sprintf("%s Process exited with code %d for script %s in %s.",
			filepath.Base(exit.Folder), exit.Code, color.Colorize(exit.Script, color.Bold), exit.Folder)

		if exit.LastLine != "" {
			msg += "\n  " + color.Colorize(exit.LastLine, color.Faint)
		}
	case errors.As(err, &spawn):
		msg = fmt.Sprintf("%s Could not start script %s in %s: %v",
			filepath.Base(spawn.Folder), color.Colorize(spawn.Script, color.Bold), spawn.Folder, spawn.Err)
	default:
		msg = err.Error()
	}

	return color.Colorize("✖", color.FgRed) + " " + msg
}

// seconds formats d in seconds with at most two decimals.
func seconds(d time.Duration) string {
	return strconv.FormatFloat(math.Round(d.Seconds()*100)/100, 'f', -1, 64) //nolint:mnd
}
