// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package run

import (
	"time"

	"github.com/matt-FFFFFF/monorun/internal/config"
	"github.com/urfave/cli/v3"
)

// defaultThrottle applies to --stream without --throttle.
const defaultThrottle = 200 * time.Millisecond

// settings are the run options after merging flags over the config file.
type settings struct {
	patterns    []string
	concurrency string
	streaming   bool
	throttle    time.Duration
	interactive bool
	layout      config.Layout
	manager     string
	killTimeout time.Duration
	env         []string
}

func resolveSettings(cmd *cli.Command, cfg *config.Config) (*settings, error) {
	s := &settings{
		patterns:    cfg.Patterns,
		concurrency: string(cfg.Concurrency),
		manager:     cfg.PackageManager,
		env:         cfg.EnvList(),
		layout:      config.LayoutRow,
	}

	patterns, err := Patterns(cmd)
	if err != nil {
		return nil, err
	}

	if patterns != nil {
		s.patterns = patterns
	}

	if cmd.IsSet(concurrencyFlag) {
		s.concurrency = cmd.String(concurrencyFlag)
	}

	if cmd.IsSet(packageManagerFlag) {
		s.manager = cmd.String(packageManagerFlag)
	}

	// streaming
	switch {
	case cmd.IsSet(streamFlag):
		s.streaming = cmd.Bool(streamFlag)
	case cmd.IsSet(throttleFlag):
		s.streaming = true
	case cfg.Stream != nil:
		s.streaming = *cfg.Stream
	case cfg.Throttle != "":
		s.streaming = true
	}

	s.throttle = defaultThrottle
	if d, _ := cfg.ThrottleDuration(); d > 0 {
		s.throttle = d
	}

	if cmd.IsSet(throttleFlag) {
		s.throttle = cmd.Duration(throttleFlag)
	}

	// dashboard
	if cfg.Layout != "" {
		s.layout = config.Layout(cfg.Layout)
	}

	switch {
	case cmd.IsSet(uiFlag):
		s.interactive = cmd.Bool(uiFlag)
	case cmd.IsSet(layoutFlag):
		s.interactive = true
	case cfg.UI != nil:
		s.interactive = *cfg.UI
	}

	if cmd.IsSet(layoutFlag) {
		if s.layout, err = config.ParseLayout(cmd.String(layoutFlag)); err != nil {
			return nil, err
		}
	}

	s.killTimeout = cmd.Duration(killTimeoutFlag)
	if d, _ := cfg.KillTimeoutDuration(); d > 0 && !cmd.IsSet(killTimeoutFlag) {
		s.killTimeout = d
	}

	return s, nil
}
