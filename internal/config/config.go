// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/monorun/internal/ctxlog"
	"github.com/spf13/afero"
)

// FileNames are the config files looked up in the working directory, in order.
var FileNames = []string{".monorun.yaml", ".monorun.yml"}

var (
	// ErrInvalidYaml is returned when the config file cannot be decoded.
	ErrInvalidYaml = errors.New("invalid YAML")
	// ErrInvalidValue is returned when a config value is out of range.
	ErrInvalidValue = errors.New("invalid config value")
)

// Config holds defaults for the run command. Command line flags take precedence.
type Config struct {
	Patterns       []string          `yaml:"patterns"`
	Concurrency    Scalar            `yaml:"concurrency"`
	Stream         *bool             `yaml:"stream"`
	Throttle       string            `yaml:"throttle"`
	UI             *bool             `yaml:"ui"`
	Layout         string            `yaml:"layout"`
	PackageManager string            `yaml:"packageManager"`
	KillTimeout    string            `yaml:"killTimeout"`
	Env            map[string]string `yaml:"env"`

	// Path is the file the config was read from, empty when none was found.
	Path string `yaml:"-"`
}

// Scalar is a YAML scalar kept as text, so that `concurrency: 4` and
// `concurrency: auto` decode alike.
type Scalar string

// UnmarshalYAML implements yaml.InterfaceUnmarshaler.
func (s *Scalar) UnmarshalYAML(unmarshal func(any) error) error {
	var v any
	if err := unmarshal(&v); err != nil {
		return err
	}

	switch v := v.(type) {
	case nil:
		*s = ""
	case map[string]any, []any:
		return fmt.Errorf("%w: expected a scalar", ErrInvalidValue)
	default:
		*s = Scalar(fmt.Sprint(v))
	}

	return nil
}

// Load reads the first config file found in dir. A missing file yields an empty
// Config.
func Load(ctx context.Context, fs afero.Fs, dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)

		b, err := afero.ReadFile(fs, path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}

		if err != nil {
			return nil, err
		}

		c, err := Parse(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		c.Path = path
		ctxlog.Debug(ctx, "loaded config", "path", path)

		return c, nil
	}

	return &Config{}, nil
}

// Parse decodes and validates config file contents. Unknown keys are rejected.
func Parse(b []byte) (*Config, error) {
	c := new(Config)

	if err := yaml.UnmarshalWithOptions(b, c, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYaml, err)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) validate() error {
	var errs []error

	if _, err := c.ThrottleDuration(); err != nil {
		errs = append(errs, err)
	}

	if _, err := c.KillTimeoutDuration(); err != nil {
		errs = append(errs, err)
	}

	if c.Layout != "" {
		if _, err := ParseLayout(c.Layout); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// ThrottleDuration parses Throttle. Zero means unset.
func (c *Config) ThrottleDuration() (time.Duration, error) {
	return parseDuration("throttle", c.Throttle)
}

// KillTimeoutDuration parses KillTimeout. Zero means unset.
func (c *Config) KillTimeoutDuration() (time.Duration, error) {
	return parseDuration("killTimeout", c.KillTimeout)
}

func parseDuration(key, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative duration, got %q", ErrInvalidValue, key, s)
	}

	return d, nil
}

// EnvList returns Env as sorted KEY=VALUE pairs.
func (c *Config) EnvList() []string {
	out := make([]string, 0, len(c.Env))
	for _, k := range sortedKeys(c.Env) {
		out = append(out, k+"="+c.Env[k])
	}

	return out
}
