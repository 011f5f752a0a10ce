// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/monorun/internal/ctxlog"
	"github.com/spf13/afero"
)

const (
	// ManifestFile is the package manifest looked up in every folder.
	ManifestFile = "package.json"
	// PnpmWorkspaceFile lists workspace patterns for pnpm.
	PnpmWorkspaceFile = "pnpm-workspace.yaml"
)

var (
	// ErrInvalidPatterns is returned when a pattern list cannot be parsed.
	ErrInvalidPatterns = errors.New("invalid patterns")
	// ErrInvalidManifest is returned when a manifest is not valid JSON.
	ErrInvalidManifest = errors.New("cannot parse manifest")
)

// FsFactory returns the filesystem used by the command line.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

// manifest is the subset of package.json read here.
type manifest struct {
	Workspaces workspaces     `json:"workspaces"`
	Scripts    map[string]any `json:"scripts"`
}

// workspaces accepts both the array form and the yarn object form
// `{"packages": [...]}`.
type workspaces []string

func (w *workspaces) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)

	if bytes.HasPrefix(b, []byte("[")) {
		var list []string
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}

		*w = list

		return nil
	}

	var obj struct {
		Packages []string `json:"packages"`
	}

	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}

	*w = obj.Packages

	return nil
}

type pnpmWorkspace struct {
	Packages []string `yaml:"packages"`
}

func readManifest(fs afero.Fs, file string) (*manifest, error) {
	b, err := afero.ReadFile(fs, file)
	if err != nil {
		return nil, err
	}

	m := new(manifest)
	if err := json.Unmarshal(b, m); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrInvalidManifest, file, err)
	}

	return m, nil
}

// Patterns returns the workspace patterns declared in cwd. It returns an empty list,
// and no error, when cwd declares none.
func Patterns(ctx context.Context, fs afero.Fs, cwd string) ([]string, error) {
	logger := ctxlog.Logger(ctx)

	m, err := readManifest(fs, filepath.Join(cwd, ManifestFile))

	switch {
	case err == nil && len(m.Workspaces) > 0:
		return m.Workspaces, nil
	case errors.Is(err, ErrInvalidManifest):
		logger.Warn("ignoring root manifest", "error", err)
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	b, err := afero.ReadFile(fs, filepath.Join(cwd, PnpmWorkspaceFile))
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("no workspace patterns found", "cwd", cwd)
		return []string{}, nil
	}

	if err != nil {
		return nil, err
	}

	var pw pnpmWorkspace
	if err := yaml.Unmarshal(b, &pw); err != nil {
		return nil, fmt.Errorf("%w in %s: %w", ErrInvalidPatterns, PnpmWorkspaceFile, err)
	}

	if pw.Packages == nil {
		return []string{}, nil
	}

	return pw.Packages, nil
}

// ParsePatterns parses a pattern list given on the command line: either a JSON array
// or a comma separated list.
func ParsePatterns(s string) ([]string, error) {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "[") {
		var list []string
		if err := json.Unmarshal([]byte(s), &list); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPatterns, err)
		}

		return list, nil
	}

	var out []string

	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out, nil
}

// declares reports whether the manifest defines a non-empty script.
func (m *manifest) declares(script string) bool {
	switch v := m.Scripts[script].(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	default:
		return true
	}
}

// ErrNoPatterns is returned by Find when no pattern is given or declared.
var ErrNoPatterns = errors.New("'patterns' is empty")

// Find returns the folders of cwd that declare script. The given patterns are used
// when not empty, otherwise the ones declared by the workspace.
func Find(ctx context.Context, fs afero.Fs, cwd, script string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		declared, err := Patterns(ctx, fs, cwd)
		if err != nil {
			return nil, err
		}

		patterns = declared
	}

	if len(patterns) == 0 {
		return nil, ErrNoPatterns
	}

	return ResolveFolders(ctx, fs, cwd, script, patterns)
}
