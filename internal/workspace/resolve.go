// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/matt-FFFFFF/monorun/internal/ctxlog"
	"github.com/spf13/afero"
)

const nodeModules = "node_modules"

// ErrNodeModulesGlobstar is returned when a node_modules pattern is combined with
// globstar patterns, which skip node_modules.
var ErrNodeModulesGlobstar = errors.New("an explicit node_modules package path does not allow globstars (**)")

// ResolveFolders returns the absolute, sorted folders matched by patterns whose
// manifest declares script.
//
// Patterns are relative to cwd unless absolute. A pattern starting with "!" removes
// the folders it matches. When any pattern contains a globstar, node_modules folders
// are never descended into. Hidden folders below the static part of a pattern are
// skipped. Manifests that cannot be parsed are logged and skipped.
func ResolveFolders(ctx context.Context, fs afero.Fs, cwd, script string, patterns []string) ([]string, error) {
	logger := ctxlog.Logger(ctx)

	globstar := slices.ContainsFunc(patterns, func(p string) bool {
		return strings.Contains(p, "**")
	})

	if globstar && slices.ContainsFunc(patterns, func(p string) bool {
		return strings.Contains(p, nodeModules)
	}) {
		return nil, ErrNodeModulesGlobstar
	}

	var include, exclude []string

	for _, p := range slices.Sorted(slices.Values(patterns)) {
		if neg, ok := strings.CutPrefix(p, "!"); ok {
			exclude = append(exclude, manifestGlob(cwd, neg))
			continue
		}

		include = append(include, manifestGlob(cwd, p))
	}

	seen := make(map[string]struct{})

	var folders []string

	for _, glob := range include {
		files, err := match(ctx, fs, glob, globstar)
		if err != nil {
			return nil, err
		}

		for _, file := range files {
			dir := filepath.Dir(file)
			if _, ok := seen[dir]; ok || excluded(exclude, file) {
				continue
			}

			seen[dir] = struct{}{}

			m, err := readManifest(fs, file)
			if err != nil {
				logger.Error("can't parse manifest", "file", file, "error", err)
				continue
			}

			if m.declares(script) {
				folders = append(folders, dir)
			}
		}
	}

	slices.Sort(folders)

	logger.Debug("resolved folders", "script", script, "patterns", patterns, "count", len(folders))

	return folders, nil
}

// manifestGlob turns a folder pattern into an absolute slash separated manifest glob.
func manifestGlob(cwd, pattern string) string {
	p := filepath.ToSlash(pattern)
	if !filepath.IsAbs(pattern) {
		p = path.Join(filepath.ToSlash(cwd), p)
	}

	return path.Join(p, ManifestFile)
}

func excluded(globs []string, file string) bool {
	name := filepath.ToSlash(file)

	for _, g := range globs {
		if ok, _ := doublestar.Match(g, name); ok {
			return true
		}
	}

	return false
}

func hasMeta(segment string) bool {
	return strings.ContainsAny(segment, "*?[{")
}

// match walks the static prefix of glob and returns the manifest files it matches.
func match(ctx context.Context, fs afero.Fs, glob string, skipNodeModules bool) ([]string, error) {
	segments := strings.Split(glob, "/")

	first := slices.IndexFunc(segments, hasMeta)
	if first < 0 {
		file := filepath.FromSlash(glob)
		if ok, err := afero.Exists(fs, file); err != nil || !ok {
			return nil, err
		}

		return []string{file}, nil
	}

	root := strings.Join(segments[:first], "/")
	if root == "" {
		root = "/"
	}

	// the number of folder levels below root a match can be at, or -1 for any
	depth := len(segments) - first - 1
	if slices.ContainsFunc(segments[first:], func(s string) bool { return strings.Contains(s, "**") }) {
		depth = -1
	}

	var files []string

	walkRoot := filepath.FromSlash(root)

	err := afero.Walk(fs, walkRoot, func(p string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if p == walkRoot && errors.Is(err, os.ErrNotExist) {
				return nil
			}

			return err
		}

		if info.IsDir() {
			if p == walkRoot {
				return nil
			}

			name := info.Name()
			if strings.HasPrefix(name, ".") || (skipNodeModules && name == nodeModules) {
				return filepath.SkipDir
			}

			if depth >= 0 {
				rel, err := filepath.Rel(walkRoot, p)
				if err != nil {
					return fmt.Errorf("failed to get relative path for %s: %w", p, err)
				}

				if strings.Count(filepath.ToSlash(rel), "/")+1 > depth {
					return filepath.SkipDir
				}
			}

			return nil
		}

		if info.Name() != ManifestFile {
			return nil
		}

		ok, err := doublestar.Match(glob, filepath.ToSlash(p))
		if err != nil {
			return fmt.Errorf("invalid pattern %s: %w", glob, err)
		}

		if ok {
			files = append(files, p)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list manifests with pattern %s: %w", glob, err)
	}

	return files, nil
}
