// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"maps"
	"slices"
)

// Layout arranges the dashboard panes.
type Layout string

// Dashboard layouts.
const (
	LayoutRow    Layout = "row"    // panes stacked vertically
	LayoutColumn Layout = "column" // panes side by side
)

// ParseLayout returns the Layout named s.
func ParseLayout(s string) (Layout, error) {
	switch l := Layout(s); l {
	case LayoutRow, LayoutColumn:
		return l, nil
	default:
		return "", fmt.Errorf("%w: layout must be %q or %q, got %q", ErrInvalidValue, LayoutRow, LayoutColumn, s)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
