// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/monorun/internal/color"
	"github.com/matt-FFFFFF/monorun/internal/config"
	"github.com/matt-FFFFFF/monorun/internal/output"
	"github.com/matt-FFFFFF/monorun/internal/progress"
	"github.com/matt-FFFFFF/monorun/internal/ptyrun"
)

// RefreshInterval is how often pane contents are re-read from the display logs.
const RefreshInterval = 100 * time.Millisecond

const footerLines = 1

// Controller drives the run behind the dashboard. *orchestrator.Driver implements it.
type Controller interface {
	Stop(folder string) error
	Restart(folder string) error
	Quit() error
	Resize(size ptyrun.Size) error
	DisplayLog(folder string) *output.DisplayLog
	Color(folder string) color.Code
}

// pane is the dashboard state of one folder.
type pane struct {
	folder string
	label  string
	colour lipgloss.Color
	status progress.Status
	log    *output.DisplayLog
	view   viewport.Model
	width  int
	height int
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctrl   Controller
	cancel func()
	layout config.Layout

	panes    []*pane
	index    map[string]*pane
	selected int

	width    int
	height   int
	message  string
	stopping bool
	quitting bool

	styles *Styles
}

// Styles contains all the styling for the dashboard.
type Styles struct {
	Running   lipgloss.Style
	Completed lipgloss.Style
	Error     lipgloss.Style
	Killed    lipgloss.Style
	Pending   lipgloss.Style
	Help      lipgloss.Style
	Message   lipgloss.Style
}

// NewStyles creates the default styling for the dashboard.
func NewStyles() *Styles {
	return &Styles{
		Running: lipgloss.NewStyle(),
		Completed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("2")).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")),
		Killed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Pending: lipgloss.NewStyle().
			Faint(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Message: lipgloss.NewStyle().
			Foreground(lipgloss.Color("3")),
	}
}

// NewModel creates a dashboard over folders. cancel is called on ctrl+c and must
// end the run.
func NewModel(ctrl Controller, folders []string, layout config.Layout, cancel func()) *Model {
	if layout == "" {
		layout = config.LayoutRow
	}

	m := &Model{
		ctrl:   ctrl,
		cancel: cancel,
		layout: layout,
		index:  make(map[string]*pane, len(folders)),
		styles: NewStyles(),
	}

	for _, f := range folders {
		p := &pane{
			folder: f,
			label:  filepath.Base(f),
			colour: lipgloss.Color(strconv.Itoa(max(ctrl.Color(f).ANSI(), 0))),
			status: progress.StatusPending,
			log:    ctrl.DisplayLog(f),
			view:   viewport.New(0, 0),
		}

		m.panes = append(m.panes, p)
		m.index[f] = p
	}

	return m
}

// Selected returns the folder of the selected pane.
func (m *Model) Selected() string {
	if len(m.panes) == 0 {
		return ""
	}

	return m.panes[m.selected].folder
}

// Status returns the status shown for folder.
func (m *Model) Status(folder string) progress.Status {
	if p, ok := m.index[folder]; ok {
		return p.status
	}

	return progress.StatusPending
}

func (m *Model) anyRunning() bool {
	for _, p := range m.panes {
		if p.status == progress.StatusRunning {
			return true
		}
	}

	return false
}

// resize lays the panes out and returns the terminal size of a pane's content area.
func (m *Model) resize() ptyrun.Size {
	n := len(m.panes)
	if n == 0 || m.width <= 0 || m.height <= 0 {
		return ptyrun.Size{}
	}

	avail := max(m.height-footerLines, n)

	for i, p := range m.panes {
		switch m.layout {
		case config.LayoutColumn:
			p.width = m.width
			p.height = share(avail, n, i)
		default:
			p.width = share(m.width, n, i)
			p.height = avail
		}

		// border on each side, one line for the title
		p.view.Width = max(p.width-2, 1)
		p.view.Height = max(p.height-3, 1)
	}

	first := m.panes[0].view

	return ptyrun.Size{Cols: uint16(first.Width), Rows: uint16(first.Height)} //nolint:gosec
}

// share splits total into n parts, giving the remainder to the last part.
func share(total, n, i int) int {
	part := total / n
	if i == n-1 {
		return total - part*(n-1)
	}

	return part
}

// refresh copies the display logs into the viewports, following the tail of panes
// that are scrolled to the bottom.
func (m *Model) refresh() {
	for _, p := range m.panes {
		if p.log == nil {
			continue
		}

		follow := p.view.AtBottom() || p.view.TotalLineCount() == 0
		p.view.SetContent(p.log.String())

		if follow {
			p.view.GotoBottom()
		}
	}
}
