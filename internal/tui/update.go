// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/monorun/internal/config"
	"github.com/matt-FFFFFF/monorun/internal/progress"
)

const helpText = "←/→ select · space stop/start · pgup/pgdn scroll · q quit · ctrl+c kill all"

// ProgressEventMsg wraps a progress event for the tea framework.
type ProgressEventMsg struct {
	Event progress.Event
}

// RunFinishedMsg tells the dashboard that the run has ended.
type RunFinishedMsg struct{}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements bubbletea.Model.Init.
func (m *Model) Init() tea.Cmd {
	return tick()
}

// Update implements bubbletea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if size := m.resize(); size.Cols > 0 {
			if err := m.ctrl.Resize(size); err != nil {
				m.message = err.Error()
			}
		}

		m.refresh()

		return m, nil

	case tickMsg:
		m.refresh()
		return m, tick()

	case ProgressEventMsg:
		if p, ok := m.index[msg.Event.Folder]; ok {
			p.status = msg.Event.Status
		}

		return m, nil

	case RunFinishedMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	m.message = ""

	if len(m.panes) == 0 {
		if msg.String() == "ctrl+c" {
			m.cancel()
		}

		return nil
	}

	switch msg.String() {
	case "left", "up", "h", "k", "shift+tab":
		m.selected = (m.selected - 1 + len(m.panes)) % len(m.panes)

	case "right", "down", "l", "j", "tab":
		m.selected = (m.selected + 1) % len(m.panes)

	case " ":
		p := m.panes[m.selected]

		var err error
		if p.status == progress.StatusRunning {
			err = m.ctrl.Stop(p.folder)
		} else {
			err = m.ctrl.Restart(p.folder)
		}

		if err != nil {
			m.message = err.Error()
		}

	case "pgup":
		v := &m.panes[m.selected].view
		v.SetYOffset(v.YOffset - max(v.Height/2, 1))

	case "pgdown":
		v := &m.panes[m.selected].view
		v.SetYOffset(v.YOffset + max(v.Height/2, 1))

	case "q", "esc":
		if m.anyRunning() {
			m.message = "tasks are still running, stop them or press ctrl+c"
			return nil
		}

		if err := m.ctrl.Quit(); err != nil {
			m.message = err.Error()
		}

	case "ctrl+c":
		m.stopping = true
		m.cancel()
	}

	return nil
}

// View implements bubbletea.Model.View.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	if m.width <= 0 || m.height <= 0 {
		return "starting...\n"
	}

	rendered := make([]string, 0, len(m.panes))
	for i, p := range m.panes {
		rendered = append(rendered, m.renderPane(p, i == m.selected))
	}

	var body string
	if m.layout == config.LayoutColumn {
		body = lipgloss.JoinVertical(lipgloss.Left, rendered...)
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	}

	return body + "\n" + m.footer()
}

func (m *Model) footer() string {
	switch {
	case m.stopping:
		return m.styles.Message.Render("killing all tasks...")
	case m.message != "":
		return m.styles.Message.Render(m.message)
	default:
		return m.styles.Help.Render(helpText)
	}
}

func (m *Model) renderPane(p *pane, selected bool) string {
	marker := " ○ "
	border := lipgloss.NormalBorder()

	if selected {
		marker = " ◉ "
		border = lipgloss.ThickBorder()
	}

	title := lipgloss.NewStyle().Foreground(p.colour).Render(marker+p.label) + " " + m.statusLabel(p.status)
	title = lipgloss.NewStyle().MaxWidth(p.view.Width).Render(title)

	content := title + "\n" + p.view.View()

	return lipgloss.NewStyle().
		Border(border).
		BorderForeground(p.colour).
		Width(p.view.Width).
		Height(p.view.Height + 1).
		MaxHeight(p.height).
		Render(strings.TrimRight(content, "\n"))
}

func (m *Model) statusLabel(s progress.Status) string {
	switch s {
	case progress.StatusRunning:
		return m.styles.Running.Render("⋯")
	case progress.StatusCompleted:
		return m.styles.Completed.Render("✓ Done")
	case progress.StatusError:
		return m.styles.Error.Render("⚠ Error")
	case progress.StatusKilled:
		return m.styles.Killed.Render("⊗ Killed")
	default:
		return m.styles.Pending.Render("pending")
	}
}
