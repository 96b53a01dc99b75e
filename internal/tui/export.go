package tui

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/willard/internal/export"
	"github.com/sadopc/willard/internal/store"
)

var exportFormats = []string{"CSV", "JSON"}

func (m Model) renderExportPicker() string {
	rows := []string{titleStyle.Render("Export history"), ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == m.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(m.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.exportCursor > 0 {
			m.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.exportCursor < len(exportFormats)-1 {
			m.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		m.exportPicking = false
		return m, m.doExport(m.exportCursor)
	case key.Matches(msg, keys.Back):
		m.exportPicking = false
	}
	return m, nil
}

// doExport writes the whole completion history into exportDir.
func (m Model) doExport(format int) tea.Cmd {
	ctx, s, log := m.ctx, m.store, m.log
	date := m.now().Format("2006-01-02")
	dir := m.exportDir
	return func() tea.Msg {
		logs, err := s.CompletionLogs().List(ctx, store.CompletionFilter{})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		tasks, err := s.Tasks().List(ctx)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		byID := make(map[int64]*store.Task, len(tasks))
		for i := range tasks {
			byID[tasks[i].ID] = &tasks[i]
		}

		var path string
		if format == 0 {
			path = filepath.Join(dir, fmt.Sprintf("willard-history-%s.csv", date))
			err = export.HistoryToCSV(logs, byID, path)
		} else {
			path = filepath.Join(dir, fmt.Sprintf("willard-history-%s.json", date))
			err = export.HistoryToJSON(logs, byID, path)
		}
		if err != nil {
			log.WithError(err).WithField("path", path).Warn("export failed")
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path, count: len(logs)}
	}
}
