package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) settingsView() string {
	w := m.width - 4

	rows := []string{titleStyle.Render("Settings"), ""}
	for _, s := range []struct {
		label string
		value string
	}{
		{"First launch", fmt.Sprintf("%t", m.firstLaunch)},
		{"Tips hidden", fmt.Sprintf("%t", m.tutorialSeen)},
		{"Default timer", formatMinutes(m.timerMinutes)},
	} {
		label := lipgloss.NewStyle().Width(24).Render(s.label)
		rows = append(rows, fmt.Sprintf("  %s %s", label, highlightStyle.Render(s.value)))
	}

	rows = append(rows, "", mutedStyle.Render("Press enter to change the timer length"))
	if !m.tutorialSeen {
		rows = append(rows, mutedStyle.Render("Press g to hide the tips"))
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
