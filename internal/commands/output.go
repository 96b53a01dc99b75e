package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/willard/internal/store"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6C63FF"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2ECC71"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F39C12"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

const dateTimeLayout = "2006-01-02 15:04"

func printTasks(w io.Writer, tasks []store.Task, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No tasks."))
		return
	}
	for _, t := range tasks {
		fmt.Fprintln(w, formatTask(t, now))
	}
}

func formatTask(t store.Task, now time.Time) string {
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "#%-4d %s %s", t.ID, check, t.Title)

	var meta []string
	if t.DueAt != nil {
		meta = append(meta, "due "+t.DueAt.Local().Format(dateTimeLayout))
	}
	if t.EstimateMinutes > 0 {
		meta = append(meta, fmt.Sprintf("est %s", formatMinutes(t.EstimateMinutes)))
	}
	if len(meta) > 0 {
		b.WriteString(mutedStyle.Render("  (" + strings.Join(meta, ", ") + ")"))
	}

	switch {
	case t.IsOverdue(now):
		b.WriteString("  " + errorStyle.Render("OVERDUE"))
	case t.IsInProgress():
		b.WriteString("  " + warningStyle.Render("IN PROGRESS"))
	}
	return b.String()
}

func formatMinutes(mins int) string {
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh%02dm", mins/60, mins%60)
}

// parseDue accepts a date, a date with time, or RFC 3339. A bare date is
// due at the end of that day.
func parseDue(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(dateTimeLayout, s, loc); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t.Add(24*time.Hour - time.Second), nil
	}
	return time.Time{}, usagef("invalid due date %q (want YYYY-MM-DD, \"YYYY-MM-DD HH:MM\" or RFC 3339)", s)
}
