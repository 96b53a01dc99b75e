package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/willard/internal/store"
)

func (m Model) selected() (store.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return store.Task{}, false
	}
	return m.tasks[m.cursor], true
}

func (m Model) updateTasks(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
		return m, nil
	case key.Matches(msg, keys.New):
		return m.openTaskForm()
	}

	t, ok := m.selected()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Start):
		if t.Completed || t.StartedAt != nil {
			return m, nil
		}
		tasks, at := m.store.Tasks(), m.now()
		return m, m.run("start", func(ctx context.Context) (string, error) {
			return fmt.Sprintf("Started %q", t.Title), tasks.MarkStarted(ctx, t.ID, at)
		})

	case key.Matches(msg, keys.Done):
		svc := m.svc
		return m, m.run("complete", func(ctx context.Context) (string, error) {
			l, err := svc.Complete(ctx, t.ID, 0, "")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Completed %q (%s focus)", t.Title, formatMinutes(l.FocusMinutes)), nil
		})

	case key.Matches(msg, keys.Reopen):
		if !t.Completed {
			return m, nil
		}
		svc := m.svc
		return m, m.run("reopen", func(ctx context.Context) (string, error) {
			return fmt.Sprintf("Reopened %q", t.Title), svc.Reopen(ctx, t.ID)
		})

	case key.Matches(msg, keys.Delete):
		tasks := m.store.Tasks()
		return m, m.run("delete", func(ctx context.Context) (string, error) {
			return fmt.Sprintf("Deleted %q", t.Title), tasks.Delete(ctx, t.ID)
		})
	}
	return m, nil
}

func (m Model) tasksView() string {
	w := m.width - 4

	open := 0
	for _, t := range m.tasks {
		if !t.Completed {
			open++
		}
	}
	title := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Tasks"), "  ",
		mutedStyle.Render(fmt.Sprintf("%d open, %d done", open, len(m.tasks)-open)),
	)

	rows := []string{title, ""}
	if !m.tutorialSeen {
		rows = append(rows, tipStyle.Render("n adds a task, s starts it, x completes it and o reopens it. Press g to hide this tip."), "")
	}

	if len(m.tasks) == 0 {
		rows = append(rows, mutedStyle.Render("  No tasks yet. Press n to add one."))
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	from, to := visibleRange(m.cursor, len(m.tasks), m.height-12)
	for i := from; i < to; i++ {
		rows = append(rows, m.renderTask(m.tasks[i], i == m.cursor))
	}
	if to-from < len(m.tasks) {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %d-%d of %d", from+1, to, len(m.tasks))))
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) renderTask(t store.Task, selected bool) string {
	cursor := "  "
	style := normalItemStyle
	if selected {
		cursor = "> "
		style = selectedItemStyle
	}

	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}
	line := style.Render(fmt.Sprintf("%s%s #%d ", cursor, check, t.ID))
	if t.Completed {
		line += doneItemStyle.Render(t.Title)
	} else {
		line += style.Render(t.Title)
	}

	var meta []string
	if t.DueAt != nil {
		meta = append(meta, mutedStyle.Render("due "+t.DueAt.Local().Format("Jan 02 15:04")))
	}
	if t.EstimateMinutes > 0 {
		meta = append(meta, accentStyle.Render("est "+formatMinutes(t.EstimateMinutes)))
	}
	now := m.now()
	switch {
	case t.IsOverdue(now):
		meta = append(meta, errorStyle.Render("OVERDUE"))
	case t.IsInProgress():
		meta = append(meta, warningStyle.Render("IN PROGRESS"))
	}
	if len(meta) > 0 {
		line += "  " + strings.Join(meta, "  ")
	}
	return line
}

// visibleRange returns the window of at most rows items that keeps cursor
// in view.
func visibleRange(cursor, n, rows int) (int, int) {
	if rows < 1 {
		rows = 1
	}
	if n <= rows {
		return 0, n
	}
	from := clamp(cursor-rows/2, 0, n-rows)
	return from, from + rows
}
