package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/willard/internal/store"
)

type formKind int

const (
	formTask formKind = iota
	formTimer
)

// formValues are bound to the open form. Held by pointer so they survive
// the model being copied on every update.
type formValues struct {
	title    string
	desc     string
	estimate string
	minutes  string
}

func (m Model) openTaskForm() (tea.Model, tea.Cmd) {
	v := &formValues{}
	m.formValues = v
	m.formKind = formTask
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(&v.title).Validate(validateTitle),
			huh.NewText().Title("Description").Value(&v.desc),
			huh.NewInput().Title("Estimate (min)").Placeholder("optional").Value(&v.estimate).Validate(validateEstimate),
		).Title("New task"),
	).WithShowHelp(true).WithShowErrors(true)
	return m, m.form.Init()
}

func (m Model) openTimerForm() (tea.Model, tea.Cmd) {
	v := &formValues{minutes: strconv.Itoa(m.timerMinutes)}
	m.formValues = v
	m.formKind = formTimer
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Default timer (min)").Value(&v.minutes).Validate(validateMinutes),
		).Title("Timer"),
	).WithShowHelp(true).WithShowErrors(true)
	return m, m.form.Init()
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		m.form = nil
		m.formValues = nil
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		v := *m.formValues
		kind := m.formKind
		m.form = nil
		m.formValues = nil
		if kind == formTimer {
			return m, m.saveTimer(v)
		}
		return m, m.createTask(v)
	case huh.StateAborted:
		m.form = nil
		m.formValues = nil
		return m, nil
	}
	return m, cmd
}

func (m Model) formView() string {
	title := "New task"
	if m.formKind == formTimer {
		title = "Settings"
	}
	return panelStyle.Width(m.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", m.form.View()),
	)
}

func (m Model) createTask(v formValues) tea.Cmd {
	estimate, err := parseEstimate(v.estimate)
	if err != nil {
		return func() tea.Msg { return statusMsg{text: err.Error(), isError: true} }
	}
	t := store.Task{
		Title:           strings.TrimSpace(v.title),
		Description:     strings.TrimSpace(v.desc),
		EstimateMinutes: estimate,
	}
	tasks := m.store.Tasks()
	return m.run("add task", func(ctx context.Context) (string, error) {
		id, err := tasks.Insert(ctx, t)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Added task #%d", id), nil
	})
}

func (m Model) saveTimer(v formValues) tea.Cmd {
	minutes, err := strconv.Atoi(strings.TrimSpace(v.minutes))
	if err != nil {
		return func() tea.Msg { return statusMsg{text: "timer: not a number", isError: true} }
	}
	prefs := m.prefs
	return m.run("timer", func(ctx context.Context) (string, error) {
		return fmt.Sprintf("Default timer set to %s", formatMinutes(minutes)), prefs.SaveDefaultTimerMinutes(ctx, minutes)
	})
}

func validateTitle(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("title is required")
	}
	return nil
}

func validateEstimate(s string) error {
	_, err := parseEstimate(s)
	return err
}

func parseEstimate(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("estimate must be a whole number of minutes")
	}
	return n, nil
}

func validateMinutes(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return errors.New("enter a positive number of minutes")
	}
	return nil
}
