// Package tui is the interactive board: the task list, a week of progress
// and the preferences, all redrawn from live store and settings streams.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/sadopc/willard/internal/app"
	"github.com/sadopc/willard/internal/progress"
	"github.com/sadopc/willard/internal/settings"
	"github.com/sadopc/willard/internal/store"
)

// Deps are the services the board reads from and writes to.
type Deps struct {
	Store     *store.Store
	Progress  *progress.Service
	Settings  settings.Repository
	Logger    logrus.FieldLogger
	ExportDir string
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx       context.Context
	store     *store.Store
	svc       *progress.Service
	prefs     settings.Repository
	log       logrus.FieldLogger
	now       func() time.Time
	exportDir string

	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	tasks  []store.Task
	cursor int

	firstLaunch  bool
	tutorialSeen bool
	timerMinutes int

	progress progressModel

	form       *huh.Form
	formKind   formKind
	formValues *formValues

	taskCh     <-chan []store.Task
	firstCh    <-chan bool
	tutorialCh <-chan bool
	timerCh    <-chan int

	help      help.Model
	status    string
	statusErr bool
}

// New subscribes to every stream the board renders. The subscriptions end
// when ctx is cancelled.
func New(ctx context.Context, d Deps) (Model, error) {
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	h := help.New()
	h.ShowAll = false

	snap := d.Settings.Snapshot()
	m := Model{
		ctx:          ctx,
		store:        d.Store,
		svc:          d.Progress,
		prefs:        d.Settings,
		log:          d.Logger.WithField("component", "tui"),
		now:          time.Now,
		exportDir:    d.ExportDir,
		activeView:   viewTasks,
		firstLaunch:  snap.FirstLaunch,
		tutorialSeen: snap.TutorialSeen,
		timerMinutes: snap.DefaultTimerMinutes,
		progress:     newProgressModel(d.Store.DailyProgress()),
		help:         h,
	}

	taskCh, err := d.Store.Tasks().ObserveAll(ctx)
	if err != nil {
		return Model{}, fmt.Errorf("observe tasks: %w", err)
	}
	m.taskCh = taskCh
	m.firstCh = d.Settings.IsFirstLaunch(ctx)
	m.tutorialCh = d.Settings.HasSeenTutorial(ctx)
	m.timerCh = d.Settings.DefaultTimerMinutes(ctx)

	if err := m.progress.subscribe(ctx, m.now()); err != nil {
		return Model{}, fmt.Errorf("observe progress: %w", err)
	}
	return m, nil
}

// Run opens the store through a and shows the board until the user quits
// or ctx is cancelled.
func Run(ctx context.Context, a *app.App) error {
	s, err := a.Store(ctx)
	if err != nil {
		return err
	}
	svc, err := a.Progress(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dir, err := os.UserHomeDir()
	if err != nil {
		dir = a.Config().DataDir
	}
	m, err := New(ctx, Deps{
		Store:     s,
		Progress:  svc,
		Settings:  a.Settings(),
		Logger:    a.Logger(),
		ExportDir: dir,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.waitTasks(),
		m.waitFirstLaunch(),
		m.waitTutorial(),
		m.waitTimer(),
		m.progress.wait(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Minute, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) waitTasks() tea.Cmd {
	return waitFor(m.taskCh, func(v []store.Task) tea.Msg { return tasksMsg(v) })
}

func (m Model) waitFirstLaunch() tea.Cmd {
	return waitFor(m.firstCh, func(v bool) tea.Msg { return firstLaunchMsg(v) })
}

func (m Model) waitTutorial() tea.Cmd {
	return waitFor(m.tutorialCh, func(v bool) tea.Msg { return tutorialSeenMsg(v) })
}

func (m Model) waitTimer() tea.Cmd {
	return waitFor(m.timerCh, func(v int) tea.Msg { return timerMinutesMsg(v) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.progress.setSize(m.width, m.height-4) // header + footer
		return m, nil

	case tasksMsg:
		m.tasks = msg
		m.cursor = clamp(m.cursor, 0, len(m.tasks)-1)
		return m, m.waitTasks()

	case daysMsg:
		if msg.gen != m.progress.gen {
			return m, nil
		}
		m.progress.setDays(msg.days)
		return m, m.progress.wait()

	case firstLaunchMsg:
		m.firstLaunch = bool(msg)
		return m, m.waitFirstLaunch()

	case tutorialSeenMsg:
		m.tutorialSeen = bool(msg)
		return m, m.waitTutorial()

	case timerMinutesMsg:
		m.timerMinutes = int(msg)
		return m, m.waitTimer()

	case streamClosedMsg:
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if store.DayKey(m.now()) != m.progress.today {
			if err := m.progress.subscribe(m.ctx, m.now()); err != nil {
				m.log.WithError(err).Warn("resubscribe progress window")
				m.status, m.statusErr = "Progress not updated: "+err.Error(), true
			} else {
				cmds = append(cmds, m.progress.wait())
			}
		}
		return m, tea.Batch(cmds...)

	case statusMsg:
		m.status = msg.text
		m.statusErr = msg.isError
		return m, nil

	case exportDoneMsg:
		m.status = fmt.Sprintf("Exported %d completions to %s", msg.count, msg.path)
		m.statusErr = false
		m.exportPicking = false
		return m, nil

	case tea.KeyMsg:
		if m.exportPicking {
			return m.updateExportPicker(msg)
		}
		if m.form != nil {
			return m.updateForm(msg)
		}
		if m.firstLaunch {
			return m.updateWelcome(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
			m.help.ShowAll = m.showHelp
			return m, nil
		case key.Matches(msg, keys.Export):
			m.exportPicking = true
			m.exportCursor = 0
			return m, nil
		case key.Matches(msg, keys.Timer):
			return m.openTimerForm()
		case key.Matches(msg, keys.GotIt):
			if !m.tutorialSeen {
				return m, m.hideTips()
			}
			return m, nil
		case key.Matches(msg, keys.Tab1):
			m.activeView = viewTasks
			return m, nil
		case key.Matches(msg, keys.Tab2):
			m.activeView = viewProgress
			return m, nil
		case key.Matches(msg, keys.Tab3):
			m.activeView = viewSettings
			return m, nil
		case key.Matches(msg, keys.Tab):
			m.activeView = (m.activeView + 1) % viewState(len(viewNames))
			return m, nil
		}
		return m.updateActiveView(msg)
	}

	// Forms also consume non-key messages such as cursor blinks.
	if m.form != nil {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) updateActiveView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.activeView {
	case viewTasks:
		return m.updateTasks(msg)
	case viewSettings:
		if key.Matches(msg, keys.Enter) {
			return m.openTimerForm()
		}
	}
	return m, nil
}

func (m Model) updateWelcome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Enter):
		prefs := m.prefs
		return m, m.run("finish onboarding", func(ctx context.Context) (string, error) {
			return "Welcome aboard", prefs.SetFirstLaunchCompleted(ctx)
		})
	}
	return m, nil
}

func (m Model) hideTips() tea.Cmd {
	prefs := m.prefs
	return m.run("hide tips", func(ctx context.Context) (string, error) {
		return "Tips hidden", prefs.SetTutorialSeen(ctx)
	})
}

// run performs a write off the UI loop and reports the outcome in the
// status line. The views refresh from their streams, not from the result.
func (m Model) run(action string, fn func(ctx context.Context) (string, error)) tea.Cmd {
	ctx, log := m.ctx, m.log
	return func() tea.Msg {
		text, err := fn(ctx)
		if err != nil {
			log.WithError(err).WithField("action", action).Warn("board action failed")
			return statusMsg{text: fmt.Sprintf("%s: %v", action, err), isError: true}
		}
		return statusMsg{text: text}
	}
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()

	var content string
	switch {
	case m.form != nil:
		content = m.formView()
	case m.firstLaunch:
		content = m.welcomeView()
	case m.exportPicking:
		content = m.renderExportPicker()
	default:
		switch m.activeView {
		case viewTasks:
			content = m.tasksView()
		case viewProgress:
			content = m.progress.view()
		case viewSettings:
			content = m.settingsView()
		}
	}

	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 1 {
		contentHeight = 1
	}
	content = lipgloss.NewStyle().
		Width(m.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (m Model) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == m.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("willard")
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (m Model) renderFooter() string {
	helpView := m.help.View(keys)

	today := ""
	if d, ok := m.progress.todayRecord(); ok {
		today = successStyle.Render(fmt.Sprintf(" ● %d done, %s today", d.TasksCompleted, formatMinutes(d.FocusMinutes)))
	}

	status := ""
	if m.status != "" {
		style := mutedStyle
		if m.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + m.status)
	}

	left := footerStyle.Render(helpView)
	right := today + status

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (m Model) welcomeView() string {
	rows := []string{
		titleStyle.Render("Welcome to willard"),
		"",
		subtitleStyle.Render("Plan your tasks, finish them, and watch the week fill up."),
		subtitleStyle.Render(fmt.Sprintf("Each completed task counts %s of focus unless you say otherwise.", formatMinutes(m.timerMinutes))),
		"",
		successStyle.Render("Press enter to get started"),
	}
	return activePanelStyle.Width(m.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
