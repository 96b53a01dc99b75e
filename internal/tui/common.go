package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/willard/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTasks viewState = iota
	viewProgress
	viewSettings
)

var viewNames = []string{"Tasks", "Progress", "Settings"}

// chartDays is the width of the progress window, ending today.
const chartDays = 7

// --- Stream messages ---

type tasksMsg []store.Task

type daysMsg struct {
	gen  int
	days []store.DailyProgress
}

type firstLaunchMsg bool

type tutorialSeenMsg bool

type timerMinutesMsg int

// streamClosedMsg arrives once a subscription ends, either on quit or
// after the progress window moved to a new day.
type streamClosedMsg struct{}

// --- Other messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path  string
	count int
}

// waitFor reads the next value from ch and wraps it into a message.
func waitFor[T any](ch <-chan T, wrap func(T) tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return wrap(v)
	}
}

// --- Helpers ---

func formatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}

func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
