package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/willard/internal/progress"
	"github.com/sadopc/willard/internal/store"
)

// progressModel follows the last chartDays days of progress. The window is
// fixed at subscription time and moved by subscribing again.
type progressModel struct {
	dao    *store.DailyProgressDAO
	ch     <-chan []store.DailyProgress
	cancel context.CancelFunc
	gen    int

	start time.Time
	today string
	days  []store.DailyProgress

	width  int
	height int
	chart  barchart.Model
}

func newProgressModel(dao *store.DailyProgressDAO) progressModel {
	return progressModel{
		dao:   dao,
		chart: barchart.New(60, 12),
	}
}

func (p *progressModel) setSize(w, h int) {
	p.width = w
	p.height = h
	p.buildChart()
}

// subscribe replaces the current window with the one ending at now.
func (p *progressModel) subscribe(ctx context.Context, now time.Time) error {
	start, end := progress.Window(now, chartDays)
	sub, cancel := context.WithCancel(ctx)
	ch, err := p.dao.ObserveRange(sub, start, end)
	if err != nil {
		cancel()
		return err
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.ch = ch
	p.cancel = cancel
	p.gen++
	p.start = start
	p.today = store.DayKey(now)
	p.setDays(nil)
	return nil
}

func (p progressModel) wait() tea.Cmd {
	gen := p.gen
	return waitFor(p.ch, func(v []store.DailyProgress) tea.Msg {
		return daysMsg{gen: gen, days: v}
	})
}

func (p *progressModel) setDays(days []store.DailyProgress) {
	p.days = progress.Dense(days, p.start, chartDays)
	p.buildChart()
}

func (p progressModel) todayRecord() (store.DailyProgress, bool) {
	if len(p.days) == 0 {
		return store.DailyProgress{}, false
	}
	last := p.days[len(p.days)-1]
	return last, last.Day == p.today
}

func (p *progressModel) buildChart() {
	chartWidth := p.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 10
	if p.height > 30 {
		chartHeight = 14
	}

	p.chart = barchart.New(chartWidth, chartHeight)

	bars := make([]barchart.BarData, 0, len(p.days))
	for i, d := range p.days {
		style := barStyle
		if d.TasksCompleted == 0 {
			style = emptyBarStyle
		}
		bars = append(bars, barchart.BarData{
			Label: p.start.AddDate(0, 0, i).Format("Mon 02"),
			Values: []barchart.BarValue{{
				Name:  "tasks",
				Value: float64(d.TasksCompleted),
				Style: style,
			}},
		})
	}

	p.chart.PushAll(bars)
	p.chart.Draw()
}

func (p progressModel) view() string {
	w := p.width - 4

	end := p.start.AddDate(0, 0, chartDays-1)
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s to %s", p.start.Format("Jan 02"), end.Format("Jan 02, 2006")))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom, titleStyle.Render("Progress"), "  ", dateLabel)

	tasks, minutes := progress.Totals(p.days)
	summary := highlightStyle.Render(fmt.Sprintf("  %d tasks, %s focus. Streak: %d days",
		tasks, formatMinutes(minutes), progress.Streak(p.days)))

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", p.chart.View(), "", p.renderTable(w), "", summary,
		),
	)
}

func (p progressModel) renderTable(w int) string {
	rows := []string{
		mutedStyle.Render(fmt.Sprintf("  %-12s %8s %10s", "Day", "Tasks", "Focus")),
		mutedStyle.Render("  " + strings.Repeat("─", clamp(w-6, 0, 32))),
	}
	for _, d := range p.days {
		row := fmt.Sprintf("  %-12s %8d %10s", d.Day, d.TasksCompleted, formatMinutes(d.FocusMinutes))
		if d.Day == p.today {
			row = selectedItemStyle.Render(row)
		}
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}
