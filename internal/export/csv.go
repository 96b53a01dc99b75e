package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/willard/internal/store"
)

// deletedTask names completion logs whose task no longer exists.
const deletedTask = "(deleted)"

func HistoryToCSV(logs []store.TaskCompletionLog, tasks map[int64]*store.Task, path string) error {
	return writeCSV(path,
		[]string{"ID", "Task ID", "Task", "Completed At", "Focus (min)", "Focus", "Note"},
		len(logs),
		func(i int) []string {
			l := logs[i]
			return []string{
				strconv.FormatInt(l.ID, 10),
				strconv.FormatInt(l.TaskID, 10),
				taskTitle(tasks, l.TaskID),
				l.CompletedAt.Local().Format(time.RFC3339),
				strconv.Itoa(l.FocusMinutes),
				formatMinutes(l.FocusMinutes),
				l.Note,
			}
		},
	)
}

func ProgressToCSV(days []store.DailyProgress, path string) error {
	return writeCSV(path,
		[]string{"Day", "Tasks Completed", "Focus (min)", "Focus"},
		len(days),
		func(i int) []string {
			d := days[i]
			return []string{
				d.Day,
				strconv.Itoa(d.TasksCompleted),
				strconv.Itoa(d.FocusMinutes),
				formatMinutes(d.FocusMinutes),
			}
		},
	)
}

func writeCSV(path string, header []string, n int, row func(int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func taskTitle(tasks map[int64]*store.Task, id int64) string {
	if t, ok := tasks[id]; ok && t != nil {
		return t.Title
	}
	return deletedTask
}

func formatMinutes(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}
