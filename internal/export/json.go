package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/willard/internal/store"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID           int64  `json:"id"`
	TaskID       int64  `json:"task_id"`
	Task         string `json:"task"`
	CompletedAt  string `json:"completed_at"`
	FocusMinutes int    `json:"focus_minutes"`
	Focus        string `json:"focus"`
	Note         string `json:"note,omitempty"`
}

func HistoryToJSON(logs []store.TaskCompletionLog, tasks map[int64]*store.Task, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(logs),
		Entries:    make([]jsonEntry, 0, len(logs)),
	}

	for _, l := range logs {
		export.Entries = append(export.Entries, jsonEntry{
			ID:           l.ID,
			TaskID:       l.TaskID,
			Task:         taskTitle(tasks, l.TaskID),
			CompletedAt:  l.CompletedAt.Local().Format(time.RFC3339),
			FocusMinutes: l.FocusMinutes,
			Focus:        formatMinutes(l.FocusMinutes),
			Note:         l.Note,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
