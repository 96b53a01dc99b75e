package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/willard/internal/progress"
)

func newProgressCmd(rt *runtime) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show completed tasks and focus time per day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return usagef("--days must be positive")
			}
			svc, err := rt.app.Progress(cmd.Context())
			if err != nil {
				return err
			}
			records, err := svc.LastDays(cmd.Context(), days)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Last %d days", days)))
			for _, d := range records {
				line := fmt.Sprintf("%s  %3d tasks  %8s", d.Day, d.TasksCompleted, formatMinutes(d.FocusMinutes))
				if d.TasksCompleted == 0 {
					line = mutedStyle.Render(line)
				}
				fmt.Fprintln(out, line)
			}
			tasks, minutes := progress.Totals(records)
			fmt.Fprintf(out, "Total: %d tasks, %s focus. Streak: %d days\n",
				tasks, formatMinutes(minutes), progress.Streak(records))
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "number of days to show")
	return cmd
}

func newHistoryCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "history <task-id>",
		Short: "Show the completion history of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := rt.store(cmd.Context())
			if err != nil {
				return err
			}
			task, err := s.Tasks().GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			logs, err := s.CompletionLogs().ListForTask(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			title := "(deleted)"
			if task != nil {
				title = task.Title
			}
			fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("#%d %s", id, title)))
			if len(logs) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("Never completed."))
				return nil
			}
			for _, l := range logs {
				line := fmt.Sprintf("%s  %s", l.CompletedAt.Local().Format(time.DateTime), formatMinutes(l.FocusMinutes))
				if l.Note != "" {
					line += "  " + l.Note
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}
