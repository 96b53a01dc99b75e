package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDoneCmd(rt *runtime) *cobra.Command {
	var (
		minutes int
		note    string
	)
	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Complete a task and record it in today's progress",
		Long: `Marks the task completed, appends an entry to its completion history and
adds it to today's progress. Focus time defaults to the configured timer length.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := rt.app.Progress(cmd.Context())
			if err != nil {
				return err
			}
			entry, err := svc.Complete(cmd.Context(), id, minutes, note)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s task #%d (%s focus)\n",
				successStyle.Render("Completed"), id, formatMinutes(entry.FocusMinutes))
			return nil
		},
	}
	cmd.Flags().IntVarP(&minutes, "minutes", "m", 0, "focus minutes (default: timer length)")
	cmd.Flags().StringVarP(&note, "note", "n", "", "note stored with the completion")
	return cmd
}

func newReopenCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "reopen <id>",
		Short: "Mark a completed task as open again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := rt.app.Progress(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.Reopen(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reopened task #%d\n", id)
			return nil
		},
	}
}
