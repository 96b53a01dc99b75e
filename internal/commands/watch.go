package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newWatchCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the task list every time it changes, until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := rt.store(ctx)
			if err != nil {
				return err
			}
			stream, err := s.Tasks().ObserveAll(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for tasks := range stream {
				now := time.Now()
				fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%s  %d tasks", now.Format(time.TimeOnly), len(tasks))))
				printTasks(out, tasks, now)
			}
			return nil
		},
	}
}
