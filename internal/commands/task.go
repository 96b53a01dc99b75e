package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/willard/internal/store"
)

func newTaskCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	cmd.AddCommand(
		newTaskAddCmd(rt),
		newTaskListCmd(rt),
		newTaskEditCmd(rt),
		newTaskRmCmd(rt),
		newTaskStartCmd(rt),
		newTaskOverdueCmd(rt),
	)
	return cmd
}

func newTaskAddCmd(rt *runtime) *cobra.Command {
	var (
		desc     string
		due      string
		estimate int
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := store.Task{
				Title:           strings.TrimSpace(strings.Join(args, " ")),
				Description:     desc,
				EstimateMinutes: estimate,
			}
			if due != "" {
				d, err := parseDue(due, time.Local)
				if err != nil {
					return err
				}
				t.DueAt = &d
			}

			s, err := rt.store(cmd.Context())
			if err != nil {
				return err
			}
			id, err := s.Tasks().Insert(cmd.Context(), t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s task #%d: %s\n", successStyle.Render("Created"), id, t.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&desc, "desc", "d", "", "description")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD or \"YYYY-MM-DD HH:MM\")")
	cmd.Flags().IntVarP(&estimate, "estimate", "e", 0, "estimated minutes")
	return cmd
}

func newTaskListCmd(rt *runtime) *cobra.Command {
	var open bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rt.store(cmd.Context())
			if err != nil {
				return err
			}
			tasks, err := s.Tasks().List(cmd.Context())
			if err != nil {
				return err
			}
			if open {
				filtered := tasks[:0]
				for _, t := range tasks {
					if !t.Completed {
						filtered = append(filtered, t)
					}
				}
				tasks = filtered
			}
			printTasks(cmd.OutOrStdout(), tasks, time.Now())
			return nil
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "only tasks that are not completed")
	return cmd
}

func newTaskEditCmd(rt *runtime) *cobra.Command {
	var (
		title    string
		desc     string
		due      string
		clearDue bool
		estimate int
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task",
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
			t, err := s.Tasks().GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if t == nil {
				return fmt.Errorf("task %d: %w", id, store.ErrNotFound)
			}

			flags := cmd.Flags()
			if flags.Changed("title") {
				t.Title = strings.TrimSpace(title)
			}
			if flags.Changed("desc") {
				t.Description = desc
			}
			if flags.Changed("estimate") {
				t.EstimateMinutes = estimate
			}
			if flags.Changed("due") {
				d, err := parseDue(due, time.Local)
				if err != nil {
					return err
				}
				t.DueAt = &d
			}
			if clearDue {
				t.DueAt = nil
			}

			if err := s.Tasks().Update(cmd.Context(), *t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s task #%d\n", successStyle.Render("Updated"), id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&desc, "desc", "d", "", "new description")
	cmd.Flags().StringVar(&due, "due", "", "new due date")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	cmd.Flags().IntVarP(&estimate, "estimate", "e", 0, "new estimate in minutes")
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	return cmd
}

func newTaskRmCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task (its completion history is kept)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := rt.store(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.Tasks().Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task #%d\n", id)
			return nil
		},
	}
}

func newTaskStartCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "start <id>",
		Short: "Mark a task as in progress",
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
			now := time.Now()
			if err := s.Tasks().MarkStarted(cmd.Context(), id, now); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started task #%d at %s\n", id, now.Format("15:04"))
			return nil
		},
	}
}

func newTaskOverdueCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List open tasks past their due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rt.store(cmd.Context())
			if err != nil {
				return err
			}
			now := time.Now()
			tasks, err := s.Tasks().GetOverdue(cmd.Context(), now)
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Nothing overdue."))
				return nil
			}
			printTasks(cmd.OutOrStdout(), tasks, now)
			return nil
		},
	}
}
