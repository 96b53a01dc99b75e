package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/willard/internal/export"
	"github.com/sadopc/willard/internal/store"
)

func newExportCmd(rt *runtime) *cobra.Command {
	var (
		format string
		out    string
		kind   string
		days   int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write completion history or daily progress to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			switch kind {
			case "history":
				if format != "csv" && format != "json" {
					return usagef("unknown format %q (csv or json)", format)
				}
				s, err := rt.store(ctx)
				if err != nil {
					return err
				}
				logs, err := s.CompletionLogs().List(ctx, store.CompletionFilter{})
				if err != nil {
					return err
				}
				tasks, err := s.Tasks().List(ctx)
				if err != nil {
					return err
				}
				byID := make(map[int64]*store.Task, len(tasks))
				for i := range tasks {
					byID[tasks[i].ID] = &tasks[i]
				}
				if format == "json" {
					err = export.HistoryToJSON(logs, byID, out)
				} else {
					err = export.HistoryToCSV(logs, byID, out)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d completions to %s\n", len(logs), out)

			case "progress":
				if format != "csv" {
					return usagef("progress can only be exported as csv")
				}
				svc, err := rt.app.Progress(ctx)
				if err != nil {
					return err
				}
				records, err := svc.LastDays(ctx, days)
				if err != nil {
					return err
				}
				if err := export.ProgressToCSV(records, out); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d days to %s\n", len(records), out)

			default:
				return usagef("unknown export kind %q (history or progress)", kind)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	cmd.Flags().StringVar(&kind, "kind", "history", "history or progress")
	cmd.Flags().IntVar(&days, "days", 30, "days of progress to export")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
