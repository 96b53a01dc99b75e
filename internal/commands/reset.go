package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCmd(rt *runtime) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all tasks, progress and history and restore default preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return usagef("reset deletes all data; pass --yes to confirm")
			}
			s, err := rt.store(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.Reset(cmd.Context()); err != nil {
				return err
			}
			if err := rt.app.Settings().Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), warningStyle.Render("All data deleted."))
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
