package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newSettingsCmd(rt *runtime) *cobra.Command {
	show := func(cmd *cobra.Command, args []string) error {
		snap := rt.app.Settings().Snapshot()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "first launch:   %t\n", snap.FirstLaunch)
		fmt.Fprintf(out, "tutorial seen:  %t\n", snap.TutorialSeen)
		fmt.Fprintf(out, "timer minutes:  %d\n", snap.DefaultTimerMinutes)
		return nil
	}

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change preferences",
		Args:  cobra.NoArgs,
		RunE:  show,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show preferences",
			Args:  cobra.NoArgs,
			RunE:  show,
		},
		&cobra.Command{
			Use:   "timer <minutes>",
			Short: "Set the default timer length",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				minutes, err := strconv.Atoi(args[0])
				if err != nil {
					return usagef("invalid minutes %q", args[0])
				}
				if err := rt.app.Settings().SaveDefaultTimerMinutes(cmd.Context(), minutes); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Default timer set to %d minutes\n", minutes)
				return nil
			},
		},
		&cobra.Command{
			Use:   "tutorial-seen",
			Short: "Stop showing the tutorial hint",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := rt.app.Settings().SetTutorialSeen(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Tutorial marked as seen")
				return nil
			},
		},
		&cobra.Command{
			Use:   "onboarded",
			Short: "Stop showing the welcome screen",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := rt.app.Settings().SetFirstLaunchCompleted(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "First launch completed")
				return nil
			},
		},
	)
	return cmd
}
