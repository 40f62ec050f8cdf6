package calpal

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all logs and profile data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetForce {
			return fmt.Errorf("reset deletes all local data; re-run with --force to confirm")
		}
		return withApp(func(a *appState) error {
			a.Store.Clear()
			if err := a.Adapter.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All data deleted")
			return nil
		})
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "Confirm deletion")
	rootCmd.AddCommand(resetCmd)
}
