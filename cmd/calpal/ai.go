package calpal

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rkeshri04/CalPal/internal/provider/ai"
	"github.com/rkeshri04/CalPal/internal/service"
)

var aiCmd = &cobra.Command{
	Use:   "ai",
	Short: "Turn free-text food descriptions into log entries",
}

var (
	aiRestaurant string
	aiCost       float64
	aiNoLog      bool
)

var aiLogCmd = &cobra.Command{
	Use:   "log <description>",
	Short: "Describe what you ate and log it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description := strings.Join(args, " ")
		return withApp(func(a *appState) error {
			client := &ai.Client{}
			if endpoint, found, err := service.GetConfig(a.DB, service.ConfigAIEndpoint); err != nil {
				return err
			} else if found {
				client.Endpoint = endpoint
			}

			d, err := client.FoodFromText(cmd.Context(), description, aiRestaurant)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\t$%.2f\t%.0fg\t%s kcal\n", d.Name, d.Cost, d.Weight, fmtOpt(d.Calories))
			if aiNoLog {
				return nil
			}
			entry, err := service.EntryFromDescriptor(d, aiCost, time.Now())
			if err != nil {
				return err
			}
			if err := a.Store.Add(entry); err != nil {
				return err
			}
			fmt.Fprintf(out, "Logged %s (%s)\n", entry.Name, entry.ID)
			return nil
		})
	},
}

var aiRestaurantsCmd = &cobra.Command{
	Use:   "restaurants",
	Short: "List restaurants with bundled menus",
	Run: func(cmd *cobra.Command, args []string) {
		for _, id := range ai.Restaurants() {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
	},
}

func init() {
	aiLogCmd.Flags().StringVar(&aiRestaurant, "restaurant", "", "Restaurant id; bundles its menu as context")
	aiLogCmd.Flags().Float64Var(&aiCost, "cost", 0, "Money spent (overrides the AI estimate)")
	aiLogCmd.Flags().BoolVar(&aiNoLog, "no-log", false, "Parse only, do not add a log entry")

	rootCmd.AddCommand(aiCmd)
	aiCmd.AddCommand(aiLogCmd, aiRestaurantsCmd)
}
