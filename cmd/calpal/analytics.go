package calpal

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rkeshri04/CalPal/internal/service"
)

var analyticsTimeframe string

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Summaries of spending and nutrition",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *appState) error {
			now := time.Now()
			entries, err := service.FilterTimeFrame(a.Store.Entries(), analyticsTimeframe, now)
			if err != nil {
				return err
			}
			s := service.Summarize(entries)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Logs: %d\n", s.TotalLogs)
			fmt.Fprintf(out, "Spent: $%.2f (avg $%.2f)\n", s.TotalSpent, s.AvgCost)
			fmt.Fprintf(out, "Weight: %.0fg (avg %.0fg)\n", s.TotalWeight, s.AvgWeight)
			fmt.Fprintf(out, "Calories: %.0f kcal (avg %.0f)\n", s.TotalCalories, s.AvgCalories)
			fmt.Fprintf(out, "Macros: %.0fg protein / %.0fg carbs / %.0fg fat\n", s.TotalProtein, s.TotalCarbs, s.TotalFat)
			if s.MostFrequentFood != "" {
				fmt.Fprintf(out, "Most frequent: %s\n", s.MostFrequentFood)
			}
			if s.MostRecent != nil {
				fmt.Fprintf(out, "Most recent: %s (%s)\n", s.MostRecent.Name, s.MostRecent.LocalDate)
			}

			weekSpent, weekWeight := service.WeeklyTotals(a.Store.Entries(), now)
			fmt.Fprintf(out, "Last 7 days: $%.2f spent, %.0fg eaten\n", weekSpent, weekWeight)
			return nil
		})
	},
}

func init() {
	analyticsCmd.Flags().StringVar(&analyticsTimeframe, "timeframe", "all", "Timeframe: 1d, 1w, 1m, or all")
	rootCmd.AddCommand(analyticsCmd)
}
