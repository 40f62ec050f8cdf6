package calpal

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rkeshri04/CalPal/internal/service"
	"github.com/rkeshri04/CalPal/internal/store"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Manage food log entries",
}

var (
	logName     string
	logCost     float64
	logWeight   float64
	logCalories float64
	logFat      float64
	logCarbs    float64
	logProtein  float64
	logBarcode  string
	logImage    string
)

var logAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a food log entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *appState) error {
			entry, err := service.NewEntry(service.NewEntryInput{
				Name:     logName,
				Barcode:  logBarcode,
				Image:    logImage,
				Cost:     logCost,
				Weight:   logWeight,
				Calories: optFloat(cmd, "calories", logCalories),
				Fat:      optFloat(cmd, "fat", logFat),
				Carbs:    optFloat(cmd, "carbs", logCarbs),
				Protein:  optFloat(cmd, "protein", logProtein),
				Now:      time.Now(),
			})
			if err != nil {
				return err
			}
			if err := a.Store.Add(entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %s (%s)\n", entry.Name, entry.ID)
			return nil
		})
	},
}

var (
	logListTimeframe string
	logListByDay     bool
)

var logListCmd = &cobra.Command{
	Use:   "list",
	Short: "List food log entries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *appState) error {
			entries, err := service.FilterTimeFrame(a.Store.Entries(), logListTimeframe, time.Now())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if logListByDay {
				for _, bucket := range service.GroupByLocalDate(entries) {
					fmt.Fprintf(out, "%s\n", bucket.LocalDate)
					for _, e := range bucket.Entries {
						fmt.Fprintf(out, "  %s\t%s\t$%.2f\t%.0fg\t%s kcal\n", e.ID, e.Name, e.Cost, e.Weight, fmtOpt(e.Calories))
					}
				}
				return nil
			}
			fmt.Fprintln(out, "ID\tDATE\tNAME\tCOST\tWEIGHT\tKCAL\tP\tC\tF")
			for _, e := range entries {
				fmt.Fprintf(out, "%s\t%s\t%s\t$%.2f\t%.0fg\t%s\t%s\t%s\t%s\n",
					e.ID, e.LocalDate, e.Name, e.Cost, e.Weight,
					fmtOpt(e.Calories), fmtOpt(e.Protein), fmtOpt(e.Carbs), fmtOpt(e.Fat))
			}
			return nil
		})
	},
}

var logUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update fields of an existing entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *appState) error {
			patch := store.Patch{
				Name:     optString(cmd, "name", logName),
				Image:    optString(cmd, "image", logImage),
				Barcode:  optString(cmd, "barcode", logBarcode),
				Cost:     optFloat(cmd, "cost", logCost),
				Weight:   optFloat(cmd, "weight", logWeight),
				Calories: optFloat(cmd, "calories", logCalories),
				Fat:      optFloat(cmd, "fat", logFat),
				Carbs:    optFloat(cmd, "carbs", logCarbs),
				Protein:  optFloat(cmd, "protein", logProtein),
			}
			if err := service.UpdateEntry(a.Store, args[0], patch); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated entry %s\n", args[0])
			return nil
		})
	},
}

var logRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *appState) error {
			if err := a.Store.Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed entry %s\n", args[0])
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{logAddCmd, logUpdateCmd} {
		c.Flags().StringVar(&logName, "name", "", "Food name")
		c.Flags().Float64Var(&logCost, "cost", 0, "Money spent")
		c.Flags().Float64Var(&logWeight, "weight", 0, "Weight in grams")
		c.Flags().Float64Var(&logCalories, "calories", 0, "Calories (kcal)")
		c.Flags().Float64Var(&logFat, "fat", 0, "Fat in grams")
		c.Flags().Float64Var(&logCarbs, "carbs", 0, "Carbs in grams")
		c.Flags().Float64Var(&logProtein, "protein", 0, "Protein in grams")
		c.Flags().StringVar(&logBarcode, "barcode", "", "Product barcode")
		c.Flags().StringVar(&logImage, "image", "", "Product image URL")
	}
	logAddCmd.MarkFlagRequired("name")

	logListCmd.Flags().StringVar(&logListTimeframe, "timeframe", "all", "Timeframe: 1d, 1w, 1m, or all")
	logListCmd.Flags().BoolVar(&logListByDay, "by-day", false, "Group entries by local day")

	rootCmd.AddCommand(logCmd)
	logCmd.AddCommand(logAddCmd, logListCmd, logUpdateCmd, logRemoveCmd)
}
