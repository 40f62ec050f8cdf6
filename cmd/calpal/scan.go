package calpal

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rkeshri04/CalPal/internal/service"
)

var (
	scanProvider string
	scanAPIKey   string
	scanCost     float64
	scanFallback bool
	scanNoLog    bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <barcode>",
	Short: "Look up a barcode and log the product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *appState) error {
			candidates, err := lookupCandidates(a.DB, scanProvider, scanAPIKey, scanFallback)
			if err != nil {
				return err
			}
			result, err := service.LookupBarcodeWithFallback(cmd.Context(), a.DB, args[0], candidates)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			source := result.Provider
			if result.FromCache {
				source += " (cached)"
			}
			fmt.Fprintf(out, "%s\t%.0fg\t%s kcal\t[%s]\n", result.Name, result.Weight, fmtOpt(result.Calories), source)

			if scanNoLog {
				return nil
			}
			entry, err := service.EntryFromDescriptor(result.Descriptor, scanCost, time.Now())
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

func init() {
	scanCmd.Flags().StringVar(&scanProvider, "provider", "", "Nutrition provider: openfoodfacts, usda, or spoonacular")
	scanCmd.Flags().StringVar(&scanAPIKey, "api-key", "", "Provider API key (falls back to stored config)")
	scanCmd.Flags().Float64Var(&scanCost, "cost", 0, "Money spent on the product")
	scanCmd.Flags().BoolVar(&scanFallback, "fallback", false, "Try other providers when the first misses")
	scanCmd.Flags().BoolVar(&scanNoLog, "no-log", false, "Look up only, do not add a log entry")
	rootCmd.AddCommand(scanCmd)
}
