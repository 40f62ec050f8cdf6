package calpal

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rkeshri04/CalPal/internal/service"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Query nutrition providers without logging",
}

var (
	lookupProvider string
	lookupAPIKey   string
	lookupLimit    int
)

var lookupSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Free-text product search",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		for i, a := range args {
			if i > 0 {
				query += " "
			}
			query += a
		}
		return withDB(func(sqldb *sql.DB) error {
			name := lookupProvider
			if name == "" {
				stored, _, err := service.GetConfig(sqldb, service.ConfigLookupProvider)
				if err != nil {
					return err
				}
				name = stored
			}
			key, err := apiKeyFor(sqldb, name, lookupAPIKey)
			if err != nil {
				return err
			}
			results, err := service.SearchFoods(cmd.Context(), name, query, lookupLimit, service.LookupOptions{APIKey: key})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "NAME\tWEIGHT\tKCAL\tBARCODE")
			for _, d := range results {
				fmt.Fprintf(out, "%s\t%.0fg\t%s\t%s\n", d.Name, d.Weight, fmtOpt(d.Calories), d.Barcode)
			}
			return nil
		})
	},
}

var (
	purgeAll     bool
	purgeBarcode string
)

var lookupPurgeCmd = &cobra.Command{
	Use:   "purge-cache",
	Short: "Delete cached barcode lookups",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			affected, err := service.PurgeLookupCache(sqldb, lookupProvider, purgeBarcode, purgeAll)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d cached lookup(s)\n", affected)
			return nil
		})
	},
}

func init() {
	lookupCmd.PersistentFlags().StringVar(&lookupProvider, "provider", "", "Nutrition provider: openfoodfacts, usda, or spoonacular")
	lookupSearchCmd.Flags().StringVar(&lookupAPIKey, "api-key", "", "Provider API key (falls back to stored config)")
	lookupSearchCmd.Flags().IntVar(&lookupLimit, "limit", 10, "Maximum results")
	lookupPurgeCmd.Flags().BoolVar(&purgeAll, "all", false, "Purge the entire cache")
	lookupPurgeCmd.Flags().StringVar(&purgeBarcode, "barcode", "", "Purge one barcode")

	rootCmd.AddCommand(lookupCmd)
	lookupCmd.AddCommand(lookupSearchCmd, lookupPurgeCmd)
}
