package calpal

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rkeshri04/CalPal/internal/model"
	"github.com/rkeshri04/CalPal/internal/service"
)

// How long before profile show nudges for fresh stats.
const statsRefreshInterval = 30 * 24 * time.Hour

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage body stats and BMI history",
}

var (
	profileAge      int
	profileHeightCm float64
	profileWeightKg float64
	profileFeet     float64
	profileInches   float64
	profileWeightLb float64
	profileUnits    string
)

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Record current body stats",
	Long:  "Record age, height, and weight. Metric flags are canonical; --feet/--inches/--weight-lb are converted on entry.",
	RunE: func(cmd *cobra.Command, args []string) error {
		heightCm := profileHeightCm
		if cmd.Flags().Changed("feet") || cmd.Flags().Changed("inches") {
			if cmd.Flags().Changed("height-cm") {
				return fmt.Errorf("use either --height-cm or --feet/--inches, not both")
			}
			heightCm = service.CmFromFeetInches(profileFeet, profileInches)
		}
		weightKg := profileWeightKg
		if cmd.Flags().Changed("weight-lb") {
			if cmd.Flags().Changed("weight-kg") {
				return fmt.Errorf("use either --weight-kg or --weight-lb, not both")
			}
			weightKg = service.KgFromLb(profileWeightLb)
		}

		return withApp(func(a *appState) error {
			profile, err := service.SubmitStats(a.Store, service.StatsInput{
				Age:        profileAge,
				HeightCm:   heightCm,
				WeightKg:   weightKg,
				UnitSystem: profileUnits,
				Now:        time.Now(),
			})
			if err != nil {
				return err
			}
			latest := profile.BmiHistory[len(profile.BmiHistory)-1]
			fmt.Fprintf(cmd.OutOrStdout(), "Saved stats. BMI %.2f (%d history entr%s)\n",
				latest.BMI, len(profile.BmiHistory), plural(len(profile.BmiHistory), "y", "ies"))
			return nil
		})
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current body stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *appState) error {
			p := a.Store.Profile()
			if p == nil {
				return fmt.Errorf("no profile yet; run `calpal profile set` first")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Age: %d\n", p.Age)
			if p.UnitSystem == model.UnitSystemUS {
				feet, inches := service.FeetInchesFromCm(p.Height)
				fmt.Fprintf(out, "Height: %d'%.1f\"\n", feet, inches)
				fmt.Fprintf(out, "Weight: %.1f lb\n", service.LbFromKg(p.Weight))
			} else {
				fmt.Fprintf(out, "Height: %.1f cm\n", p.Height)
				fmt.Fprintf(out, "Weight: %.1f kg\n", p.Weight)
			}
			if bmi, err := service.BMI(p.Weight, p.Height); err == nil {
				fmt.Fprintf(out, "BMI: %.2f\n", service.RoundBMI(bmi))
			}
			if service.ShouldPromptRefresh(p, time.Now(), statsRefreshInterval) {
				fmt.Fprintln(out, "Your stats are getting stale; run `calpal profile set` to refresh them.")
				if err := service.MarkPrompted(a.Store, time.Now()); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var profileHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show BMI history, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *appState) error {
			p := a.Store.Profile()
			if p == nil || len(p.BmiHistory) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No BMI history yet")
				return nil
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "DATE\tBMI\tWEIGHT\tHEIGHT")
			for _, e := range p.BmiHistory {
				fmt.Fprintf(out, "%s\t%.2f\t%.1fkg\t%.1fcm\n", e.Date, e.BMI, e.Weight, e.Height)
			}
			return nil
		})
	},
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func init() {
	profileSetCmd.Flags().IntVar(&profileAge, "age", 0, "Age in years")
	profileSetCmd.Flags().Float64Var(&profileHeightCm, "height-cm", 0, "Height in centimeters")
	profileSetCmd.Flags().Float64Var(&profileWeightKg, "weight-kg", 0, "Weight in kilograms")
	profileSetCmd.Flags().Float64Var(&profileFeet, "feet", 0, "Height feet component")
	profileSetCmd.Flags().Float64Var(&profileInches, "inches", 0, "Height inches component")
	profileSetCmd.Flags().Float64Var(&profileWeightLb, "weight-lb", 0, "Weight in pounds")
	profileSetCmd.Flags().StringVar(&profileUnits, "units", "", "Display units: us or metric")
	profileSetCmd.MarkFlagRequired("age")

	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileSetCmd, profileShowCmd, profileHistoryCmd)
}
