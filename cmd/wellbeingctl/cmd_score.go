package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"example.com/wellbeing/internal/domain"
	"example.com/wellbeing/internal/scoring"
)

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().Float64("sleep-hours", 0, "hours slept")
	scoreCmd.Flags().Float64("active-minutes", 0, "weighted active minutes")
	scoreCmd.Flags().Float64("social-minutes", 0, "minutes spent in conversation")
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Print the dimension scores for one day of metrics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sleep, _ := cmd.Flags().GetFloat64("sleep-hours")
		active, _ := cmd.Flags().GetFloat64("active-minutes")
		social, _ := cmd.Flags().GetFloat64("social-minutes")
		if sleep < 0 || active < 0 || social < 0 {
			return fmt.Errorf("metrics must not be negative")
		}

		metrics := domain.WellbeingMetrics{
			SleepHours:               sleep,
			PhysicalActivityMinutes:  active,
			SocialInteractionMinutes: social,
		}
		daily := scoring.DailyScores("", metrics)
		overall := (daily.Sleep + daily.PhysicalActivity + daily.SocialInteraction) / 3

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DIMENSION\tINPUT\tSCORE")
		fmt.Fprintf(w, "sleep\t%.1f h\t%.1f\n", sleep, daily.Sleep)
		fmt.Fprintf(w, "physical_activity\t%.1f min\t%.1f\n", active, daily.PhysicalActivity)
		fmt.Fprintf(w, "social_interaction\t%.1f min\t%.1f\n", social, daily.SocialInteraction)
		fmt.Fprintf(w, "overall\t\t%.1f\n", overall)
		return w.Flush()
	},
}
