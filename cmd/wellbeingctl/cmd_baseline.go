package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"example.com/wellbeing/internal/domain"
	"example.com/wellbeing/internal/scoring"
)

func init() {
	rootCmd.AddCommand(baselineCmd)
	baselineCmd.Flags().Int("days", scoring.SampleDays, "number of days to generate")
	baselineCmd.Flags().String("end", "", "last day of the history (YYYY-MM-DD, default today)")
	baselineCmd.Flags().Float64("alpha", scoring.DefaultAlpha, "smoothing weight of the newest day")
}

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Print the sample history shown before any real data exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		rawEnd, _ := cmd.Flags().GetString("end")
		alpha, _ := cmd.Flags().GetFloat64("alpha")
		if days <= 0 {
			return fmt.Errorf("--days must be positive")
		}
		if alpha <= 0 || alpha > 1 {
			return fmt.Errorf("--alpha must be in (0, 1]")
		}

		end := time.Now()
		if rawEnd != "" {
			parsed, err := time.ParseInLocation(domain.DateLayout, rawEnd, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}
			end = parsed
		}

		current, daily := scoring.SampleHistory(end, days, alpha)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tSLEEP\tACTIVITY\tSOCIAL")
		for _, d := range daily {
			fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%.1f\n", d.Date, d.Sleep, d.PhysicalActivity, d.SocialInteraction)
		}
		fmt.Fprintf(w, "current\t%.1f\t%.1f\t%.1f\n", current.Sleep, current.PhysicalActivity, current.SocialInteraction)
		fmt.Fprintf(w, "overall\t%.1f\t\t\n", current.Overall)
		return w.Flush()
	},
}
