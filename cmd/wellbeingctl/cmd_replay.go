package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"example.com/wellbeing/internal/cache"
	"example.com/wellbeing/internal/replay"
	"example.com/wellbeing/internal/scoring"
)

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().Bool("json", false, "print the full result as JSON")
	replayCmd.Flags().Float64("alpha", scoring.DefaultAlpha, "smoothing weight of the newest day")
	replayCmd.Flags().String("cache", "", "SQLite cache file carried across replays")
}

var replayCmd = &cobra.Command{
	Use:   "replay <trace.yaml>",
	Short: "Run a recorded sensor trace through a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		alpha, _ := cmd.Flags().GetFloat64("alpha")
		cachePath, _ := cmd.Flags().GetString("cache")

		trace, err := replay.Load(args[0])
		if err != nil {
			return fmt.Errorf("load trace: %w", err)
		}

		opts := []replay.Option{replay.WithAlpha(alpha)}
		if cachePath != "" {
			store, err := cache.OpenSQLite(cmd.Context(), cachePath)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer store.Close()
			opts = append(opts, replay.WithCache(store))
		}

		res, err := replay.Run(cmd.Context(), trace, opts...)
		if err != nil {
			return fmt.Errorf("replay: %w", err)
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		fmt.Fprintf(out, "user %s, %d ticks\n\n", res.User, res.Ticks)
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "AT\tSEGMENT\tACTIVITY\tCONVERSATION\tLOCATION\tSLEEPING")
		for _, tn := range res.Transitions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n", tn.At.Format("15:04:05"), tn.Segment, tn.Activity, tn.Conversation, tn.Location, tn.Sleeping)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		m := res.Metrics
		fmt.Fprintf(out, "\nsleep %.2f h, active %.1f min, social %.1f min\n", m.SleepHours, m.PhysicalActivityMinutes, m.SocialInteractionMinutes)
		c := res.Scores.Current
		fmt.Fprintf(out, "scores: sleep %.1f, activity %.1f, social %.1f, overall %.1f\n", c.Sleep, c.PhysicalActivity, c.SocialInteraction, c.Overall)
		if res.Scores.IsUsingSampleData {
			fmt.Fprintln(out, "(no data recorded; showing sample history)")
		}
		return nil
	},
}
