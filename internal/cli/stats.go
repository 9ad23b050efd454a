package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ticketsmith/ticketsmith/internal/analytics"
	"github.com/ticketsmith/ticketsmith/internal/config"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show run statistics from the database",
	Long: `Aggregate the Postgres run log into an overview, per-stage durations,
weekly throughput, and failure counts by stage. Requires database.dsn.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadDefault()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cfg.Database.DSN == "" {
			return fmt.Errorf("stats requires database.dsn (or DATABASE_URL)")
		}

		database, cleanup, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		var since time.Time
		if days, _ := cmd.Flags().GetInt("days"); days > 0 {
			since = time.Now().AddDate(0, 0, -days)
		}

		overview, err := analytics.QueryOverview(database, since)
		if err != nil {
			return fmt.Errorf("overview: %w", err)
		}
		stages, err := analytics.QueryStageDurations(database, since)
		if err != nil {
			return fmt.Errorf("stage durations: %w", err)
		}
		weekly, err := analytics.QueryWeeklyThroughput(database, since)
		if err != nil {
			return fmt.Errorf("weekly throughput: %w", err)
		}
		failures, err := analytics.QueryStageFailures(database, since)
		if err != nil {
			return fmt.Errorf("stage failures: %w", err)
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "json" {
			return writeJSON(cmd, map[string]interface{}{
				"overview":          overview,
				"stage_durations":   stages,
				"weekly_throughput": weekly,
				"stage_failures":    failures,
			})
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Runs: %d across %d tickets, %.1f%% succeeded\n",
			overview.Runs, overview.Tickets, overview.SuccessPct)
		fmt.Fprintf(out, "Builds passed: %d  Tests passed: %d  Pushed: %d  PRs: %d\n\n",
			overview.BuildsPassed, overview.TestsPassed, overview.Pushed, overview.PRsCreated)

		if len(stages) > 0 {
			fmt.Fprintln(out, "Stage durations (seconds):")
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STAGE\tCOUNT\tAVG\tP50\tP95")
			for _, s := range stages {
				fmt.Fprintf(w, "%s\t%d\t%.1f\t%.1f\t%.1f\n", s.Stage, s.Count, s.Avg, s.P50, s.P95)
			}
			w.Flush()
			fmt.Fprintln(out)
		}

		if len(weekly) > 0 {
			fmt.Fprintln(out, "Weekly throughput:")
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WEEK\tRUNS\tOK\tFAILED\tSUCCESS")
			for _, wk := range weekly {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.1f%%\n", wk.Week, wk.Runs, wk.Succeeded, wk.Failed, wk.SuccessPct)
			}
			w.Flush()
			fmt.Fprintln(out)
		}

		if len(failures) > 0 {
			fmt.Fprintln(out, "Failures by stage:")
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STAGE\tCOUNT")
			for _, f := range failures {
				fmt.Fprintf(w, "%s\t%d\n", f.Stage, f.Count)
			}
			w.Flush()
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().Int("days", 0, "Restrict to the last N days (0 = all time)")
	statsCmd.Flags().String("format", "text", "Output format: text or json")
}
