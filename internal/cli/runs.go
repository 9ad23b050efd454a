package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ticketsmith/ticketsmith/internal/config"
	"github.com/ticketsmith/ticketsmith/internal/pipeline"
)

var runsCmd = &cobra.Command{
	Use:   "runs [ticket-key]",
	Short: "List recorded pipeline runs",
	Long: `List runs from the file-based run store, newest first. With a ticket key,
only that ticket's runs are shown; --latest prints just the most recent one
in full.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadDefault()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		store := pipeline.NewStore(cfg.RunsDir)

		limit, _ := cmd.Flags().GetInt("limit")
		format, _ := cmd.Flags().GetString("format")
		latest, _ := cmd.Flags().GetBool("latest")

		if latest {
			if len(args) == 0 {
				return fmt.Errorf("--latest requires a ticket key")
			}
			res, err := store.LatestResult(args[0])
			if err != nil {
				return err
			}
			if res == nil {
				return fmt.Errorf("no runs for %s", args[0])
			}
			if format == "json" {
				return writeJSON(cmd, res)
			}
			printSummary(cmd.OutOrStdout(), res)
			return nil
		}

		var results []pipeline.ProcessingResult
		if len(args) == 1 {
			results, err = store.ListResults(args[0])
			if err == nil && limit > 0 && len(results) > limit {
				results = results[:limit]
			}
		} else {
			results, err = store.ListAll(limit)
		}
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}

		if format == "json" {
			return writeJSON(cmd, results)
		}

		if len(results) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs found.")
			return nil
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-12s %-9s %-20s %-6s %-7s %-9s %s\n", "TICKET", "RESULT", "BRANCH", "FILES", "PUSHED", "DURATION", "FINISHED")
		fmt.Fprintf(w, "%-12s %-9s %-20s %-6s %-7s %-9s %s\n",
			strings.Repeat("-", 12),
			strings.Repeat("-", 9),
			strings.Repeat("-", 20),
			strings.Repeat("-", 6),
			strings.Repeat("-", 7),
			strings.Repeat("-", 9),
			strings.Repeat("-", 8))
		for _, res := range results {
			result := "ok"
			if !res.Success {
				result = "failed"
			}
			branch := res.BranchName
			if len(branch) > 20 {
				branch = branch[:17] + "..."
			}
			fmt.Fprintf(w, "%-12s %-9s %-20s %-6d %-7v %-9s %s\n",
				res.TicketKey, result, branch, len(res.FilesGenerated), res.Pushed,
				res.Duration().Round(time.Second), res.FinishedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "Maximum number of runs to list (0 = all)")
	runsCmd.Flags().Bool("latest", false, "Show only the most recent run for the ticket")
	runsCmd.Flags().String("format", "text", "Output format: text or json")
}
