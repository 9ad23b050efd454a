package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "ticketsmith",
	Short: "Turn Jira tickets into validated pull requests",
	Long: `ticketsmith turns a Jira ticket into a reviewed branch: it fetches the
ticket, generates code with an LLM, writes and commits the files, validates
the project's build and tests, pushes the branch, and opens a pull request.

Configuration is read from ticketsmith.yaml (or ~/.ticketsmith/config.yaml);
credentials come from the environment. Run results are kept as JSON under the
configured runs directory, with an optional Postgres run log for analytics.`,
}

func Execute() error {
	return rootCmd.Execute()
}

// writeJSON prints v as indented JSON on the command's stdout.
func writeJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
}
