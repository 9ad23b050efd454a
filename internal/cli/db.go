package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ticketsmith/ticketsmith/internal/config"
	"github.com/ticketsmith/ticketsmith/internal/db"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the Postgres run log",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the run log schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, cleanup, err := openConfiguredDB()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := database.Migrate(); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		cmd.Println("Schema is up to date.")
		return nil
	},
}

var dbResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate all tables (destructive)",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			cmd.Print("This drops all recorded runs and events. Type 'reset' to continue: ")
			line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if strings.TrimSpace(line) != "reset" {
				cmd.Println("Aborted.")
				return nil
			}
		}

		database, cleanup, err := openConfiguredDB()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := database.Reset(); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		cmd.Println("Database reset.")
		return nil
	},
}

func openConfiguredDB() (*db.DB, func(), error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.DSN == "" {
		return nil, nil, fmt.Errorf("database.dsn is not configured (set DATABASE_URL)")
	}
	database, err := db.Open(cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	return database, func() { database.Close() }, nil
}

func init() {
	dbResetCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbResetCmd)
}
