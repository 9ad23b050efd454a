package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ticketsmith/ticketsmith/internal/config"
	"github.com/ticketsmith/ticketsmith/internal/pipeline"
	"github.com/ticketsmith/ticketsmith/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web UI and JSON API",
	Long: `Start a browser UI on localhost showing run history, plus a JSON API for
runs, per-ticket timelines, stats, and triggering new runs.

The dashboard works from the file-based run store alone; the stats endpoints
and activity feed need database.dsn configured. POST /api/process/{key} runs
the same pipeline as the process command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadDefault()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Server.Addr
		}

		store := pipeline.NewStore(cfg.RunsDir)

		database, cleanup, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		// A broken collaborator stack (no git checkout, missing
		// credentials) only disables /api/process; the UI still serves.
		var runner web.Runner
		if proc, perr := buildProcessor(cmd.Context(), cfg, database, cmd.ErrOrStderr()); perr == nil {
			runner = proc
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "processing disabled: %v\n", perr)
		}

		return web.NewServer(store, database, runner, addr).Start()
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (defaults to server.addr, :8080)")
}
