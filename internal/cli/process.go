package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ticketsmith/ticketsmith/internal/config"
	"github.com/ticketsmith/ticketsmith/internal/db"
	"github.com/ticketsmith/ticketsmith/internal/generate"
	"github.com/ticketsmith/ticketsmith/internal/gitops"
	"github.com/ticketsmith/ticketsmith/internal/hosting"
	"github.com/ticketsmith/ticketsmith/internal/notify"
	"github.com/ticketsmith/ticketsmith/internal/pipeline"
	"github.com/ticketsmith/ticketsmith/internal/ticket"
	"github.com/ticketsmith/ticketsmith/internal/validate"
)

var processCmd = &cobra.Command{
	Use:   "process <ticket-key>",
	Short: "Run the full pipeline for a ticket",
	Long: `Fetch the ticket, create a branch, generate code, write and commit the
files, and validate the project's build and tests. Unless --no-push is given,
the branch is pushed and a pull request is opened when github.create_pr is
enabled.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoPath, _ := cmd.Flags().GetString("repo")
		noPush, _ := cmd.Flags().GetBool("no-push")
		format, _ := cmd.Flags().GetString("format")

		// Progress goes to stderr when the result itself is the output.
		progress := cmd.OutOrStdout()
		if format == "json" {
			progress = cmd.ErrOrStderr()
		}

		proc, cleanup, err := newProcessor(cmd.Context(), progress, repoPath)
		if err != nil {
			return err
		}
		defer cleanup()

		res := proc.Process(cmd.Context(), args[0], !noPush)

		if format == "json" {
			if err := writeJSON(cmd, res); err != nil {
				return err
			}
		} else {
			printSummary(cmd.OutOrStdout(), res)
		}

		if !res.Success {
			return fmt.Errorf("processing %s failed", args[0])
		}
		return nil
	},
}

// newProcessor loads configuration, opens the run log when configured, and
// builds the collaborator stack. The cleanup closes the database.
func newProcessor(ctx context.Context, progress io.Writer, repoPath string) (*pipeline.Processor, func(), error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if repoPath != "" {
		cfg.Git.RepoPath = repoPath
	}

	database, cleanup, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}

	proc, err := buildProcessor(ctx, cfg, database, progress)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return proc, cleanup, nil
}

// buildProcessor wires the collaborator stack around an already-opened
// database (nil when no run log is configured).
func buildProcessor(ctx context.Context, cfg *config.Config, database *db.DB, progress io.Writer) (*pipeline.Processor, error) {
	fetcher, err := ticket.NewFetcher(cfg.Jira)
	if err != nil {
		return nil, fmt.Errorf("ticket backend: %w", err)
	}

	repo, err := gitops.Open(gitops.Options{
		Path:        cfg.Git.RepoPath,
		AuthorName:  cfg.Git.AuthorName,
		AuthorEmail: cfg.Git.AuthorEmail,
		Token:       cfg.GitHub.Token,
	})
	if err != nil {
		return nil, err
	}

	generator, err := generate.NewGenerator(cfg.Generator, cfg.Git.RepoPath)
	if err != nil {
		return nil, fmt.Errorf("generator backend: %w", err)
	}

	validator := validate.New(
		cfg.Git.RepoPath,
		time.Duration(cfg.Validator.TimeoutSeconds)*time.Second,
		&validate.ExecRunner{},
	)

	// The api backend without a token cannot reach the hosting service, so
	// remote branch fallback and PR creation are turned off rather than
	// failing mid-run.
	var host pipeline.Host
	if cfg.GitHub.Backend != "api" || cfg.GitHub.Token != "" {
		h, err := hosting.NewHost(ctx, cfg.GitHub)
		if err != nil {
			return nil, fmt.Errorf("hosting backend: %w", err)
		}
		host = h
	}

	return pipeline.NewProcessor(
		fetcher,
		repo,
		generator,
		validator,
		host,
		notify.New(cfg.Notify),
		pipeline.NewStore(cfg.RunsDir),
		database,
		cfg,
		progress,
	), nil
}

// openDatabase opens and migrates the run log when a DSN is configured.
// Without one it returns a nil database and a no-op cleanup.
func openDatabase(cfg *config.Config) (*db.DB, func(), error) {
	if cfg.Database.DSN == "" {
		return nil, func() {}, nil
	}
	database, err := db.Open(cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	return database, func() { database.Close() }, nil
}

func printSummary(w io.Writer, res *pipeline.ProcessingResult) {
	status := "succeeded"
	if !res.Success {
		status = "failed"
	}
	fmt.Fprintf(w, "\nRun %s %s in %s\n", res.RunID, status, res.Duration().Round(time.Second))
	if res.BranchName != "" {
		fmt.Fprintf(w, "  Branch: %s\n", res.BranchName)
	}
	if len(res.FilesGenerated) > 0 {
		fmt.Fprintf(w, "  Files:  %d generated\n", len(res.FilesGenerated))
	}
	fmt.Fprintf(w, "  Build:  %s\n", okOrFailed(res.BuildSuccess))
	fmt.Fprintf(w, "  Tests:  %s\n", okOrFailed(res.TestsSuccess))
	fmt.Fprintf(w, "  Pushed: %v\n", res.Pushed)
	if res.PRURL != "" {
		fmt.Fprintf(w, "  PR:     %s\n", res.PRURL)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(w, "  Error:  %s\n", e)
	}
}

func okOrFailed(passed bool) string {
	if passed {
		return "ok"
	}
	return "failed"
}

func init() {
	processCmd.Flags().Bool("no-push", false, "Leave the branch local; skip push and PR")
	processCmd.Flags().String("repo", "", "Path to the working-copy repository (defaults to git.repo_path)")
	processCmd.Flags().String("format", "text", "Output format: text or json")
}
