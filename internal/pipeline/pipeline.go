package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ticketsmith/ticketsmith/internal/config"
	"github.com/ticketsmith/ticketsmith/internal/db"
	"github.com/ticketsmith/ticketsmith/internal/generate"
	"github.com/ticketsmith/ticketsmith/internal/gitops"
	"github.com/ticketsmith/ticketsmith/internal/hosting"
	"github.com/ticketsmith/ticketsmith/internal/notify"
	"github.com/ticketsmith/ticketsmith/internal/ticket"
	"github.com/ticketsmith/ticketsmith/internal/validate"
)

// Fetcher retrieves ticket metadata by key.
type Fetcher interface {
	Fetch(ctx context.Context, key string) (*ticket.TicketInfo, error)
}

// Repo is the local working copy generated code is written into.
type Repo interface {
	Path() string
	CreateBranch(name, base string) error
	Stage(paths []string) (staged, skipped []string, err error)
	Commit(message string) (bool, error)
	Push(ctx context.Context, branch string) error
	ListPaths() ([]string, error)
}

// Generator produces raw code-generation output for a ticket.
type Generator interface {
	Generate(ctx context.Context, info *ticket.TicketInfo, existingPaths []string) (string, error)
}

// Validator runs the working copy's build and test processes.
type Validator interface {
	Validate(ctx context.Context) validate.Outcome
}

// Host manages branches and pull requests on the hosting service.
type Host interface {
	CreateBranch(ctx context.Context, owner, repo, name, base string) error
	CreatePullRequest(ctx context.Context, owner, repo string, pr hosting.PullRequest) (string, error)
}

// Notifier announces finished runs.
type Notifier interface {
	SendPRNotification(n notify.PRNotification) (bool, error)
}

// Processor drives a ticket through fetch, branch, generate, write,
// commit, validate, and push.
type Processor struct {
	fetcher   Fetcher
	repo      Repo
	generator Generator
	validator Validator
	host      Host     // nil when remote branch and PR operations are unavailable
	notifier  Notifier // nil disables notifications
	store     *Store
	database  *db.DB // nil disables the run log
	cfg       *config.Config
	out       io.Writer
}

// NewProcessor creates a Processor. host, notifier, store, and database
// may be nil; out defaults to io.Discard.
func NewProcessor(
	fetcher Fetcher,
	repo Repo,
	generator Generator,
	validator Validator,
	host Host,
	notifier Notifier,
	store *Store,
	database *db.DB,
	cfg *config.Config,
	out io.Writer,
) *Processor {
	if out == nil {
		out = io.Discard
	}
	return &Processor{
		fetcher:   fetcher,
		repo:      repo,
		generator: generator,
		validator: validator,
		host:      host,
		notifier:  notifier,
		store:     store,
		database:  database,
		cfg:       cfg,
		out:       out,
	}
}

// Process runs the full pipeline for a ticket key. Faults are recorded in
// the returned result rather than propagated; the method never panics.
// With pushEnabled false the branch stays local and no PR is opened.
func (p *Processor) Process(ctx context.Context, ticketKey string, pushEnabled bool) *ProcessingResult {
	res := &ProcessingResult{
		RunID:     uuid.New(),
		TicketKey: ticketKey,
		StartedAt: time.Now().UTC(),
	}

	defer func() {
		if r := recover(); r != nil {
			res.Success = false
			res.Errors = append(res.Errors, fmt.Sprintf("panic: %v", r))
			p.finish(res, "failed")
		}
	}()

	fmt.Fprintf(p.out, "Processing %s\n", ticketKey)
	p.logEvent(res, "run", "started", "")

	info, err := p.fetcher.Fetch(ctx, ticketKey)
	if err != nil {
		return p.fail(res, "fetch", fmt.Sprintf("fetch ticket %s: %v", ticketKey, err))
	}
	res.Summary = info.Summary
	fmt.Fprintf(p.out, "  fetched %s: %s\n", info.Key, info.Summary)
	p.logEvent(res, "fetch", "completed", info.Summary)

	branch := gitops.SanitizeBranch(ticketKey)
	if err := p.repo.CreateBranch(branch, p.cfg.Git.BaseBranch); err != nil {
		if p.host == nil {
			return p.fail(res, "branch", fmt.Sprintf("create branch %s: %v", branch, err))
		}
		owner, repoName := p.resolveRemote(info)
		remoteErr := p.host.CreateBranch(ctx, owner, repoName, branch, p.cfg.Git.BaseBranch)
		if remoteErr != nil {
			return p.fail(res, "branch", fmt.Sprintf(
				"create branch %s: %v; remote fallback on %s/%s: %v", branch, err, owner, repoName, remoteErr))
		}
		fmt.Fprintf(p.out, "  created branch %s on %s/%s (local checkout failed: %v)\n", branch, owner, repoName, err)
	}
	res.BranchName = branch
	fmt.Fprintf(p.out, "  on branch %s\n", branch)
	p.logEvent(res, "branch", "completed", branch)

	existing, err := p.repo.ListPaths()
	if err != nil {
		fmt.Fprintf(p.out, "  warning: list repo paths: %v\n", err)
		existing = nil
	}
	raw, err := p.generator.Generate(ctx, info, existing)
	if err != nil {
		return p.fail(res, "generate", fmt.Sprintf("generate code: %v", err))
	}
	if p.store != nil {
		_ = p.store.SaveRawOutput(ticketKey, res.RunID, raw)
	}
	files := generate.Parse(raw)
	res.FilesGenerated = files.Paths()
	fmt.Fprintf(p.out, "  generated %d file(s)\n", files.Len())
	p.logEvent(res, "generate", "completed", fmt.Sprintf("%d files", files.Len()))

	if err := p.writeFiles(files); err != nil {
		return p.fail(res, "write", err.Error())
	}
	p.logEvent(res, "write", "completed", "")

	staged, skipped, err := p.repo.Stage(files.Paths())
	if err != nil {
		return p.fail(res, "stage", fmt.Sprintf("stage files: %v", err))
	}
	for _, path := range skipped {
		fmt.Fprintf(p.out, "  warning: skipped missing file %s\n", path)
	}
	p.logEvent(res, "stage", "completed", fmt.Sprintf("%d staged, %d skipped", len(staged), len(skipped)))

	message := fmt.Sprintf("%s: %s\n\nGenerated code to fulfill acceptance criteria.", info.Key, info.Summary)
	committed, err := p.repo.Commit(message)
	if err != nil {
		return p.fail(res, "commit", fmt.Sprintf("commit: %v", err))
	}
	if !committed {
		fmt.Fprintln(p.out, "  no changes to commit")
	}
	p.logEvent(res, "commit", "completed", "")

	outcome := p.validator.Validate(ctx)
	res.BuildSuccess = outcome.Passed
	res.TestsSuccess = outcome.Passed
	if !outcome.Passed {
		res.Success = false
		res.Errors = append(res.Errors, outcome.Message)
		fmt.Fprintf(p.out, "  validation failed:\n%s\n", indent(outcome.Message))
		p.logEvent(res, "validate", "failed", outcome.Message)
		p.finish(res, "completed")
		return res
	}
	fmt.Fprintf(p.out, "  %s\n", outcome.Message)
	p.logEvent(res, "validate", "completed", "")

	if pushEnabled {
		if err := p.repo.Push(ctx, branch); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("push branch %s: %v", branch, err))
			fmt.Fprintf(p.out, "  warning: push failed: %v\n", err)
			p.logEvent(res, "push", "failed", err.Error())
		} else {
			res.Pushed = true
			fmt.Fprintf(p.out, "  pushed %s\n", branch)
			p.logEvent(res, "push", "completed", branch)
		}
	} else {
		fmt.Fprintln(p.out, "  push disabled, branch left local")
		p.logEvent(res, "push", "skipped", "push disabled")
	}

	if res.Pushed && p.cfg.GitHub.CreatePR && p.host != nil {
		p.createPullRequest(ctx, res, info)
	}
	if res.PRURL != "" && p.notifier != nil {
		p.sendNotification(res, info)
	}

	res.Success = true
	p.finish(res, "completed")
	return res
}

// writeFiles persists the generated files under the working copy root,
// creating parent directories as needed.
func (p *Processor) writeFiles(files *generate.FileSet) error {
	root := p.repo.Path()
	for _, rel := range files.Paths() {
		content, _ := files.Get(rel)
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", rel, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", rel, err)
		}
		fmt.Fprintf(p.out, "  wrote %s\n", rel)
	}
	return nil
}

func (p *Processor) createPullRequest(ctx context.Context, res *ProcessingResult, info *ticket.TicketInfo) {
	owner, repoName := p.resolveRemote(info)
	pr := hosting.PullRequest{
		Title: fmt.Sprintf("%s: %s", info.Key, info.Summary),
		Body:  prBody(info, res),
		Head:  res.BranchName,
		Base:  p.cfg.Git.BaseBranch,
	}
	url, err := p.host.CreatePullRequest(ctx, owner, repoName, pr)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("create pull request: %v", err))
		fmt.Fprintf(p.out, "  warning: create pull request: %v\n", err)
		p.logEvent(res, "pr", "failed", err.Error())
		return
	}
	res.PRURL = url
	fmt.Fprintf(p.out, "  opened pull request %s\n", url)
	p.logEvent(res, "pr", "completed", url)
}

func (p *Processor) sendNotification(res *ProcessingResult, info *ticket.TicketInfo) {
	sent, err := p.notifier.SendPRNotification(notify.PRNotification{
		TicketKey: info.Key,
		Summary:   info.Summary,
		PRURL:     res.PRURL,
		Branch:    res.BranchName,
		Files:     res.FilesGenerated,
		TicketURL: info.URL,
	})
	if err != nil {
		fmt.Fprintf(p.out, "  warning: notification: %v\n", err)
		p.logEvent(res, "notify", "failed", err.Error())
		return
	}
	if sent {
		fmt.Fprintln(p.out, "  notification sent")
		p.logEvent(res, "notify", "completed", "")
	}
}

// resolveRemote picks the hosting repo for remote operations: a repo link
// in the ticket description wins over the configured default.
func (p *Processor) resolveRemote(info *ticket.TicketInfo) (string, string) {
	if owner, name, ok := ticket.ExtractLinkedRepo(info.Description); ok {
		return owner, name
	}
	return p.cfg.GitHub.Owner, p.cfg.GitHub.Repo
}

// fail records a fatal stage fault and finishes the run.
func (p *Processor) fail(res *ProcessingResult, stage, msg string) *ProcessingResult {
	res.Success = false
	res.Errors = append(res.Errors, msg)
	fmt.Fprintf(p.out, "  %s failed: %s\n", stage, msg)
	p.logEvent(res, stage, "failed", msg)
	p.finish(res, "failed")
	return res
}

// finish stamps the end time and persists the result. Safe to call twice;
// the second call is a no-op so the panic handler cannot double-record.
func (p *Processor) finish(res *ProcessingResult, event string) {
	if !res.FinishedAt.IsZero() {
		return
	}
	res.FinishedAt = time.Now().UTC()
	p.logEvent(res, "run", event, "")
	if p.store != nil {
		if err := p.store.SaveResult(res); err != nil {
			fmt.Fprintf(p.out, "  warning: save result: %v\n", err)
		}
	}
	if p.database != nil {
		_ = p.database.InsertRun(&db.Run{
			RunID:        res.RunID.String(),
			TicketKey:    res.TicketKey,
			Summary:      res.Summary,
			Success:      res.Success,
			BranchName:   res.BranchName,
			Files:        res.FilesGenerated,
			BuildSuccess: res.BuildSuccess,
			TestsSuccess: res.TestsSuccess,
			Pushed:       res.Pushed,
			PRURL:        res.PRURL,
			Errors:       res.Errors,
			StartedAt:    res.StartedAt,
			FinishedAt:   res.FinishedAt,
		})
	}
}

func (p *Processor) logEvent(res *ProcessingResult, stage, event, detail string) {
	if p.database == nil {
		return
	}
	_ = p.database.LogRunEvent(res.RunID.String(), res.TicketKey, stage, event, detail)
}

func prBody(info *ticket.TicketInfo, res *ProcessingResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Automated code generation for %s.\n", info.Key)
	if info.URL != "" {
		fmt.Fprintf(&b, "\nTicket: %s\n", info.URL)
	}
	if len(res.FilesGenerated) > 0 {
		b.WriteString("\nFiles:\n")
		for _, f := range res.FilesGenerated {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	return b.String()
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "    " + line
	}
	return strings.Join(lines, "\n")
}
