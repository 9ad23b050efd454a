package gitops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// Options configures a Repo.
type Options struct {
	Path        string
	AuthorName  string
	AuthorEmail string
	// Token, when set, authenticates pushes over HTTPS.
	Token string
}

// Repo wraps a local git working copy with the operations the pipeline needs.
type Repo struct {
	repo *git.Repository
	opts Options
}

// Open opens the working copy at opts.Path.
func Open(opts Options) (*Repo, error) {
	r, err := git.PlainOpen(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", opts.Path, err)
	}
	if opts.AuthorName == "" {
		opts.AuthorName = "ticketsmith"
	}
	if opts.AuthorEmail == "" {
		opts.AuthorEmail = "ticketsmith@localhost"
	}
	return &Repo{repo: r, opts: opts}, nil
}

// Path returns the repository root on disk.
func (r *Repo) Path() string {
	return r.opts.Path
}

// CreateBranch checks out the named branch, creating it from base when it
// does not exist yet. An existing branch is checked out as-is, so re-running
// a ticket reuses its branch.
func (r *Repo) CreateBranch(name, base string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}

	branchRef := plumbing.NewBranchReferenceName(name)
	if _, err := r.repo.Reference(branchRef, true); err == nil {
		if err := wt.Checkout(&git.CheckoutOptions{Branch: branchRef}); err != nil {
			return fmt.Errorf("checkout existing branch %s: %w", name, err)
		}
		return nil
	}

	if err := wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(base)}); err != nil {
		return fmt.Errorf("checkout base branch %s: %w", base, err)
	}
	// Best-effort freshness; branching from a stale base is still valid.
	_ = wt.Pull(&git.PullOptions{RemoteName: "origin"})

	if err := wt.Checkout(&git.CheckoutOptions{Branch: branchRef, Create: true}); err != nil {
		return fmt.Errorf("create branch %s: %w", name, err)
	}
	return nil
}

// Stage adds the given paths to the index. Paths missing on disk are
// returned in skipped rather than failing the whole set.
func (r *Repo) Stage(paths []string) (staged, skipped []string, err error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, nil, fmt.Errorf("worktree: %w", err)
	}

	for _, p := range paths {
		if _, statErr := os.Stat(filepath.Join(r.opts.Path, filepath.FromSlash(p))); statErr != nil {
			skipped = append(skipped, p)
			continue
		}
		if _, addErr := wt.Add(p); addErr != nil {
			return staged, skipped, fmt.Errorf("stage %s: %w", p, addErr)
		}
		staged = append(staged, p)
	}
	return staged, skipped, nil
}

// Commit commits staged changes. It reports committed=false with no error
// when there is nothing staged and nothing untracked, the "no changes to
// commit" no-op.
func (r *Repo) Commit(message string) (bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("status: %w", err)
	}

	staged, untracked := 0, 0
	for _, fs := range status {
		switch {
		case fs.Staging == git.Untracked:
			untracked++
		case fs.Staging != git.Unmodified:
			staged++
		}
	}
	if staged == 0 && untracked == 0 {
		return false, nil
	}

	sig := &object.Signature{
		Name:  r.opts.AuthorName,
		Email: r.opts.AuthorEmail,
		When:  time.Now(),
	}
	_, err = wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	if errors.Is(err, git.ErrEmptyCommit) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// Push pushes the named branch to origin.
func (r *Repo) Push(ctx context.Context, branch string) error {
	refSpec := config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch))
	opts := &git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []config.RefSpec{refSpec},
	}
	if r.opts.Token != "" {
		opts.Auth = &githttp.BasicAuth{Username: "git", Password: r.opts.Token}
	}

	err := r.repo.PushContext(ctx, opts)
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("push branch %s: %w", branch, err)
	}
	return nil
}

// skipDirs are directory names never included in repository listings.
var skipDirs = map[string]bool{
	"__pycache__":  true,
	"node_modules": true,
}

// ListPaths lists the repository's files relative to its root, skipping dot
// files, dot directories, and dependency caches. The listing feeds the
// generation prompt so the model sees the existing layout.
func (r *Repo) ListPaths() ([]string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("worktree: %w", err)
	}

	var paths []string
	walkErr := util.Walk(wt.Filesystem, ".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == "." {
			return nil
		}
		name := info.Name()
		if info.IsDir() {
			if strings.HasPrefix(name, ".") || skipDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		paths = append(paths, filepath.ToSlash(path))
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk worktree: %w", walkErr)
	}

	sort.Strings(paths)
	return paths, nil
}
