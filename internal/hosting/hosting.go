package hosting

import (
	"context"
	"fmt"

	"github.com/ticketsmith/ticketsmith/internal/config"
)

// PullRequest describes a pull request to open.
type PullRequest struct {
	Title string
	Body  string
	Head  string
	Base  string
}

// Host provides remote repository operations on the hosting service.
type Host interface {
	// CreateBranch creates name from base in owner/repo. A branch that
	// already exists is not an error.
	CreateBranch(ctx context.Context, owner, repo, name, base string) error
	// CreatePullRequest opens a pull request and returns its URL.
	CreatePullRequest(ctx context.Context, owner, repo string, pr PullRequest) (string, error)
}

// NewHost selects a hosting backend from configuration.
func NewHost(ctx context.Context, cfg config.GitHubConfig) (Host, error) {
	switch cfg.Backend {
	case "api":
		return NewAPIHost(ctx, cfg.Token), nil
	case "cli":
		return NewBridgeHost(&ExecRunner{}), nil
	case "stub":
		return NewStubHost(cfg.StubDir), nil
	default:
		return nil, fmt.Errorf("unknown github backend %q", cfg.Backend)
	}
}
