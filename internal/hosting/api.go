package hosting

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// APIHost talks to the hosting service's REST API.
type APIHost struct {
	client *github.Client
}

// NewAPIHost creates an API-backed host authenticated with token.
func NewAPIHost(ctx context.Context, token string) *APIHost {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	return &APIHost{client: github.NewClient(tc)}
}

func (h *APIHost) CreateBranch(ctx context.Context, owner, repo, name, base string) error {
	baseRef, _, err := h.client.Git.GetRef(ctx, owner, repo, "heads/"+base)
	if err != nil {
		return fmt.Errorf("get base ref %s: %w", base, err)
	}

	newRef := &github.Reference{
		Ref:    github.String("refs/heads/" + name),
		Object: &github.GitObject{SHA: baseRef.Object.SHA},
	}
	if _, _, err := h.client.Git.CreateRef(ctx, owner, repo, newRef); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "already exists") {
			return nil
		}
		return fmt.Errorf("create branch %s: %w", name, err)
	}
	return nil
}

func (h *APIHost) CreatePullRequest(ctx context.Context, owner, repo string, pr PullRequest) (string, error) {
	base := pr.Base
	if base == "" {
		base = "main"
	}

	created, _, err := h.client.PullRequests.Create(ctx, owner, repo, &github.NewPullRequest{
		Title: github.String(pr.Title),
		Body:  github.String(pr.Body),
		Head:  github.String(pr.Head),
		Base:  github.String(base),
	})
	if err != nil {
		return "", fmt.Errorf("create pull request: %w", err)
	}
	return created.GetHTMLURL(), nil
}
