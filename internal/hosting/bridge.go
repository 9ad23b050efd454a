package hosting

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CmdRunner provides gh command execution. Interface for testing.
type CmdRunner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// ExecRunner runs gh commands via exec.
type ExecRunner struct{}

func (r *ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "gh", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return strings.TrimSpace(string(out)), fmt.Errorf("gh %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// BridgeHost drives the hosting service through the gh CLI.
type BridgeHost struct {
	cmd CmdRunner
}

// NewBridgeHost creates a CLI-backed host.
func NewBridgeHost(cmd CmdRunner) *BridgeHost {
	return &BridgeHost{cmd: cmd}
}

func (h *BridgeHost) CreateBranch(ctx context.Context, owner, repo, name, base string) error {
	slug := owner + "/" + repo

	sha, err := h.cmd.Run(ctx, "api", fmt.Sprintf("repos/%s/git/ref/heads/%s", slug, base), "--jq", ".object.sha")
	if err != nil {
		return fmt.Errorf("get base ref %s: %w", base, err)
	}

	_, err = h.cmd.Run(ctx, "api", fmt.Sprintf("repos/%s/git/refs", slug), "-f", "ref=refs/heads/"+name, "-f", "sha="+sha)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "already exists") {
			return nil
		}
		return fmt.Errorf("create branch %s: %w", name, err)
	}
	return nil
}

func (h *BridgeHost) CreatePullRequest(ctx context.Context, owner, repo string, pr PullRequest) (string, error) {
	args := []string{"pr", "create", "--repo", owner + "/" + repo, "--title", pr.Title, "--body", pr.Body, "--head", pr.Head}
	if pr.Base != "" {
		args = append(args, "--base", pr.Base)
	}

	out, err := h.cmd.Run(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("create PR: %w", err)
	}
	return out, nil
}
