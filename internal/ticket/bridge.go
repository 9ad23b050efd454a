package ticket

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CmdRunner provides command execution. Interface for testing.
type CmdRunner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// ExecRunner runs jira CLI commands via exec.
type ExecRunner struct{}

func (r *ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "jira", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return strings.TrimSpace(string(out)), fmt.Errorf("jira %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// BridgeClient fetches tickets through the jira command line tool, for hosts
// where direct API access is unavailable but a configured CLI is.
type BridgeClient struct {
	cmd     CmdRunner
	baseURL string
}

// NewBridgeClient creates a CLI bridge backed fetcher. baseURL is optional
// and only used to compose browse URLs.
func NewBridgeClient(cmd CmdRunner, baseURL string) *BridgeClient {
	return &BridgeClient{cmd: cmd, baseURL: baseURL}
}

// Fetch retrieves a ticket by key via `jira issue view KEY --raw`, which
// prints the same JSON payload the REST API serves.
func (c *BridgeClient) Fetch(ctx context.Context, key string) (*TicketInfo, error) {
	out, err := c.cmd.Run(ctx, "issue", "view", key, "--raw")
	if err != nil {
		return nil, fmt.Errorf("fetch ticket %s: %w", key, err)
	}
	return decodeIssue([]byte(out), c.baseURL)
}
