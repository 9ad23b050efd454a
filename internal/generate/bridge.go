package generate

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ticketsmith/ticketsmith/internal/prompt"
	"github.com/ticketsmith/ticketsmith/internal/ticket"
)

// CmdRunner provides one-shot command execution. Interface for testing.
type CmdRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands via exec.
type ExecRunner struct{}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return strings.TrimSpace(string(out)), fmt.Errorf("%s %s: %s: %w", name, strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// BridgeGenerator shells out to a local agent CLI for one-shot generation.
type BridgeGenerator struct {
	cmd     CmdRunner
	command string
	workdir string
}

// NewBridgeGenerator creates the CLI-backed generator. An empty command
// selects "claude".
func NewBridgeGenerator(cmd CmdRunner, command string, workdir string) *BridgeGenerator {
	if command == "" {
		command = "claude"
	}
	return &BridgeGenerator{cmd: cmd, command: command, workdir: workdir}
}

func (g *BridgeGenerator) Generate(ctx context.Context, info *ticket.TicketInfo, existingPaths []string) (string, error) {
	user, err := buildPrompt(info, existingPaths, g.workdir)
	if err != nil {
		return "", err
	}

	out, err := g.cmd.Run(ctx, g.command, "--print", prompt.System+"\n\n"+user)
	if err != nil {
		return "", fmt.Errorf("generate code for %s: %w", info.Key, err)
	}
	return out, nil
}
