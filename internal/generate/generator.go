package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/ticketsmith/ticketsmith/internal/config"
	"github.com/ticketsmith/ticketsmith/internal/project"
	"github.com/ticketsmith/ticketsmith/internal/prompt"
	"github.com/ticketsmith/ticketsmith/internal/ticket"
)

// Generator produces raw code-generation output for a ticket. Callers parse
// the output with Parse.
type Generator interface {
	Generate(ctx context.Context, info *ticket.TicketInfo, existingPaths []string) (string, error)
}

// NewGenerator selects a generation backend from configuration. workdir is
// the target repository root, searched for a project-level prompt override.
func NewGenerator(cfg config.GeneratorConfig, workdir string) (Generator, error) {
	switch cfg.Backend {
	case "api":
		return NewOpenAIGenerator(cfg, workdir)
	case "cli":
		return NewBridgeGenerator(&ExecRunner{}, cfg.Command, workdir), nil
	case "stub":
		return NewStubGenerator(cfg.StubFile), nil
	default:
		return nil, fmt.Errorf("unknown generator backend %q", cfg.Backend)
	}
}

// buildPrompt renders the generation prompt for a ticket and the target
// repository's existing layout.
func buildPrompt(info *ticket.TicketInfo, existingPaths []string, workdir string) (string, error) {
	repoStructure := "New repository"
	if len(existingPaths) > 0 {
		repoStructure = strings.Join(existingPaths, "\n")
	}

	tmpl := prompt.LoadGeneration(workdir)
	rendered, err := prompt.Render(tmpl, prompt.Vars{
		"summary":             info.Summary,
		"description":         info.Description,
		"acceptance_criteria": info.AcceptanceCriteria,
		"repo_structure":      repoStructure,
		"project_kind":        project.Detect(workdir).Describe(),
	})
	if err != nil {
		return "", fmt.Errorf("render generation prompt: %w", err)
	}
	return rendered, nil
}
