package generate

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/ticketsmith/ticketsmith/internal/config"
	"github.com/ticketsmith/ticketsmith/internal/prompt"
	"github.com/ticketsmith/ticketsmith/internal/ticket"
)

// OpenAIGenerator calls an OpenAI-compatible chat completion endpoint.
type OpenAIGenerator struct {
	llm     llms.Model
	workdir string
}

// NewOpenAIGenerator creates the API-backed generator.
func NewOpenAIGenerator(cfg config.GeneratorConfig, workdir string) (*OpenAIGenerator, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return &OpenAIGenerator{llm: llm, workdir: workdir}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, info *ticket.TicketInfo, existingPaths []string) (string, error) {
	user, err := buildPrompt(info, existingPaths, g.workdir)
	if err != nil {
		return "", err
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, prompt.System),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}
	resp, err := g.llm.GenerateContent(ctx, messages, llms.WithTemperature(0.1))
	if err != nil {
		return "", fmt.Errorf("generate code for %s: %w", info.Key, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("generate code for %s: empty response", info.Key)
	}
	return resp.Choices[0].Content, nil
}
