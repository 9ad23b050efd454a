package generate

import (
	"context"
	"fmt"
	"os"

	"github.com/ticketsmith/ticketsmith/internal/ticket"
)

// StubGenerator returns canned output from a file, for dry runs and tests.
type StubGenerator struct {
	file string
}

// NewStubGenerator creates a generator that replays the given file.
func NewStubGenerator(file string) *StubGenerator {
	return &StubGenerator{file: file}
}

func (g *StubGenerator) Generate(ctx context.Context, info *ticket.TicketInfo, existingPaths []string) (string, error) {
	data, err := os.ReadFile(g.file)
	if err != nil {
		return "", fmt.Errorf("read stub generation output: %w", err)
	}
	return string(data), nil
}
