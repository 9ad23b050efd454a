package ticket

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// StubClient serves tickets from JSON files in a directory, for offline runs
// and tests. Each file is named <KEY>.json and holds a TicketInfo.
type StubClient struct {
	dir string
}

// NewStubClient creates a file-backed fetcher rooted at dir.
func NewStubClient(dir string) *StubClient {
	return &StubClient{dir: dir}
}

// Fetch reads <dir>/<key>.json. A missing file is a fetch fault, same as an
// unknown ticket on a live backend.
func (c *StubClient) Fetch(_ context.Context, key string) (*TicketInfo, error) {
	path := filepath.Join(c.dir, key+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fetch ticket %s: %w", key, err)
	}

	var t TicketInfo
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse ticket %s: %w", key, err)
	}
	if t.Key == "" {
		t.Key = key
	}
	if t.AcceptanceCriteria == "" {
		t.AcceptanceCriteria = ExtractAcceptanceCriteria(t.Description)
	}
	return &t, nil
}
