package hosting

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// StubHost records remote operations as JSON files instead of calling a
// service. Useful for dry runs and tests.
type StubHost struct {
	dir string
}

// NewStubHost creates a host that writes operation records under dir.
func NewStubHost(dir string) *StubHost {
	return &StubHost{dir: dir}
}

type stubRecord struct {
	Op     string `json:"op"`
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Branch string `json:"branch,omitempty"`
	Base   string `json:"base,omitempty"`
	Title  string `json:"title,omitempty"`
	Body   string `json:"body,omitempty"`
}

func (h *StubHost) CreateBranch(ctx context.Context, owner, repo, name, base string) error {
	return h.record(stubRecord{Op: "create_branch", Owner: owner, Repo: repo, Branch: name, Base: base})
}

func (h *StubHost) CreatePullRequest(ctx context.Context, owner, repo string, pr PullRequest) (string, error) {
	rec := stubRecord{Op: "create_pr", Owner: owner, Repo: repo, Branch: pr.Head, Base: pr.Base, Title: pr.Title, Body: pr.Body}
	if err := h.record(rec); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://example.invalid/%s/%s/pull/1", owner, repo), nil
}

func (h *StubHost) record(r stubRecord) error {
	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return fmt.Errorf("create stub dir: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal stub record: %w", err)
	}

	name := fmt.Sprintf("%s-%d.json", r.Op, time.Now().UnixNano())
	if err := os.WriteFile(filepath.Join(h.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write stub record: %w", err)
	}
	return nil
}
