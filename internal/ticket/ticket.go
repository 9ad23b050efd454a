package ticket

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ticketsmith/ticketsmith/internal/config"
)

// TicketInfo is an immutable snapshot of an issue-tracker ticket.
type TicketInfo struct {
	Key                string   `json:"key"`
	Summary            string   `json:"summary"`
	Description        string   `json:"description"`
	AcceptanceCriteria string   `json:"acceptance_criteria"`
	Status             string   `json:"status"`
	IssueType          string   `json:"issue_type"`
	Reporter           string   `json:"reporter,omitempty"`
	Assignee           string   `json:"assignee,omitempty"`
	Labels             []string `json:"labels,omitempty"`
	URL                string   `json:"url"`
}

// Fetcher fetches ticket metadata by key.
type Fetcher interface {
	Fetch(ctx context.Context, key string) (*TicketInfo, error)
}

// NewFetcher selects a ticket-fetch backend from configuration.
func NewFetcher(cfg config.JiraConfig) (Fetcher, error) {
	switch cfg.Backend {
	case "api":
		return NewJiraClient(cfg.BaseURL, cfg.Email, cfg.APIToken), nil
	case "cli":
		return NewBridgeClient(&ExecRunner{}, cfg.BaseURL), nil
	case "stub":
		return NewStubClient(cfg.StubDir), nil
	default:
		return nil, fmt.Errorf("unknown jira backend %q", cfg.Backend)
	}
}

// ExtractAcceptanceCriteria pulls an acceptance-criteria section out of a
// ticket description. A line mentioning "acceptance" or "criteria" opens the
// section; following non-blank lines are collected, trimmed, until the first
// blank line after content. When no section is found the whole description
// is returned so downstream consumers always have requirements to work from.
func ExtractAcceptanceCriteria(description string) string {
	if description == "" {
		return ""
	}

	var criteria []string
	inCriteria := false
	for _, line := range strings.Split(description, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "acceptance") || strings.Contains(lower, "criteria") {
			inCriteria = true
			continue
		}
		trimmed := strings.TrimSpace(line)
		switch {
		case inCriteria && trimmed != "":
			criteria = append(criteria, trimmed)
		case inCriteria && trimmed == "" && len(criteria) > 0:
			return strings.Join(criteria, "\n")
		}
	}

	if len(criteria) == 0 {
		return description
	}
	return strings.Join(criteria, "\n")
}

var repoLinkRe = regexp.MustCompile(`github\.com[/:]([\w-]+)/([\w-]+)`)

// ExtractLinkedRepo scans free text for a github.com/owner/repo reference.
// Absence of a link is not an error; ok reports whether one was found.
func ExtractLinkedRepo(text string) (owner, name string, ok bool) {
	m := repoLinkRe.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
