package ticket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// JiraClient fetches tickets from the Jira REST API using basic auth.
type JiraClient struct {
	baseURL string
	email   string
	token   string
	http    *http.Client
}

// NewJiraClient creates a REST API backed fetcher. baseURL is the Jira site
// root, e.g. https://example.atlassian.net.
func NewJiraClient(baseURL, email, token string) *JiraClient {
	return &JiraClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		email:   email,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch retrieves a ticket by key via GET /rest/api/2/issue/{key}.
func (c *JiraClient) Fetch(ctx context.Context, key string) (*TicketInfo, error) {
	url := fmt.Sprintf("%s/rest/api/2/issue/%s", c.baseURL, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", key, err)
	}
	req.SetBasicAuth(c.email, c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ticket %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch ticket %s: status %d: %s", key, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read ticket %s response: %w", key, err)
	}
	return decodeIssue(data, c.baseURL)
}

// issueJSON mirrors the Jira REST v2 issue payload, limited to the fields
// the pipeline consumes.
type issueJSON struct {
	Key    string `json:"key"`
	Fields struct {
		Summary     string `json:"summary"`
		Description string `json:"description"`
		Status      struct {
			Name string `json:"name"`
		} `json:"status"`
		IssueType struct {
			Name string `json:"name"`
		} `json:"issuetype"`
		Reporter *struct {
			DisplayName string `json:"displayName"`
		} `json:"reporter"`
		Assignee *struct {
			DisplayName string `json:"displayName"`
		} `json:"assignee"`
		Labels []string `json:"labels"`
	} `json:"fields"`
}

// decodeIssue converts a raw Jira issue payload into a TicketInfo.
func decodeIssue(data []byte, baseURL string) (*TicketInfo, error) {
	var issue issueJSON
	if err := json.Unmarshal(data, &issue); err != nil {
		return nil, fmt.Errorf("parse issue JSON: %w", err)
	}
	if issue.Key == "" {
		return nil, fmt.Errorf("issue JSON has no key")
	}

	t := &TicketInfo{
		Key:                issue.Key,
		Summary:            issue.Fields.Summary,
		Description:        issue.Fields.Description,
		AcceptanceCriteria: ExtractAcceptanceCriteria(issue.Fields.Description),
		Status:             issue.Fields.Status.Name,
		IssueType:          issue.Fields.IssueType.Name,
		Labels:             issue.Fields.Labels,
	}
	if issue.Fields.Reporter != nil {
		t.Reporter = issue.Fields.Reporter.DisplayName
	}
	if issue.Fields.Assignee != nil {
		t.Assignee = issue.Fields.Assignee.DisplayName
	}
	if baseURL != "" {
		t.URL = fmt.Sprintf("%s/browse/%s", strings.TrimRight(baseURL, "/"), issue.Key)
	}
	return t, nil
}
