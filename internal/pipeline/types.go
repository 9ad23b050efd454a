package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// ProcessingResult is the terminal record of one ticket run.
type ProcessingResult struct {
	RunID          uuid.UUID `json:"run_id"`
	TicketKey      string    `json:"ticket_key"`
	Summary        string    `json:"summary,omitempty"`
	Success        bool      `json:"success"`
	BranchName     string    `json:"branch_name,omitempty"`
	FilesGenerated []string  `json:"files_generated,omitempty"`
	BuildSuccess   bool      `json:"build_success"`
	TestsSuccess   bool      `json:"tests_success"`
	Pushed         bool      `json:"pushed"`
	PRURL          string    `json:"pr_url,omitempty"`
	Errors         []string  `json:"errors,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// Duration returns the wall-clock time the run took.
func (r *ProcessingResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
