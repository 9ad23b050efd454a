package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Run represents a row in the runs table.
type Run struct {
	ID           int
	RunID        string
	TicketKey    string
	Summary      string
	Success      bool
	BranchName   string
	Files        []string
	BuildSuccess bool
	TestsSuccess bool
	Pushed       bool
	PRURL        string
	Errors       []string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// RunEvent represents a row in the run_events table.
type RunEvent struct {
	ID        int       `json:"id"`
	RunID     string    `json:"run_id"`
	TicketKey string    `json:"ticket_key"`
	Stage     string    `json:"stage"`
	Event     string    `json:"event"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const runColumns = `id, run_id, ticket_key, summary, success, branch_name, files,
	build_success, tests_success, pushed, pr_url, errors, started_at, finished_at`

// Files and errors are stored as JSON arrays in TEXT columns.
func encodeStringList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeStringList(raw string) []string {
	if raw == "" || raw == "[]" || raw == "null" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}

func scanRun(row interface{ Scan(...interface{}) error }) (*Run, error) {
	var r Run
	var files, errs string
	err := row.Scan(
		&r.ID, &r.RunID, &r.TicketKey, &r.Summary, &r.Success, &r.BranchName, &files,
		&r.BuildSuccess, &r.TestsSuccess, &r.Pushed, &r.PRURL, &errs, &r.StartedAt, &r.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Files = decodeStringList(files)
	r.Errors = decodeStringList(errs)
	return &r, nil
}

// InsertRun records a finished pipeline run.
func (d *DB) InsertRun(r *Run) error {
	err := d.conn.QueryRow(
		`INSERT INTO runs (run_id, ticket_key, summary, success, branch_name, files,
		                   build_success, tests_success, pushed, pr_url, errors, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id`,
		r.RunID, r.TicketKey, r.Summary, r.Success, r.BranchName, encodeStringList(r.Files),
		r.BuildSuccess, r.TestsSuccess, r.Pushed, r.PRURL, encodeStringList(r.Errors),
		r.StartedAt, r.FinishedAt,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetRun returns the run with the given run ID, or nil if absent.
func (d *DB) GetRun(runID string) (*Run, error) {
	row := d.conn.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = $1`, runID)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// GetLatestRunForTicket returns the most recent run for a ticket key, or nil if none.
func (d *DB) GetLatestRunForTicket(ticketKey string) (*Run, error) {
	row := d.conn.QueryRow(
		`SELECT `+runColumns+` FROM runs WHERE ticket_key = $1 ORDER BY id DESC LIMIT 1`,
		ticketKey,
	)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest run for %s: %w", ticketKey, err)
	}
	return r, nil
}

// ListRuns returns runs ordered newest first. A non-empty ticketKey narrows
// the list to that ticket; limit > 0 caps the number returned.
func (d *DB) ListRuns(ticketKey string, limit int) ([]Run, error) {
	query, args := listRunsQuery(ticketKey, limit)
	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

func listRunsQuery(ticketKey string, limit int) (string, []interface{}) {
	query := `SELECT ` + runColumns + ` FROM runs`
	args := []interface{}{}
	if ticketKey != "" {
		query += ` WHERE ticket_key = $1`
		args = append(args, ticketKey)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, limit)
	}
	return query, args
}

// LogRunEvent inserts a pipeline stage event for a run.
func (d *DB) LogRunEvent(runID, ticketKey, stage, event, detail string) error {
	_, err := d.conn.Exec(
		`INSERT INTO run_events (run_id, ticket_key, stage, event, detail) VALUES ($1, $2, $3, $4, $5)`,
		runID, ticketKey, stage, event, detail,
	)
	if err != nil {
		return fmt.Errorf("log run event: %w", err)
	}
	return nil
}

// GetRunEvents returns all events for a run in the order they were logged.
func (d *DB) GetRunEvents(runID string) ([]RunEvent, error) {
	rows, err := d.conn.Query(
		`SELECT id, run_id, ticket_key, stage, event, detail, timestamp
		 FROM run_events WHERE run_id = $1 ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("get run events: %w", err)
	}
	defer rows.Close()

	var events []RunEvent
	for rows.Next() {
		var e RunEvent
		if err := rows.Scan(&e.ID, &e.RunID, &e.TicketKey, &e.Stage, &e.Event, &e.Detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan run event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetTicketEvents returns events across all runs of a ticket, newest first.
func (d *DB) GetTicketEvents(ticketKey string) ([]RunEvent, error) {
	rows, err := d.conn.Query(
		`SELECT id, run_id, ticket_key, stage, event, detail, timestamp
		 FROM run_events WHERE ticket_key = $1 ORDER BY id DESC`,
		ticketKey,
	)
	if err != nil {
		return nil, fmt.Errorf("get ticket events: %w", err)
	}
	defer rows.Close()

	var events []RunEvent
	for rows.Next() {
		var e RunEvent
		if err := rows.Scan(&e.ID, &e.RunID, &e.TicketKey, &e.Stage, &e.Event, &e.Detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan ticket event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
