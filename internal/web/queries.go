package web

import (
	"fmt"

	"github.com/ticketsmith/ticketsmith/internal/db"
)

// recentEvents returns the most recent run events across all tickets.
func (s *Server) recentEvents(limit int) ([]db.RunEvent, error) {
	rows, err := s.database.Conn().Query(
		`SELECT id, run_id, ticket_key, stage, event, detail, timestamp
		 FROM run_events ORDER BY id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	defer rows.Close()

	var events []db.RunEvent
	for rows.Next() {
		var e db.RunEvent
		if err := rows.Scan(&e.ID, &e.RunID, &e.TicketKey, &e.Stage, &e.Event, &e.Detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
