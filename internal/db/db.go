package db

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps the Postgres connection holding the run log.
type DB struct {
	conn *sql.DB
}

// Open connects to the Postgres database at dsn and verifies the
// connection. An empty dsn means run logging is disabled; callers
// check for that before calling Open.
func Open(dsn string) (*DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("open database: empty dsn")
	}
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Conn returns the underlying *sql.DB for advanced queries.
func (d *DB) Conn() *sql.DB {
	return d.conn
}

// Statements are applied one at a time; the pgx driver prepares each
// query, and prepared statements cannot hold multiple commands.
var schemaV1 = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (
		version    INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS runs (
		id            BIGSERIAL PRIMARY KEY,
		run_id        TEXT NOT NULL UNIQUE,
		ticket_key    TEXT NOT NULL,
		summary       TEXT NOT NULL DEFAULT '',
		success       BOOLEAN NOT NULL DEFAULT FALSE,
		branch_name   TEXT NOT NULL DEFAULT '',
		files         TEXT NOT NULL DEFAULT '[]',
		build_success BOOLEAN NOT NULL DEFAULT FALSE,
		tests_success BOOLEAN NOT NULL DEFAULT FALSE,
		pushed        BOOLEAN NOT NULL DEFAULT FALSE,
		pr_url        TEXT NOT NULL DEFAULT '',
		errors        TEXT NOT NULL DEFAULT '[]',
		started_at    TIMESTAMPTZ NOT NULL,
		finished_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_ticket_key ON runs(ticket_key)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_finished_at ON runs(finished_at DESC)`,
	`CREATE TABLE IF NOT EXISTS run_events (
		id         BIGSERIAL PRIMARY KEY,
		run_id     TEXT NOT NULL,
		ticket_key TEXT NOT NULL DEFAULT '',
		stage      TEXT NOT NULL,
		event      TEXT NOT NULL,
		detail     TEXT NOT NULL DEFAULT '',
		timestamp  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_run_events_run ON run_events(run_id)`,
	`CREATE INDEX IF NOT EXISTS idx_run_events_ticket ON run_events(ticket_key, timestamp DESC)`,
}

// Migrate applies the database schema.
func (d *DB) Migrate() error {
	var applied int
	err := d.conn.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = 1").Scan(&applied)
	if err == nil && applied > 0 {
		return nil
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schemaV1 {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement: %w", err)
		}
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (1)"); err != nil {
		return fmt.Errorf("mark schema applied: %w", err)
	}
	return tx.Commit()
}

// Reset drops all tables and re-applies the schema.
func (d *DB) Reset() error {
	for _, table := range []string{"run_events", "runs", "schema_version"} {
		if _, err := d.conn.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return d.Migrate()
}
