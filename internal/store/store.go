// Package store persists a history of compile sessions to a local SQLite
// database — one row per run, recording what was compiled and the outcome,
// never the generated code itself. It exists so a user or an editor
// integration can ask "how has this file been compiling lately" without the
// compiler holding any state in memory across invocations.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Session is one recorded compile run.
type Session struct {
	ID         string
	SourceFile string
	StartedAt  time.Time
	Errors     int
	Warnings   int
	ExitCode   int
}

// Store wraps a SQLite-backed history table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: busy_timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		source_file TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		errors INTEGER NOT NULL,
		warnings INTEGER NOT NULL,
		exit_code INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts a completed session, assigning it a fresh id.
func (s *Store) Record(sourceFile string, errors, warnings, exitCode int) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		"INSERT INTO sessions (id, source_file, started_at, errors, warnings, exit_code) VALUES (?, ?, ?, ?, ?, ?)",
		id, sourceFile, time.Now(), errors, warnings, exitCode,
	)
	if err != nil {
		return "", fmt.Errorf("store: record session: %w", err)
	}
	return id, nil
}

// Recent returns the most recent sessions for sourceFile, newest first,
// bounded by limit.
func (s *Store) Recent(sourceFile string, limit int) ([]Session, error) {
	rows, err := s.db.Query(
		"SELECT id, source_file, started_at, errors, warnings, exit_code FROM sessions WHERE source_file = ? ORDER BY started_at DESC LIMIT ?",
		sourceFile, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("store: query recent: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.SourceFile, &sess.StartedAt, &sess.Errors, &sess.Warnings, &sess.ExitCode); err != nil {
			return nil, fmt.Errorf("store: scan session: %w", err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}
