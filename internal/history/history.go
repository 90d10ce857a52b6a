// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/rigagent/internal/util"

	_ "modernc.org/sqlite"
)

const (
	// DefaultMaxRows caps how many actions the store retains before pruning
	DefaultMaxRows = 10000

	// maxStoredOutputRunes caps persisted tool output per action. The
	// in-memory ledger keeps the full output; the database keeps enough
	// to reconstruct what happened without ballooning on large reads.
	maxStoredOutputRunes = 4096
)

// Entry is one persisted tool-call action.
type Entry struct {
	ID        string
	SessionID string
	Tool      string
	ArgsJSON  string
	Output    string
	Succeeded bool
	Strategy  string
	Duration  time.Duration
	CreatedAt time.Time
}

// Store persists executed actions to a SQLite database. It survives across
// runs, so past sessions remain inspectable after the process exits.
//
// RELIABILITY: A single connection with WAL journaling avoids SQLITE_BUSY
// under the store's append-mostly workload.
type Store struct {
	mu        sync.Mutex
	db        *sql.DB
	path      string
	maxRows   int
	redactors []Redactor
}

// Open opens or creates the action history database at path.
// maxRows <= 0 falls back to DefaultMaxRows.
func Open(path string, maxRows int) (*Store, error) {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// PERFORMANCE: Single connection prevents SQLITE_BUSY on writes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{
		db:        db,
		path:      path,
		maxRows:   maxRows,
		redactors: defaultRedactors(),
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// initSchema creates tables and indexes if they don't exist.
func (s *Store) initSchema() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return err
	}
	if _, err := s.db.Exec(InitMetadata); err != nil {
		return err
	}
	return nil
}

// Record persists a single action. Output and arguments are redacted before
// they touch disk, and the table is pruned back to the row cap afterwards.
func (s *Store) Record(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return fmt.Errorf("history store is closed")
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	output := redactAll(s.redactors, e.Output)
	if util.RuneLen(output) > maxStoredOutputRunes {
		output = util.TruncateRunesNoEllipsis(output, maxStoredOutputRunes) + "\n... [truncated]"
	}
	argsJSON := redactAll(s.redactors, e.ArgsJSON)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO actions
			(id, session_id, tool, args_json, output, succeeded, strategy, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Tool, argsJSON, output,
		e.Succeeded, e.Strategy, e.Duration.Milliseconds(), e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert action: %w", err)
	}

	// Prune oldest rows beyond the cap. rowid breaks same-millisecond ties
	// in insertion order.
	_, err = tx.Exec(`
		DELETE FROM actions WHERE rowid NOT IN (
			SELECT rowid FROM actions ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`, s.maxRows)
	if err != nil {
		return fmt.Errorf("failed to prune actions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit action: %w", err)
	}

	return nil
}

// Recent returns the n most recent actions, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, fmt.Errorf("history store is closed")
	}
	if n <= 0 {
		n = 20
	}

	rows, err := s.db.Query(`
		SELECT id, session_id, tool, args_json, output, succeeded, strategy, duration_ms, created_at
		FROM actions ORDER BY created_at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// BySession returns up to n actions recorded under sessionID, newest first.
func (s *Store) BySession(sessionID string, n int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, fmt.Errorf("history store is closed")
	}
	if n <= 0 {
		n = 20
	}

	rows, err := s.db.Query(`
		SELECT id, session_id, tool, args_json, output, succeeded, strategy, duration_ms, created_at
		FROM actions WHERE session_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Count returns the total number of persisted actions.
func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return 0, fmt.Errorf("history store is closed")
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM actions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count actions: %w", err)
	}
	return count, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database. Further calls on the store fail.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// scanEntries reads all rows into entries.
func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMs, createdAt int64
		err := rows.Scan(&e.ID, &e.SessionID, &e.Tool, &e.ArgsJSON, &e.Output,
			&e.Succeeded, &e.Strategy, &durationMs, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.CreatedAt = time.UnixMilli(createdAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read actions: %w", err)
	}
	return entries, nil
}
