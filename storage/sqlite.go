// Package storage provides SQLite conversation storage.
//
// Information Hiding:
// - SQLite connection management hidden behind interface
// - Schema and migration details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/richinex/llao1/llm"
	"github.com/richinex/llao1/model"
)

// SqliteStorage implements Store using SQLite.
// Stores conversation history and finished runs in a SQLite database file.
// Thread-safe: sql.DB handles connection pooling and concurrent access.
type SqliteStorage struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStorage, error) {
	// Create parent directory if needed
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStorage, error) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// Close closes the database connection.
func (s *SqliteStorage) Close() error {
	return s.db.Close()
}

func (s *SqliteStorage) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
		);

		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			message_index INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			images TEXT,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE,
			UNIQUE(session_id, message_index)
		);

		CREATE INDEX IF NOT EXISTS idx_messages_session
		ON messages(session_id, message_index);

		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			session_id TEXT,
			query TEXT NOT NULL,
			elapsed_ns INTEGER NOT NULL,
			tokens INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_runs_session
		ON runs(session_id, created_at DESC);

		CREATE TABLE IF NOT EXISTS steps (
			run_id TEXT NOT NULL,
			step_index INTEGER NOT NULL,
			label TEXT NOT NULL,
			content TEXT NOT NULL,
			elapsed_ns INTEGER NOT NULL,
			tool TEXT,
			tool_input TEXT,
			tool_result TEXT,
			PRIMARY KEY (run_id, step_index),
			FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
		);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *SqliteStorage) ensureSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO sessions (session_id) VALUES (?)",
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure session: %w", err)
	}
	return nil
}

// Save saves conversation history for a session.
func (s *SqliteStorage) Save(ctx context.Context, sessionID string, history []llm.ChatMessage) error {
	if err := s.ensureSession(ctx, sessionID); err != nil {
		return err
	}

	// Start transaction
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// defer tx.Rollback() is safe even after Commit() - it becomes a no-op
	defer func() { _ = tx.Rollback() }()

	// Clear existing messages for this session
	_, err = tx.ExecContext(ctx, "DELETE FROM messages WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("failed to clear old messages: %w", err)
	}

	// Insert all messages
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO messages (session_id, message_index, role, content, images) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for i, msg := range history {
		var images interface{}
		if len(msg.Images) > 0 {
			raw, err := json.Marshal(msg.Images)
			if err != nil {
				return fmt.Errorf("failed to encode images: %w", err)
			}
			images = string(raw)
		}
		_, err = stmt.ExecContext(ctx, sessionID, i, msg.Role, msg.Content, images)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	// Update session timestamp
	_, err = tx.ExecContext(ctx,
		"UPDATE sessions SET updated_at = strftime('%Y-%m-%d %H:%M:%f', 'now') WHERE session_id = ?",
		sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session timestamp: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Load loads conversation history for a session.
// Returns empty slice if session doesn't exist.
func (s *SqliteStorage) Load(ctx context.Context, sessionID string) ([]llm.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT role, content, images FROM messages WHERE session_id = ? ORDER BY message_index ASC",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []llm.ChatMessage{} // Start with empty slice, not nil
	for rows.Next() {
		var msg llm.ChatMessage
		var images sql.NullString
		if err := rows.Scan(&msg.Role, &msg.Content, &images); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if images.Valid {
			if err := json.Unmarshal([]byte(images.String), &msg.Images); err != nil {
				return nil, fmt.Errorf("failed to decode images: %w", err)
			}
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// Delete deletes conversation history and runs for a session.
func (s *SqliteStorage) Delete(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete runs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListSessions lists all session IDs, most recently updated first.
func (s *SqliteStorage) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT session_id FROM sessions ORDER BY updated_at DESC, rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []string{} // Start with empty slice, not nil
	for rows.Next() {
		var sessionID string
		if err := rows.Scan(&sessionID); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sessionID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// Exists checks if a session exists.
func (s *SqliteStorage) Exists(ctx context.Context, sessionID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE session_id = ?",
		sessionID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}

	return count > 0, nil
}

// RunStorage implementation

// SaveRun stores a finished run and its step records in one transaction.
func (s *SqliteStorage) SaveRun(ctx context.Context, run Run) (string, error) {
	run = prepareRun(run)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var sessionID interface{}
	if run.SessionID != "" {
		sessionID = run.SessionID
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (run_id, session_id, query, elapsed_ns, tokens, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, sessionID, run.Query, int64(run.Elapsed), run.Tokens, run.CreatedAt.UnixNano())
	if err != nil {
		return "", fmt.Errorf("failed to store run: %w", err)
	}

	// a replaced run keeps none of its previous steps
	if _, err := tx.ExecContext(ctx, "DELETE FROM steps WHERE run_id = ?", run.ID); err != nil {
		return "", fmt.Errorf("failed to clear old steps: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO steps (run_id, step_index, label, content, elapsed_ns, tool, tool_input, tool_result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for i, step := range run.Steps {
		_, err := stmt.ExecContext(ctx, run.ID, i, step.Label, step.Content, int64(step.Elapsed),
			nullable(step.Tool), nullable(step.ToolInput), nullable(step.ToolResult))
		if err != nil {
			return "", fmt.Errorf("failed to insert step: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return run.ID, nil
}

// LoadRun returns a stored run with its steps in order.
func (s *SqliteStorage) LoadRun(ctx context.Context, id string) (Run, error) {
	run := Run{ID: id}
	var sessionID sql.NullString
	var elapsed, created int64

	err := s.db.QueryRowContext(ctx,
		"SELECT session_id, query, elapsed_ns, tokens, created_at FROM runs WHERE run_id = ?",
		id).Scan(&sessionID, &run.Query, &elapsed, &run.Tokens, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("failed to query run: %w", err)
	}
	run.SessionID = sessionID.String
	run.Elapsed = time.Duration(elapsed)
	run.CreatedAt = time.Unix(0, created)

	rows, err := s.db.QueryContext(ctx, `
		SELECT label, content, elapsed_ns, tool, tool_input, tool_result
		FROM steps WHERE run_id = ? ORDER BY step_index ASC`, id)
	if err != nil {
		return Run{}, fmt.Errorf("failed to query steps: %w", err)
	}
	defer rows.Close()

	run.Steps = []model.StepRecord{}
	for rows.Next() {
		var step model.StepRecord
		var stepElapsed int64
		var tool, input, result sql.NullString
		if err := rows.Scan(&step.Label, &step.Content, &stepElapsed, &tool, &input, &result); err != nil {
			return Run{}, fmt.Errorf("failed to scan step: %w", err)
		}
		step.Elapsed = time.Duration(stepElapsed)
		step.Tool = fromNullable(tool)
		step.ToolInput = fromNullable(input)
		step.ToolResult = fromNullable(result)
		run.Steps = append(run.Steps, step)
	}
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("error iterating steps: %w", err)
	}

	return run, nil
}

// ListRuns lists runs newest first.
func (s *SqliteStorage) ListRuns(ctx context.Context, sessionID string) ([]RunSummary, error) {
	query := `
		SELECT r.run_id, r.session_id, r.query, r.tokens, r.created_at,
		       (SELECT COUNT(*) FROM steps st WHERE st.run_id = r.run_id)
		FROM runs r`
	var args []interface{}
	if sessionID != "" {
		query += " WHERE r.session_id = ?"
		args = append(args, sessionID)
	}
	query += " ORDER BY r.created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	summaries := []RunSummary{}
	for rows.Next() {
		var sum RunSummary
		var session sql.NullString
		var created int64
		if err := rows.Scan(&sum.ID, &session, &sum.Query, &sum.Tokens, &created, &sum.StepCount); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		sum.SessionID = session.String
		sum.CreatedAt = time.Unix(0, created)
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return summaries, nil
}

func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func fromNullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// Verify SqliteStorage implements Store
var _ Store = (*SqliteStorage)(nil)
