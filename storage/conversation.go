// Package storage provides conversation and reasoning run storage.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interfaces
// - Allows swapping between memory and SQLite without API changes
// - Each storage implementation encapsulates its own data structures and protocols

package storage

import (
	"context"
	"errors"
	"time"

	"github.com/richinex/llao1/llm"
	"github.com/richinex/llao1/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// ConversationStorage defines the interface for storing conversation history.
// A chat session's history is what the next question continues from.
type ConversationStorage interface {
	// Save saves conversation history for a session.
	Save(ctx context.Context, sessionID string, history []llm.ChatMessage) error

	// Load loads conversation history for a session.
	// Returns empty slice (not nil) if session doesn't exist.
	// Returns error only for storage failures (I/O errors, etc.), not missing sessions.
	Load(ctx context.Context, sessionID string) ([]llm.ChatMessage, error)

	// Delete deletes conversation history and runs for a session.
	Delete(ctx context.Context, sessionID string) error

	// ListSessions lists all session IDs, most recently updated first.
	ListSessions(ctx context.Context) ([]string, error)

	// Exists checks if a session exists.
	Exists(ctx context.Context, sessionID string) (bool, error)
}

// Run is one finished reasoning session: a query and its step records.
type Run struct {
	ID        string
	SessionID string // chat session the run belongs to; "" for one-shot runs
	Query     string
	Steps     []model.StepRecord
	Elapsed   time.Duration
	Tokens    int
	CreatedAt time.Time
}

// Answer returns the content of the final record, or "".
func (r Run) Answer() string {
	if n := len(r.Steps); n > 0 && r.Steps[n-1].IsFinal() {
		return r.Steps[n-1].Content
	}
	return ""
}

// RunSummary is the listing form of a Run.
type RunSummary struct {
	ID        string
	SessionID string
	Query     string
	StepCount int
	Tokens    int
	CreatedAt time.Time
}

// RunStorage persists finished reasoning runs so they can be exported later.
type RunStorage interface {
	// SaveRun stores run. An empty ID is replaced by a new UUID and a zero
	// CreatedAt by the current time; the stored ID is returned.
	SaveRun(ctx context.Context, run Run) (string, error)

	// LoadRun returns the run with id, or ErrNotFound.
	LoadRun(ctx context.Context, id string) (Run, error)

	// ListRuns lists runs newest first. A non-empty sessionID restricts the
	// listing to that chat session.
	ListRuns(ctx context.Context, sessionID string) ([]RunSummary, error)
}

// Store is the full storage surface used by the CLI.
type Store interface {
	ConversationStorage
	RunStorage
	Close() error
}
