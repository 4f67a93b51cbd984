// Package storage provides in-memory conversation storage.
//
// Information Hiding:
// - Map storage structure hidden from users
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and ephemeral sessions

package storage

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/richinex/llao1/llm"
)

// InMemoryStorage implements Store using in-memory maps.
// Data is lost when process terminates.
type InMemoryStorage struct {
	mu       sync.RWMutex
	sessions map[string]memorySession
	runs     map[string]Run
}

type memorySession struct {
	history   []llm.ChatMessage
	updatedAt time.Time
}

// NewInMemoryStorage creates a new in-memory storage.
func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		sessions: make(map[string]memorySession),
		runs:     make(map[string]Run),
	}
}

// Close is a no-op.
func (s *InMemoryStorage) Close() error {
	return nil
}

// Save saves conversation history for a session.
func (s *InMemoryStorage) Save(ctx context.Context, sessionID string, history []llm.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Make a copy to avoid external mutations
	s.sessions[sessionID] = memorySession{history: copyMessages(history), updatedAt: time.Now()}
	return nil
}

// Load loads conversation history for a session.
// Returns empty slice if session doesn't exist.
func (s *InMemoryStorage) Load(ctx context.Context, sessionID string) ([]llm.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return []llm.ChatMessage{}, nil
	}

	// Return a copy to avoid external mutations
	return copyMessages(session.history), nil
}

// Delete deletes conversation history and runs for a session.
func (s *InMemoryStorage) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	for id, run := range s.runs {
		if run.SessionID == sessionID {
			delete(s.runs, id)
		}
	}
	return nil
}

// ListSessions lists all session IDs, most recently updated first.
func (s *InMemoryStorage) ListSessions(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.sessions))
	for sessionID := range s.sessions {
		sessions = append(sessions, sessionID)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return s.sessions[sessions[i]].updatedAt.After(s.sessions[sessions[j]].updatedAt)
	})
	return sessions, nil
}

// Exists checks if a session exists.
func (s *InMemoryStorage) Exists(ctx context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.sessions[sessionID]
	return ok, nil
}

// SaveRun stores a finished run.
func (s *InMemoryStorage) SaveRun(ctx context.Context, run Run) (string, error) {
	run = prepareRun(run)

	s.mu.Lock()
	defer s.mu.Unlock()

	run.Steps = slices.Clone(run.Steps)
	s.runs[run.ID] = run
	return run.ID, nil
}

// LoadRun returns a stored run.
func (s *InMemoryStorage) LoadRun(ctx context.Context, id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	run.Steps = slices.Clone(run.Steps)
	return run, nil
}

// ListRuns lists runs newest first.
func (s *InMemoryStorage) ListRuns(ctx context.Context, sessionID string) ([]RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := []RunSummary{}
	for _, run := range s.runs {
		if sessionID != "" && run.SessionID != sessionID {
			continue
		}
		summaries = append(summaries, summarize(run))
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func copyMessages(history []llm.ChatMessage) []llm.ChatMessage {
	copied := make([]llm.ChatMessage, len(history))
	for i, msg := range history {
		msg.Images = slices.Clone(msg.Images)
		copied[i] = msg
	}
	return copied
}

func prepareRun(run Run) Run {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	return run
}

func summarize(run Run) RunSummary {
	return RunSummary{
		ID:        run.ID,
		SessionID: run.SessionID,
		Query:     run.Query,
		StepCount: len(run.Steps),
		Tokens:    run.Tokens,
		CreatedAt: run.CreatedAt,
	}
}

// Verify InMemoryStorage implements Store
var _ Store = (*InMemoryStorage)(nil)
