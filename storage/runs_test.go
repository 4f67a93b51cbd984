package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/richinex/llao1/model"
)

func strPtr(s string) *string { return &s }

// forEachStore runs fn against every Store implementation.
func forEachStore(t *testing.T, fn func(t *testing.T, store Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewInMemoryStorage())
	})
	t.Run("sqlite", func(t *testing.T) {
		store, err := NewSqliteInMemory()
		if err != nil {
			t.Fatalf("Failed to create storage: %v", err)
		}
		defer store.Close()
		fn(t, store)
	})
}

func sampleRun() Run {
	return Run{
		SessionID: "chat-1",
		Query:     "What is 2+2?",
		Steps: []model.StepRecord{
			{
				Label:      "Step 1: Run",
				Content:    "Executing",
				Elapsed:    1200 * time.Millisecond,
				Tool:       strPtr("code_executor"),
				ToolInput:  strPtr("print(2 + 2)"),
				ToolResult: strPtr("4\n"),
			},
			model.NewFinalRecord("4", 300*time.Millisecond),
		},
		Elapsed: 1500 * time.Millisecond,
		Tokens:  600,
	}
}

func TestStoreSaveAndLoadRun(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		id, err := store.SaveRun(ctx, sampleRun())
		if err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
		if id == "" {
			t.Fatal("expected a generated run ID")
		}

		run, err := store.LoadRun(ctx, id)
		if err != nil {
			t.Fatalf("LoadRun failed: %v", err)
		}

		if run.Query != "What is 2+2?" || run.SessionID != "chat-1" || run.Tokens != 600 {
			t.Errorf("unexpected run header: %+v", run)
		}
		if run.Elapsed != 1500*time.Millisecond {
			t.Errorf("expected elapsed 1.5s, got %s", run.Elapsed)
		}
		if run.CreatedAt.IsZero() {
			t.Error("expected CreatedAt to be set")
		}
		if len(run.Steps) != 2 {
			t.Fatalf("expected 2 steps, got %d", len(run.Steps))
		}

		first := run.Steps[0]
		if first.Tool == nil || *first.Tool != "code_executor" || *first.ToolResult != "4\n" {
			t.Errorf("tool fields not preserved: %+v", first)
		}
		if first.Elapsed != 1200*time.Millisecond {
			t.Errorf("expected step elapsed 1.2s, got %s", first.Elapsed)
		}

		final := run.Steps[1]
		if final.Tool != nil || final.ToolInput != nil || final.ToolResult != nil {
			t.Errorf("final step must have no tool fields: %+v", final)
		}
		if run.Answer() != "4" {
			t.Errorf("expected answer '4', got %q", run.Answer())
		}
	})
}

func TestStoreLoadMissingRun(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		_, err := store.LoadRun(context.Background(), "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestStoreReplaceRun(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		run := sampleRun()
		run.ID = "fixed"
		if _, err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}

		run.Steps = run.Steps[1:]
		if _, err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}

		loaded, err := store.LoadRun(ctx, "fixed")
		if err != nil {
			t.Fatalf("LoadRun failed: %v", err)
		}
		if len(loaded.Steps) != 1 {
			t.Errorf("expected replaced run to have 1 step, got %d", len(loaded.Steps))
		}
	})
}

func TestStoreListRuns(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		base := time.Now()

		older := sampleRun()
		older.CreatedAt = base.Add(-time.Minute)
		newer := sampleRun()
		newer.CreatedAt = base
		other := sampleRun()
		other.SessionID = ""
		other.CreatedAt = base.Add(-time.Hour)

		for _, r := range []Run{older, newer, other} {
			if _, err := store.SaveRun(ctx, r); err != nil {
				t.Fatalf("SaveRun failed: %v", err)
			}
		}

		all, err := store.ListRuns(ctx, "")
		if err != nil {
			t.Fatalf("ListRuns failed: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(all))
		}
		if !all[0].CreatedAt.Equal(newer.CreatedAt) {
			t.Errorf("expected newest first, got %s", all[0].CreatedAt)
		}
		if all[0].StepCount != 2 {
			t.Errorf("expected step count 2, got %d", all[0].StepCount)
		}

		chat, err := store.ListRuns(ctx, "chat-1")
		if err != nil {
			t.Fatalf("ListRuns failed: %v", err)
		}
		if len(chat) != 2 {
			t.Errorf("expected 2 runs in chat-1, got %d", len(chat))
		}
	})
}

func TestSqliteStoragePersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "llao1.db")
	ctx := context.Background()

	store, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("OpenSqlite failed: %v", err)
	}
	id, err := store.SaveRun(ctx, sampleRun())
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	store.Close()

	reopened, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	run, err := reopened.LoadRun(ctx, id)
	if err != nil {
		t.Fatalf("LoadRun failed: %v", err)
	}
	if len(run.Steps) != 2 {
		t.Errorf("expected 2 steps after reopen, got %d", len(run.Steps))
	}
}
