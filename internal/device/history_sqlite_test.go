package device

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupEventTestDB creates an in-memory SQLite database with the
// registration_events table.
func setupEventTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE registration_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			printer_name TEXT NOT NULL,
			from_state TEXT NOT NULL,
			to_state TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		);
		CREATE INDEX idx_registration_events_run ON registration_events(run_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func TestSQLiteEventRepositoryRecord(t *testing.T) {
	db := setupEventTestDB(t)
	repo := NewSQLiteEventRepository(db)
	ctx := context.Background()

	t.Run("round trips a transition", func(t *testing.T) {
		event := Event{
			RunID:       "run-1",
			PrinterName: "lab-printer",
			FromState:   Unclaimed,
			ToState:     Started,
			Detail:      "privet register start accepted",
		}
		if err := repo.Record(ctx, event); err != nil {
			t.Fatalf("Record() error = %v", err)
		}

		events, err := repo.ListByRun(ctx, "run-1", 0)
		if err != nil {
			t.Fatalf("ListByRun() error = %v", err)
		}
		if len(events) != 1 {
			t.Fatalf("got %d events, want 1", len(events))
		}
		got := events[0]
		if got.FromState != Unclaimed || got.ToState != Started {
			t.Errorf("transition = %s → %s", got.FromState, got.ToState)
		}
		if got.Detail != event.Detail {
			t.Errorf("detail = %q", got.Detail)
		}
		if got.CreatedAt.IsZero() {
			t.Error("created_at not populated")
		}
	})

	t.Run("requires run id and printer name", func(t *testing.T) {
		if err := repo.Record(ctx, Event{PrinterName: "x"}); err == nil {
			t.Error("expected error for missing run id")
		}
		if err := repo.Record(ctx, Event{RunID: "run-2"}); err == nil {
			t.Error("expected error for missing printer name")
		}
	})
}

func TestSQLiteEventRepositoryListing(t *testing.T) {
	db := setupEventTestDB(t)
	repo := NewSQLiteEventRepository(db)
	ctx := context.Background()

	transitions := []struct {
		run      string
		from, to RegState
	}{
		{"run-a", Unclaimed, Started},
		{"run-a", Started, ClaimTokenObtained},
		{"run-b", Unclaimed, Started},
		{"run-a", ClaimTokenObtained, ClaimSent},
	}
	for _, tr := range transitions {
		event := Event{RunID: tr.run, PrinterName: "lab-printer", FromState: tr.from, ToState: tr.to}
		if err := repo.Record(ctx, event); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	t.Run("list by run is ordered oldest first", func(t *testing.T) {
		events, err := repo.ListByRun(ctx, "run-a", 0)
		if err != nil {
			t.Fatalf("ListByRun() error = %v", err)
		}
		want := []RegState{Started, ClaimTokenObtained, ClaimSent}
		if len(events) != len(want) {
			t.Fatalf("got %d events, want %d", len(events), len(want))
		}
		for i, to := range want {
			if events[i].ToState != to {
				t.Errorf("events[%d].ToState = %s, want %s", i, events[i].ToState, to)
			}
		}
	})

	t.Run("list recent is newest first across runs", func(t *testing.T) {
		events, err := repo.ListRecent(ctx, 0)
		if err != nil {
			t.Fatalf("ListRecent() error = %v", err)
		}
		if len(events) != 4 {
			t.Fatalf("got %d events, want 4", len(events))
		}
		if events[0].RunID != "run-a" || events[0].ToState != ClaimSent {
			t.Errorf("newest event = %+v", events[0])
		}
	})

	t.Run("limit is honoured", func(t *testing.T) {
		events, err := repo.ListRecent(ctx, 2)
		if err != nil {
			t.Fatalf("ListRecent() error = %v", err)
		}
		if len(events) != 2 {
			t.Errorf("got %d events, want 2", len(events))
		}
	})

	t.Run("limit is clamped", func(t *testing.T) {
		if got := clampEventLimit(0); got != defaultEventLimit {
			t.Errorf("clampEventLimit(0) = %d", got)
		}
		if got := clampEventLimit(maxEventLimit + 10); got != maxEventLimit {
			t.Errorf("clampEventLimit(max+10) = %d", got)
		}
		if got := clampEventLimit(7); got != 7 {
			t.Errorf("clampEventLimit(7) = %d", got)
		}
	})

	t.Run("unknown run is empty", func(t *testing.T) {
		events, err := repo.ListByRun(ctx, "run-z", 0)
		if err != nil {
			t.Fatalf("ListByRun() error = %v", err)
		}
		if len(events) != 0 {
			t.Errorf("got %d events, want 0", len(events))
		}
	})
}
