package device

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 200
)

// SQLiteEventRepository implements EventRepository using SQLite.
//
// It writes one row per transition to the registration_events table.
type SQLiteEventRepository struct {
	db *sql.DB
}

// NewSQLiteEventRepository creates a new SQLite event repository.
//
// Parameters:
//   - db: Open SQLite connection used for queries
//
// Returns:
//   - *SQLiteEventRepository: Repository instance ready for use
func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

// Record inserts one registration transition row.
func (r *SQLiteEventRepository) Record(ctx context.Context, event Event) error {
	if event.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if event.PrinterName == "" {
		return fmt.Errorf("printer name is required")
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO registration_events (run_id, printer_name, from_state, to_state, detail) VALUES (?, ?, ?, ?, ?)",
		event.RunID,
		event.PrinterName,
		event.FromState.String(),
		event.ToState.String(),
		event.Detail,
	)
	if err != nil {
		return fmt.Errorf("inserting registration event: %w", err)
	}
	return nil
}

// ListByRun returns a run's transitions in the order they happened.
func (r *SQLiteEventRepository) ListByRun(ctx context.Context, runID string, limit int) ([]Event, error) {
	if runID == "" {
		return nil, fmt.Errorf("run id is required")
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, run_id, printer_name, from_state, to_state, detail, created_at FROM registration_events WHERE run_id = ? ORDER BY id ASC LIMIT ?",
		runID, clampEventLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("querying registration events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecent returns the latest transitions across all runs, newest first.
func (r *SQLiteEventRepository) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, run_id, printer_name, from_state, to_state, detail, created_at FROM registration_events ORDER BY id DESC LIMIT ?",
		clampEventLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("querying registration events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func clampEventLimit(limit int) int {
	if limit <= 0 {
		return defaultEventLimit
	}
	if limit > maxEventLimit {
		return maxEventLimit
	}
	return limit
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var (
			event     Event
			fromState string
			toState   string
			createdAt string
		)
		if err := rows.Scan(&event.ID, &event.RunID, &event.PrinterName, &fromState, &toState, &event.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning registration event: %w", err)
		}

		if state, ok := ParseRegState(fromState); ok {
			event.FromState = state
		}
		if state, ok := ParseRegState(toState); ok {
			event.ToState = state
		}
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			event.CreatedAt = ts.UTC()
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating registration events: %w", err)
	}
	return events, nil
}
