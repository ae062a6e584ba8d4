package device

import (
	"context"
	"time"
)

// Event is a single registration state machine transition record.
//
// Rows from the same registration run share a RunID, so repeated
// certification runs against one printer stay distinguishable.
type Event struct {
	// ID is the auto-incremented primary key for the history row.
	ID int64 `json:"id"`

	// RunID ties the event to one registration run.
	RunID string `json:"run_id"`

	// PrinterName is the display name of the printer under test.
	PrinterName string `json:"printer_name"`

	// FromState and ToState are the transition's endpoints.
	FromState RegState `json:"from_state"`
	ToState   RegState `json:"to_state"`

	// Detail is a free-form note about what drove the transition.
	Detail string `json:"detail"`

	// CreatedAt is the timestamp of the transition (UTC).
	CreatedAt time.Time `json:"created_at"`
}

// EventRepository stores and retrieves registration transition history.
//
// Implementations must be thread-safe and use UTC timestamps.
type EventRepository interface {
	// Record persists one transition event.
	Record(ctx context.Context, event Event) error

	// ListByRun returns a run's events, oldest first, up to limit
	// (implementation may clamp bounds).
	ListByRun(ctx context.Context, runID string, limit int) ([]Event, error)

	// ListRecent returns the most recent events across all runs, newest
	// first, up to limit.
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
