package device

import (
	"context"
	"time"
)

// DefaultRefreshAttempts is the total number of batch passes RefreshStatus
// makes before accepting an incomplete snapshot (1 initial + 3 retries).
const DefaultRefreshAttempts = 4

// StatusSnapshot is the merged view of a printer's independently
// observable status fields. Partial population is a valid state: fields a
// backend could not answer stay zero and are reported by Missing.
type StatusSnapshot struct {
	Status       string
	ErrorState   string
	WarningState string
	Messages     []string
	Details      map[string]string

	// errorStateKnown / warningStateKnown distinguish "fetched, clear"
	// from "never fetched": both legitimately read as "".
	errorStateKnown   bool
	warningStateKnown bool
}

// Missing lists the fields that have not been populated yet.
func (s *StatusSnapshot) Missing() []string {
	var missing []string
	if s.Status == "" {
		missing = append(missing, "status")
	}
	if !s.errorStateKnown {
		missing = append(missing, "error_state")
	}
	if !s.warningStateKnown {
		missing = append(missing, "warning_state")
	}
	if s.Messages == nil {
		missing = append(missing, "messages")
	}
	if s.Details == nil {
		missing = append(missing, "details")
	}
	return missing
}

// Complete reports whether every field has been populated.
func (s *StatusSnapshot) Complete() bool {
	return len(s.Missing()) == 0
}

// RefreshStatus fetches the printer's status fields from the management
// console. The retry is coarse: any field still missing after a pass
// triggers another full pass, but fields already fetched are skipped.
// After the configured attempts, whatever was gathered is returned — an
// incomplete snapshot is a result, not an error. The only error returned
// is context cancellation.
func (c *Coordinator) RefreshStatus(ctx context.Context, delay time.Duration) (StatusSnapshot, error) {
	name := c.identity.Name

	for attempt := 1; attempt <= c.refreshAttempts; attempt++ {
		c.fetchMissingFields(ctx, name)
		if c.snapshot.Complete() {
			break
		}
		if attempt == c.refreshAttempts {
			c.logger.Warn("status snapshot incomplete after final attempt",
				"missing", c.snapshot.Missing())
			break
		}

		c.logger.Debug("status snapshot incomplete, retrying batch",
			"attempt", attempt,
			"missing", c.snapshot.Missing())
		if delay > 0 {
			select {
			case <-ctx.Done():
				return c.snapshot, ctx.Err()
			case <-time.After(delay):
			}
		}
		if err := ctx.Err(); err != nil {
			return c.snapshot, err
		}
	}
	return c.snapshot, nil
}

// fetchMissingFields runs one batch pass, filling only unpopulated fields.
// Individual fetch failures are logged and leave the field for the next
// pass.
func (c *Coordinator) fetchMissingFields(ctx context.Context, name string) {
	if c.snapshot.Status == "" {
		if status, err := c.console.GetStatus(ctx, name); err != nil {
			c.logger.Debug("status fetch failed", "error", err)
		} else {
			c.snapshot.Status = status
		}
	}
	if !c.snapshot.errorStateKnown {
		if state, err := c.console.GetErrorState(ctx, name); err != nil {
			c.logger.Debug("error state fetch failed", "error", err)
		} else {
			c.snapshot.ErrorState = state
			c.snapshot.errorStateKnown = true
		}
	}
	if !c.snapshot.warningStateKnown {
		if state, err := c.console.GetWarningState(ctx, name); err != nil {
			c.logger.Debug("warning state fetch failed", "error", err)
		} else {
			c.snapshot.WarningState = state
			c.snapshot.warningStateKnown = true
		}
	}
	if c.snapshot.Messages == nil {
		if messages, err := c.console.GetStateMessages(ctx, name); err != nil {
			c.logger.Debug("state messages fetch failed", "error", err)
		} else if messages == nil {
			c.snapshot.Messages = []string{}
		} else {
			c.snapshot.Messages = messages
		}
	}
	if c.snapshot.Details == nil {
		if details, err := c.console.GetDetails(ctx, name); err != nil {
			c.logger.Debug("details fetch failed", "error", err)
		} else if details == nil {
			c.snapshot.Details = map[string]string{}
		} else {
			c.snapshot.Details = details
		}
	}
}
