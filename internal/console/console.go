// Package console abstracts the out-of-band management view of a printer.
//
// The registration coordinator only ever sees the Console interface; where
// the status fields actually come from (the cloud service's printer record,
// the printer's SNMP agent, or a test fake) is an implementation concern.
// Every field is fetched independently because real backends fail
// independently: a printer can answer its status while its console display
// times out, and the status snapshot logic leans on that.
package console

import (
	"context"
	"errors"
)

var (
	// ErrFieldUnavailable is returned when a backend cannot currently
	// produce the requested field. The snapshot refresh loop treats this
	// as "leave empty and retry", not as a hard failure.
	ErrFieldUnavailable = errors.New("console: field unavailable")

	// ErrUnsupported is returned when a backend does not implement the
	// requested capability at all (e.g. CDD retrieval over SNMP).
	ErrUnsupported = errors.New("console: operation not supported by backend")
)

// Console retrieves device status and capability documents from a
// vendor-specific out-of-band source.
//
// All methods take the printer's display name except GetCapabilityDocument,
// which is keyed by the cloud device id issued at registration.
type Console interface {
	// GetStatus returns the printer's headline status, e.g. "ONLINE".
	GetStatus(ctx context.Context, name string) (string, error)

	// GetErrorState returns a description of any active error condition,
	// or "" when the printer reports none.
	GetErrorState(ctx context.Context, name string) (string, error)

	// GetWarningState returns a description of any active warning,
	// or "" when the printer reports none.
	GetWarningState(ctx context.Context, name string) (string, error)

	// GetStateMessages returns the printer's current state message lines.
	GetStateMessages(ctx context.Context, name string) ([]string, error)

	// GetDetails returns free-form descriptive fields about the printer.
	GetDetails(ctx context.Context, name string) (map[string]string, error)

	// GetCapabilityDocument returns the raw CDD JSON for a registered
	// printer.
	GetCapabilityDocument(ctx context.Context, cloudDeviceID string) ([]byte, error)
}
