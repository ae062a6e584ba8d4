package device

import (
	"context"
	"fmt"

	"github.com/nerrad567/privet-harness/internal/jsonparse"
)

// CDD is a parsed Cloud Device Description: the first printer record's
// top-level fields plus its flattened capability map.
type CDD struct {
	// Fields holds the printer record's scalar and structural fields,
	// capabilities excluded.
	Fields map[string]any

	// Capabilities is the printer capability map
	// (printers[0].capabilities.printer).
	Capabilities map[string]any
}

// ParseCDD parses a raw capability document. Exactly one printer record
// is consulted: the first in the document's printers list.
//
// Failure reasons are distinguished: ErrCDDEmpty for an empty or
// non-JSON document, ErrCDDNoPrinters when the printers list is absent or
// empty, ErrCDDNoCapabilities when the record carries no printer
// capability map. All of them match ErrProtocol.
func ParseCDD(doc []byte) (*CDD, error) {
	if len(doc) == 0 {
		return nil, ErrCDDEmpty
	}

	fields, ok := jsonparse.Read(doc)
	if !ok {
		return nil, fmt.Errorf("%w: document is not a JSON object", ErrCDDEmpty)
	}

	printers, ok := fields["printers"].([]any)
	if !ok || len(printers) == 0 {
		return nil, ErrCDDNoPrinters
	}

	record, ok := printers[0].(map[string]any)
	if !ok {
		return nil, ErrCDDNoPrinters
	}

	capabilities, ok := record["capabilities"].(map[string]any)
	if !ok {
		return nil, ErrCDDNoCapabilities
	}
	printerCaps, ok := capabilities["printer"].(map[string]any)
	if !ok {
		return nil, ErrCDDNoCapabilities
	}

	cdd := &CDD{
		Fields:       make(map[string]any, len(record)),
		Capabilities: printerCaps,
	}
	for key, value := range record {
		if key == "capabilities" {
			continue
		}
		cdd.Fields[key] = value
	}
	return cdd, nil
}

// FetchCapabilities retrieves and parses the printer's CDD via the
// management console. It requires a cloud device id; without one it fails
// before any network call.
func (c *Coordinator) FetchCapabilities(ctx context.Context) (*CDD, error) {
	if c.cloudDeviceID == "" {
		return nil, ErrNotRegistered
	}

	doc, err := c.console.GetCapabilityDocument(ctx, c.cloudDeviceID)
	if err != nil {
		return nil, fmt.Errorf("fetching capability document: %w", err)
	}

	cdd, err := ParseCDD(doc)
	if err != nil {
		c.logger.Warn("capability document rejected", "error", err)
		return nil, err
	}

	c.logger.Debug("capability document parsed",
		"fields", len(cdd.Fields),
		"capabilities", len(cdd.Capabilities))
	return cdd, nil
}
