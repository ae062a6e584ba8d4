package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/nerrad567/privet-harness/internal/cloud"
	"github.com/nerrad567/privet-harness/internal/infrastructure/logging"
	"github.com/nerrad567/privet-harness/internal/jsonparse"
)

// CloudConsole reads printer status from the cloud service's printer
// record. It is the default backend: any printer that completed
// registration has a record there, regardless of vendor.
//
// The name passed to the status methods is ignored; the record is keyed
// by the cloud device id fixed at construction time.
type CloudConsole struct {
	client    *cloud.Client
	logger    *logging.Logger
	deviceID  string
	authToken string
}

// NewCloudConsole returns a console backed by the cloud printer record
// for deviceID.
func NewCloudConsole(client *cloud.Client, deviceID, authToken string, logger *logging.Logger) *CloudConsole {
	if logger == nil {
		logger = logging.Default()
	}
	return &CloudConsole{
		client:    client,
		logger:    logger.With("component", "cloud_console"),
		deviceID:  deviceID,
		authToken: authToken,
	}
}

// record fetches and flattens the printer record to its first entry.
func (c *CloudConsole) record(ctx context.Context) (map[string]any, error) {
	body, err := c.client.LookupPrinter(ctx, c.deviceID, c.authToken)
	if err != nil {
		return nil, err
	}

	fields, ok := jsonparse.Read(body)
	if !ok {
		return nil, fmt.Errorf("%w: printer record is not a JSON object", cloud.ErrBadPayload)
	}

	printers, ok := fields["printers"].([]any)
	if !ok || len(printers) == 0 {
		return nil, fmt.Errorf("%w: printer record has no printers entry", cloud.ErrBadPayload)
	}

	record, ok := printers[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: printers entry is not an object", cloud.ErrBadPayload)
	}
	return record, nil
}

// stringField reads a scalar field from the record, "" when absent.
func stringField(record map[string]any, key string) string {
	v, ok := record[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// GetStatus returns the record's connectionStatus field.
func (c *CloudConsole) GetStatus(ctx context.Context, _ string) (string, error) {
	record, err := c.record(ctx)
	if err != nil {
		return "", err
	}

	status := stringField(record, "connectionStatus")
	if status == "" {
		return "", fmt.Errorf("%w: connectionStatus", ErrFieldUnavailable)
	}
	return status, nil
}

// GetErrorState reports the uiState summary when the record marks the
// printer as being in an error state, "" otherwise.
func (c *CloudConsole) GetErrorState(ctx context.Context, _ string) (string, error) {
	record, err := c.record(ctx)
	if err != nil {
		return "", err
	}
	return uiStateCaption(record, "ERROR"), nil
}

// GetWarningState reports the uiState summary when the record marks the
// printer as degraded, "" otherwise.
func (c *CloudConsole) GetWarningState(ctx context.Context, _ string) (string, error) {
	record, err := c.record(ctx)
	if err != nil {
		return "", err
	}
	return uiStateCaption(record, "WARNING"), nil
}

// uiStateCaption digs out uiState.summary and returns its caption when the
// summary state matches want. Records from older service versions omit
// uiState entirely; that reads as "no condition active".
func uiStateCaption(record map[string]any, want string) string {
	uiState, ok := record["uiState"].(map[string]any)
	if !ok {
		return ""
	}
	summary, ok := uiState["summary"].(map[string]any)
	if !ok {
		return ""
	}
	if !strings.EqualFold(stringField(summary, "state"), want) {
		return ""
	}

	caption := stringField(summary, "caption")
	if caption == "" {
		caption = want
	}
	return caption
}

// GetStateMessages returns the uiState caption lines for the printer.
func (c *CloudConsole) GetStateMessages(ctx context.Context, _ string) ([]string, error) {
	record, err := c.record(ctx)
	if err != nil {
		return nil, err
	}

	uiState, ok := record["uiState"].(map[string]any)
	if !ok {
		return nil, nil
	}

	var messages []string
	if summary, ok := uiState["summary"].(map[string]any); ok {
		if caption := stringField(summary, "caption"); caption != "" {
			messages = append(messages, caption)
		}
	}
	if raw, ok := uiState["messages"].([]any); ok {
		for _, m := range raw {
			if s, ok := m.(string); ok && s != "" {
				messages = append(messages, s)
			}
		}
	}
	return messages, nil
}

// GetDetails returns the scalar fields of the printer record.
func (c *CloudConsole) GetDetails(ctx context.Context, _ string) (map[string]string, error) {
	record, err := c.record(ctx)
	if err != nil {
		return nil, err
	}

	details := make(map[string]string)
	for key, value := range record {
		switch value.(type) {
		case string, float64, bool:
			details[key] = stringField(record, key)
		}
	}
	return details, nil
}

// GetCapabilityDocument returns the raw printer record body, which carries
// the CDD when the lookup is made with usecdd enabled.
func (c *CloudConsole) GetCapabilityDocument(ctx context.Context, cloudDeviceID string) ([]byte, error) {
	id := cloudDeviceID
	if id == "" {
		id = c.deviceID
	}
	return c.client.LookupPrinter(ctx, id, c.authToken)
}
