// Package cloud talks to the cloud print service's management endpoints.
//
// Every call here requires a caller-supplied auth token; the harness never
// stores credentials. The service answers JSON on success and either JSON
// with an "error" field or plain HTML on failure, so responses are pushed
// through the lenient jsonparse helpers before anything is trusted.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nerrad567/privet-harness/internal/infrastructure/logging"
	"github.com/nerrad567/privet-harness/internal/jsonparse"
	"github.com/nerrad567/privet-harness/internal/transport"
)

var (
	// ErrRequestRejected is returned when the service answers with a
	// well-formed response that does not indicate success.
	ErrRequestRejected = errors.New("cloud: request rejected by service")

	// ErrBadPayload is returned when a response cannot be interpreted
	// (non-JSON body, or missing an expected success indicator).
	ErrBadPayload = errors.New("cloud: malformed service response")
)

// Client issues management calls against the cloud print service.
type Client struct {
	baseURL   string
	transport *transport.Client
	logger    *logging.Logger
}

// New creates a cloud service client. baseURL must not end with a slash.
func New(baseURL string, tr *transport.Client, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL:   baseURL,
		transport: tr,
		logger:    logger.With("component", "cloud"),
	}
}

// LookupPrinter fetches the service's record for a registered printer,
// including its capability document (usecdd=True).
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - printerID: Cloud device id issued at registration
//   - authToken: Owner credential for the authenticated endpoint
//
// Returns:
//   - []byte: Raw JSON body of the printer record
//   - error: ErrBadPayload for non-JSON, ErrRequestRejected for service
//     errors, or a transport error
func (c *Client) LookupPrinter(ctx context.Context, printerID, authToken string) ([]byte, error) {
	lookupURL := fmt.Sprintf("%s/printer?printerid=%s&usecdd=True", c.baseURL, url.QueryEscape(printerID))

	resp, err := c.transport.Request(ctx, transport.Options{
		URL:       lookupURL,
		AuthToken: authToken,
	})
	if err != nil {
		return nil, fmt.Errorf("printer lookup: %w", err)
	}
	c.transport.LogData(resp)

	if _, ok := jsonparse.Read(resp.Body); !ok {
		return nil, fmt.Errorf("%w: printer lookup returned non-JSON (status %d)", ErrBadPayload, resp.StatusCode)
	}
	if !jsonparse.Validate(resp.Body) {
		return nil, fmt.Errorf("%w: printer lookup for %s", ErrRequestRejected, printerID)
	}

	return resp.Body, nil
}

// DeletePrinter removes a registered printer from the service.
//
// Success requires the response to validate as a non-error JSON payload;
// anything else leaves the registration presumed active.
func (c *Client) DeletePrinter(ctx context.Context, printerID, authToken string) error {
	deleteURL := fmt.Sprintf("%s/delete?printerid=%s", c.baseURL, url.QueryEscape(printerID))

	resp, err := c.transport.Request(ctx, transport.Options{
		URL:       deleteURL,
		Method:    http.MethodPost,
		Body:      []byte{},
		AuthToken: authToken,
	})
	if err != nil {
		return fmt.Errorf("printer delete: %w", err)
	}
	c.transport.LogData(resp)

	if !jsonparse.Validate(resp.Body) {
		return fmt.Errorf("%w: delete of printer %s", ErrRequestRejected, printerID)
	}

	c.logger.Info("printer deleted from service", "printer_id", printerID)
	return nil
}

// SubmitClaim exchanges a claim token with the service by POSTing to the
// automated claim URL issued by the device.
//
// The service must answer JSON carrying an explicit success indicator; a
// well-formed body with success absent or false is a definite failure,
// never an ambiguous one.
func (c *Client) SubmitClaim(ctx context.Context, automatedClaimURL, authToken string) error {
	resp, err := c.transport.Request(ctx, transport.Options{
		URL:       automatedClaimURL,
		Method:    http.MethodPost,
		Body:      []byte{},
		AuthToken: authToken,
	})
	if err != nil {
		return fmt.Errorf("claim submit: %w", err)
	}
	c.transport.LogData(resp)

	fields, ok := jsonparse.Read(resp.Body)
	if !ok {
		return fmt.Errorf("%w: claim response is not JSON (status %d)", ErrBadPayload, resp.StatusCode)
	}

	if success, _ := fields["success"].(bool); !success {
		return fmt.Errorf("%w: claim not accepted", ErrRequestRejected)
	}

	return nil
}
