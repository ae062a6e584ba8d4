// Package transport performs the HTTP legwork for the harness.
//
// All Privet and cloud calls funnel through Client.Request so that
// authentication, the proxy user agent, and response logging behave the
// same way everywhere. The client never retries on its own; retry policy
// belongs to the protocol loops that call it.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nerrad567/privet-harness/internal/infrastructure/logging"
)

// userAgent identifies the harness to devices and the cloud service.
const userAgent = "privet-harness/1.0"

// maxLoggedBody caps how much of a response body is written to the log.
const maxLoggedBody = 1024

// ErrTransport is the sentinel for connection-level failures: DNS, refused
// connections, timeouts. HTTP error status codes are not transport errors;
// they are returned in Response for the caller to interpret.
var ErrTransport = errors.New("transport: request failed")

// Options describes a single HTTP request.
type Options struct {
	URL     string
	Method  string
	Headers map[string]string

	// Body is sent as-is; nil means no body. Register-style endpoints
	// expect an empty POST body, which is Body = []byte{} or nil.
	Body []byte

	// AuthToken, when non-empty, is sent as a bearer Authorization header.
	AuthToken string
}

// Response is the outcome of a completed HTTP exchange.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// OK reports whether the response carries a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client issues HTTP requests on behalf of the protocol clients.
type Client struct {
	httpClient *http.Client
	logger     *logging.Logger
}

// New creates a transport client with the given timeout.
func New(timeout time.Duration, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "transport"),
	}
}

// NewWithHTTPClient creates a transport client around an existing
// http.Client. Used by tests to inject httptest-backed clients.
func NewWithHTTPClient(httpClient *http.Client, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger.With("component", "transport"),
	}
}

// Request performs one HTTP exchange and reads the full response body.
//
// A non-nil error always wraps ErrTransport and means no usable response
// was obtained. HTTP-level failures (4xx, 5xx) produce a nil error and a
// Response the caller must inspect.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - opts: Request description; Method defaults to GET
//
// Returns:
//   - *Response: Status, headers, and body of the exchange
//   - error: Wrapping ErrTransport on connection-level failure
func (c *Client) Request(ctx context.Context, opts Options) (*Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, opts.URL, body)
	if err != nil {
		return nil, fmt.Errorf("%w: building request for %s: %v", ErrTransport, opts.URL, err)
	}

	req.Header.Set("User-Agent", userAgent)
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if opts.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+opts.AuthToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, method, opts.URL, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read side already consumed

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response from %s: %v", ErrTransport, opts.URL, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}, nil
}

// LogData writes the interesting parts of a response to the debug log and
// reports whether the status indicates success. Mirrors how operators read
// a certification run transcript: status first, truncated body after.
func (c *Client) LogData(resp *Response) bool {
	if resp == nil {
		return false
	}

	body := resp.Body
	if len(body) > maxLoggedBody {
		body = body[:maxLoggedBody]
	}
	c.logger.Debug("http response",
		"status", resp.StatusCode,
		"body", string(body),
	)

	return resp.OK()
}
