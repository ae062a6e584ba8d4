package privet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nerrad567/privet-harness/internal/infrastructure/logging"
	"github.com/nerrad567/privet-harness/internal/jsonparse"
	"github.com/nerrad567/privet-harness/internal/transport"
)

// privetTokenHeader is the session token header used on register calls.
const privetTokenHeader = "X-Privet-Token"

// infoTokenKey is the info response field carrying the session token.
const infoTokenKey = "x-privet-token"

// pendingUserAction is the error value meaning the device is waiting for
// a local interaction, such as a confirmation button press.
const pendingUserAction = "pending_user_action"

// DefaultClaimPollAttempts caps the getClaimToken loop when the caller
// does not configure one.
const DefaultClaimPollAttempts = 5

// Claim poll failures. Both are terminal for a registration attempt.
var (
	// ErrClaimRefused is returned when the device reports an error other
	// than pending_user_action during claim token polling.
	ErrClaimRefused = errors.New("privet: claim token refused")

	// ErrClaimUnresolved is returned when the poll cap is reached with
	// the device still reporting pending_user_action.
	ErrClaimUnresolved = errors.New("privet: claim token unresolved after poll limit")

	// ErrRegisterFailed is returned when a register call completes at the
	// HTTP level but the device answers with a non-2xx status.
	ErrRegisterFailed = errors.New("privet: register call rejected")
)

// ClaimGrant is the successful result of claim token polling.
type ClaimGrant struct {
	// Token is the opaque claim token issued by the service via the device.
	Token string

	// AutomatedClaimURL is where the harness submits the token on the
	// user's behalf.
	AutomatedClaimURL string

	// ClaimURL is the human-facing claim page, kept for log output.
	ClaimURL string
}

// Client drives the local-network side of the Privet handshake for one
// device. It is not safe for concurrent use; the protocol itself is
// strictly ordered, so one goroutine per device is the model.
type Client struct {
	urls      URLSet
	transport *transport.Client
	logger    *logging.Logger

	// token is the X-Privet-Token captured by FetchInfo. Empty until a
	// well-formed info response is seen; register calls still go out with
	// an empty header and the device rejects them individually.
	token string

	// info holds the top-level fields of the last info response.
	info map[string]any

	// pollAttempts caps the getClaimToken loop.
	pollAttempts int

	// pollDelay paces getClaimToken attempts. The protocol mandates no
	// pacing; zero disables the pause, which tests rely on.
	pollDelay time.Duration
}

// Config carries the knobs for a Client.
type Config struct {
	URLs URLSet

	// ClaimPollAttempts caps the claim token loop; 0 means the protocol
	// default of 5.
	ClaimPollAttempts int

	// ClaimPollDelay is the pause between claim polls; 0 means none.
	ClaimPollDelay time.Duration
}

// New creates a Privet client for one device.
func New(cfg Config, tr *transport.Client, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	attempts := cfg.ClaimPollAttempts
	if attempts <= 0 {
		attempts = DefaultClaimPollAttempts
	}
	return &Client{
		urls:         cfg.URLs,
		transport:    tr,
		logger:       logger.With("component", "privet"),
		info:         map[string]any{},
		pollAttempts: attempts,
		pollDelay:    cfg.ClaimPollDelay,
	}
}

// Token returns the session token captured by FetchInfo, or "" if none
// has been seen yet.
func (c *Client) Token() string {
	return c.token
}

// Info returns the top-level fields of the last well-formed info response.
func (c *Client) Info() map[string]any {
	return c.info
}

// FetchInfo issues the unauthenticated info call and captures the session
// token if the response carries one.
//
// A malformed or non-JSON body is a soft failure: the response details are
// logged for diagnosis, the token stays unset, and no error is returned.
// The client remains usable; register calls needing the token will fail
// individually at the device.
//
// Returns an error only when the call itself could not complete.
func (c *Client) FetchInfo(ctx context.Context) error {
	resp, err := c.transport.Request(ctx, transport.Options{
		URL:     c.urls.Info,
		Headers: map[string]string{privetTokenHeader: ""},
	})
	if err != nil {
		return fmt.Errorf("fetching privet info: %w", err)
	}

	fields, ok := jsonparse.Read(resp.Body)
	if !ok {
		c.logger.Warn("info response is not JSON",
			"status", resp.StatusCode,
			"headers", fmt.Sprintf("%v", resp.Headers),
			"body", string(resp.Body),
		)
		return nil
	}

	c.info = fields
	for key := range fields {
		c.logger.Debug("privet info field", "key", key, "value", fields[key])
	}

	if token, present := jsonparse.GetValue(resp.Body, infoTokenKey); present {
		c.token = token
		c.logger.Debug("privet session token captured")
	}

	return nil
}

// StartRegistration begins device registration.
//
// Success is transport-level: a 2xx response starts the handshake, any
// payload is informational only. Non-2xx responses return ErrRegisterFailed
// so the caller can decide whether to retry.
func (c *Client) StartRegistration(ctx context.Context) error {
	resp, err := c.register(ctx, c.urls.RegisterStart)
	if err != nil {
		return fmt.Errorf("register start: %w", err)
	}
	if !c.transport.LogData(resp) {
		return fmt.Errorf("%w: start returned status %d", ErrRegisterFailed, resp.StatusCode)
	}
	return nil
}

// GetClaimToken polls the device until it hands over a claim token, the
// device refuses, or the poll cap is reached.
//
// The decision per response is pure (see evaluateClaimResponse); this loop
// only owns the pacing and the attempt counter. Only pending_user_action
// consumes an attempt and is retried; any other error payload fails
// immediately with ErrClaimRefused. Exhausting the cap while still pending
// fails with ErrClaimUnresolved.
func (c *Client) GetClaimToken(ctx context.Context) (*ClaimGrant, error) {
	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		if attempt > 0 && c.pollDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("claim token poll: %w", ctx.Err())
			case <-time.After(c.pollDelay):
			}
		}

		resp, err := c.register(ctx, c.urls.RegisterGetClaimToken)
		if err != nil {
			return nil, fmt.Errorf("claim token poll: %w", err)
		}
		c.transport.LogData(resp)

		grant, decision := evaluateClaimResponse(resp.Body)
		switch decision {
		case claimGranted:
			c.logger.Info("claim token obtained", "attempts", attempt+1)
			return grant, nil
		case claimPending:
			c.logger.Info("device awaiting user action", "attempt", attempt+1)
		case claimRefused:
			c.logger.Warn("device refused claim token", "body", string(resp.Body))
			return nil, ErrClaimRefused
		}
	}

	return nil, ErrClaimUnresolved
}

// CancelRegistration aborts an in-progress registration.
//
// Cancellation is best-effort, so the raw status code is handed back for
// the caller to interpret rather than being turned into an error.
func (c *Client) CancelRegistration(ctx context.Context) (int, error) {
	resp, err := c.register(ctx, c.urls.RegisterCancel)
	if err != nil {
		return 0, fmt.Errorf("register cancel: %w", err)
	}
	c.transport.LogData(resp)
	return resp.StatusCode, nil
}

// FinishRegistration completes registration on the device side and
// extracts the cloud device id if the response offers one.
//
// The service contract is loose here: the id arrives under a key merely
// containing "device_id", and some firmware omits it entirely. An empty
// deviceID with a nil error therefore means "completed without id", which
// callers must treat as a distinct outcome, not a failure.
func (c *Client) FinishRegistration(ctx context.Context) (deviceID string, err error) {
	resp, err := c.register(ctx, c.urls.RegisterComplete)
	if err != nil {
		return "", fmt.Errorf("register complete: %w", err)
	}

	if fields, ok := jsonparse.Read(resp.Body); ok {
		for key, value := range fields {
			if strings.Contains(key, "device_id") {
				deviceID = fmt.Sprintf("%v", value)
				c.logger.Debug("registered with device id", "device_id", deviceID)
				break
			}
		}
	}

	if !c.transport.LogData(resp) {
		return "", fmt.Errorf("%w: complete returned status %d", ErrRegisterFailed, resp.StatusCode)
	}

	return deviceID, nil
}

// register issues an authenticated empty-body POST to a register URL.
func (c *Client) register(ctx context.Context, url string) (*transport.Response, error) {
	return c.transport.Request(ctx, transport.Options{
		URL:     url,
		Method:  http.MethodPost,
		Headers: map[string]string{privetTokenHeader: c.token},
		Body:    []byte{},
	})
}

// claimDecision classifies one getClaimToken response.
type claimDecision int

const (
	// claimGranted: the body carries a token; polling is done.
	claimGranted claimDecision = iota

	// claimPending: the device reported pending_user_action; retry.
	claimPending

	// claimRefused: any other error; polling is over.
	claimRefused
)

// evaluateClaimResponse classifies a getClaimToken response body. Pure
// function of the body, so the retry policy can be tested without a
// device or a clock.
//
// The error value is matched by substring: devices embed
// pending_user_action in varied error shapes and the original protocol
// tolerated all of them.
func evaluateClaimResponse(body []byte) (*ClaimGrant, claimDecision) {
	if token, ok := jsonparse.GetValue(body, "token"); ok {
		grant := &ClaimGrant{Token: token}
		grant.AutomatedClaimURL, _ = jsonparse.GetValue(body, "automated_claim_url")
		grant.ClaimURL, _ = jsonparse.GetValue(body, "claim_url")
		return grant, claimGranted
	}

	if errValue, ok := jsonparse.GetValue(body, "error"); ok {
		if strings.Contains(errValue, pendingUserAction) {
			return nil, claimPending
		}
		return nil, claimRefused
	}

	// Neither token nor error: treat as refusal rather than pending so a
	// misbehaving device cannot keep the loop alive.
	return nil, claimRefused
}
