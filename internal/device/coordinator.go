package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nerrad567/privet-harness/internal/console"
	"github.com/nerrad567/privet-harness/internal/infrastructure/logging"
	"github.com/nerrad567/privet-harness/internal/privet"
	"github.com/nerrad567/privet-harness/internal/transport"
)

// PrivetDriver is the local-network side of the registration handshake.
// Implemented by privet.Client.
type PrivetDriver interface {
	FetchInfo(ctx context.Context) error
	StartRegistration(ctx context.Context) error
	GetClaimToken(ctx context.Context) (*privet.ClaimGrant, error)
	FinishRegistration(ctx context.Context) (string, error)
	CancelRegistration(ctx context.Context) (int, error)
	Token() string
}

// CloudService is the remote side of registration. Implemented by
// cloud.Client.
type CloudService interface {
	SubmitClaim(ctx context.Context, automatedClaimURL, authToken string) error
	DeletePrinter(ctx context.Context, printerID, authToken string) error
}

// Session holds the claim credentials issued during a registration run.
// All fields are zero until a claim poll succeeds; operations that need
// them must check, not assume.
type Session struct {
	ClaimToken        string
	AutomatedClaimURL string
	ClaimURL          string
}

// Completion reports the outcome of FinishRegistration. The service
// contract allows the completion response to omit the device id, so "done,
// but no id" is a distinct outcome rather than a failure.
type Completion struct {
	CloudDeviceID string
}

// WithoutID reports whether registration completed without the service
// issuing a cloud device id.
func (c Completion) WithoutID() bool {
	return c.CloudDeviceID == ""
}

// Coordinator drives one printer through the registration protocol. It
// owns the state machine; the ordering rules (no claim before start, no
// completion before the claim is sent) are enforced here, not by callers.
//
// A coordinator is single-flight: it assumes one operation at a time, per
// the protocol's inherent ordering. Run one coordinator per printer.
type Coordinator struct {
	identity Identity
	privet   PrivetDriver
	cloud    CloudService
	console  console.Console
	history  EventRepository
	logger   *logging.Logger

	runID         string
	state         RegState
	session       Session
	cloudDeviceID string

	snapshot        StatusSnapshot
	refreshAttempts int
}

// CoordinatorConfig wires a Coordinator's collaborators.
type CoordinatorConfig struct {
	Identity Identity
	Privet   PrivetDriver
	Cloud    CloudService
	Console  console.Console

	// History is optional; when nil, transitions are not persisted.
	History EventRepository

	// RefreshAttempts bounds the status refresh batch loop.
	// Defaults to DefaultRefreshAttempts when zero.
	RefreshAttempts int

	Logger *logging.Logger
}

// NewCoordinator creates a coordinator in the Unclaimed state with a fresh
// run id.
func NewCoordinator(cfg CoordinatorConfig) (*Coordinator, error) {
	if err := cfg.Identity.Validate(); err != nil {
		return nil, fmt.Errorf("invalid printer identity: %w", err)
	}
	if cfg.Privet == nil {
		return nil, fmt.Errorf("privet driver is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	attempts := cfg.RefreshAttempts
	if attempts < 1 {
		attempts = DefaultRefreshAttempts
	}

	runID := uuid.NewString()
	return &Coordinator{
		identity:        cfg.Identity,
		privet:          cfg.Privet,
		cloud:           cfg.Cloud,
		console:         cfg.Console,
		history:         cfg.History,
		logger:          logger.With("component", "coordinator", "printer", cfg.Identity.Name, "run_id", runID),
		runID:           runID,
		state:           Unclaimed,
		refreshAttempts: attempts,
	}, nil
}

// Identity returns the printer this coordinator drives.
func (c *Coordinator) Identity() Identity { return c.identity }

// State returns the current registration state.
func (c *Coordinator) State() RegState { return c.state }

// Session returns the claim credentials held for the current run.
func (c *Coordinator) Session() Session { return c.session }

// CloudDeviceID returns the service-issued id, "" until registration
// completes with one.
func (c *Coordinator) CloudDeviceID() string { return c.cloudDeviceID }

// RunID returns the identifier tying this run's history rows together.
func (c *Coordinator) RunID() string { return c.runID }

// transition moves the state machine and records the move. A history
// write failure is logged, not surfaced; losing an audit row must not fail
// a registration that the printer has already acted on.
func (c *Coordinator) transition(ctx context.Context, to RegState, detail string) error {
	if !validTransition(c.state, to) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, c.state, to)
	}

	from := c.state
	c.state = to
	c.logger.Info("registration state changed",
		"from", from.String(),
		"to", to.String(),
		"detail", detail)

	if c.history != nil {
		event := Event{
			RunID:       c.runID,
			PrinterName: c.identity.Name,
			FromState:   from,
			ToState:     to,
			Detail:      detail,
		}
		if err := c.history.Record(ctx, event); err != nil {
			c.logger.Warn("recording registration event failed", "error", err)
		}
	}
	return nil
}

// require rejects the operation unless the machine is in want.
func (c *Coordinator) require(want RegState) error {
	if c.state != want {
		return fmt.Errorf("%w: operation requires state %s, currently %s", ErrInvalidTransition, want, c.state)
	}
	return nil
}

// Connect fetches the printer's info document and captures its session
// token. It does not change registration state; info is readable at any
// point in the lifecycle.
func (c *Coordinator) Connect(ctx context.Context) error {
	return c.privet.FetchInfo(ctx)
}

// Start begins registration. On failure the coordinator stays Unclaimed:
// a start that never reached the printer is retryable at the caller's
// discretion.
func (c *Coordinator) Start(ctx context.Context) error {
	if err := c.require(Unclaimed); err != nil {
		return err
	}

	if err := c.privet.StartRegistration(ctx); err != nil {
		c.logger.Warn("registration start failed", "error", err)
		return err
	}
	return c.transition(ctx, Started, "privet register start accepted")
}

// ObtainClaimToken polls the printer for a claim token. Terminal poll
// failures (explicit error or exhausted attempts) move the run to Failed.
func (c *Coordinator) ObtainClaimToken(ctx context.Context) error {
	if err := c.require(Started); err != nil {
		return err
	}

	grant, err := c.privet.GetClaimToken(ctx)
	if err != nil {
		if terr := c.transition(ctx, Failed, fmt.Sprintf("claim token poll: %v", err)); terr != nil {
			c.logger.Warn("failed state transition rejected", "error", terr)
		}
		return err
	}

	c.session = Session{
		ClaimToken:        grant.Token,
		AutomatedClaimURL: grant.AutomatedClaimURL,
		ClaimURL:          grant.ClaimURL,
	}
	return c.transition(ctx, ClaimTokenObtained, "claim token issued")
}

// SendClaimToken submits the held claim token to the service's automated
// claim endpoint. Missing session fields are a protocol-use error and
// fail before any network call. A service rejection is definite and moves
// the run to Failed; a transport failure leaves the state unchanged so the
// caller may retry.
func (c *Coordinator) SendClaimToken(ctx context.Context, authToken string) error {
	if err := c.require(ClaimTokenObtained); err != nil {
		return err
	}
	if c.session.ClaimToken == "" || c.session.AutomatedClaimURL == "" {
		return ErrNoClaimToken
	}

	if err := c.cloud.SubmitClaim(ctx, c.session.AutomatedClaimURL, authToken); err != nil {
		if errors.Is(err, transport.ErrTransport) {
			c.logger.Warn("claim submission did not reach the service", "error", err)
			return err
		}
		if terr := c.transition(ctx, Failed, fmt.Sprintf("claim rejected: %v", err)); terr != nil {
			c.logger.Warn("failed state transition rejected", "error", terr)
		}
		return err
	}
	return c.transition(ctx, ClaimSent, "claim accepted by service")
}

// FinishRegistration completes the handshake on the printer. When the
// completion response carries no device id the transition still completes;
// the returned Completion reports that distinctly.
func (c *Coordinator) FinishRegistration(ctx context.Context) (Completion, error) {
	if err := c.require(ClaimSent); err != nil {
		return Completion{}, err
	}

	deviceID, err := c.privet.FinishRegistration(ctx)
	if err != nil {
		if errors.Is(err, transport.ErrTransport) {
			c.logger.Warn("registration completion did not reach the printer", "error", err)
			return Completion{}, err
		}
		if terr := c.transition(ctx, Failed, fmt.Sprintf("completion rejected: %v", err)); terr != nil {
			c.logger.Warn("failed state transition rejected", "error", terr)
		}
		return Completion{}, err
	}

	c.cloudDeviceID = deviceID
	detail := "registration completed"
	if deviceID == "" {
		detail = "registration completed without device id"
	}
	if err := c.transition(ctx, Completed, detail); err != nil {
		return Completion{}, err
	}
	return Completion{CloudDeviceID: deviceID}, nil
}

// Cancel aborts an in-flight registration. The cancel call to the printer
// is best-effort: the coordinator lands in Cancelled whatever the printer
// answers, and the session is discarded.
func (c *Coordinator) Cancel(ctx context.Context) error {
	if !validTransition(c.state, Cancelled) {
		return fmt.Errorf("%w: cannot cancel from %s", ErrInvalidTransition, c.state)
	}

	status, err := c.privet.CancelRegistration(ctx)
	if err != nil {
		c.logger.Warn("privet cancel call failed", "error", err)
	} else {
		c.logger.Debug("privet cancel answered", "status", status)
	}

	c.session = Session{}
	return c.transition(ctx, Cancelled, "registration cancelled")
}

// Unregister deletes the printer's cloud registration. It requires a
// completed run holding a cloud device id; without one it fails before
// any network call. On failure the registration is presumed still active
// and the state stays Completed.
func (c *Coordinator) Unregister(ctx context.Context, authToken string) error {
	if err := c.require(Completed); err != nil {
		return err
	}
	if c.cloudDeviceID == "" {
		return ErrNotRegistered
	}

	if err := c.cloud.DeletePrinter(ctx, c.cloudDeviceID, authToken); err != nil {
		c.logger.Warn("cloud delete failed, registration presumed active", "error", err)
		return err
	}

	c.cloudDeviceID = ""
	return c.transition(ctx, Unregistered, "cloud registration deleted")
}
