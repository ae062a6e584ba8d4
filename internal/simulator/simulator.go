// Package simulator provides an in-process fake of a Privet printer and
// the minimal slice of the cloud service the harness talks to.
//
// It backs the `simulate` subcommand and the end-to-end tests: the privet
// handler enforces the same session token and action ordering a real
// printer does, and the cloud handler issues claim confirmations, printer
// records and deletions against the simulator's own registration state.
package simulator

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nerrad567/privet-harness/internal/infrastructure/logging"
)

// Registration progression tracked by the fake printer.
type simState int

const (
	stateIdle simState = iota
	stateStarted
	stateClaimIssued
	stateClaimConfirmed
	stateRegistered
)

// Options tunes the simulated printer's behaviour.
type Options struct {
	// Name and Model are echoed in the info document and printer record.
	Name  string
	Model string

	// PendingPolls is how many getClaimToken calls answer
	// pending_user_action before a claim token is issued. Zero grants on
	// the first poll.
	PendingPolls int

	// FailClaim makes getClaimToken answer a terminal error instead of
	// ever issuing a token.
	FailClaim bool

	// OmitDeviceID completes registration without a device id in the
	// response, which a real service is allowed to do.
	OmitDeviceID bool

	// CloudBaseURL is the externally reachable base of the simulator's
	// cloud handler, used to build the automated claim URL. Set it after
	// the test server is listening via SetCloudBaseURL when the address
	// is not known up front.
	CloudBaseURL string

	Logger *logging.Logger
}

// Simulator is the shared state behind both handlers.
type Simulator struct {
	opts   Options
	logger *logging.Logger

	mu           sync.Mutex
	state        simState
	privetToken  string
	claimToken   string
	deviceID     string
	polls        int
	cloudBaseURL string
}

// New creates a simulator with a fresh privet session token.
func New(opts Options) *Simulator {
	if opts.Name == "" {
		opts.Name = "simulated-printer"
	}
	if opts.Model == "" {
		opts.Model = "harness-sim-1"
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Simulator{
		opts:         opts,
		logger:       logger.With("component", "simulator", "printer", opts.Name),
		state:        stateIdle,
		privetToken:  uuid.NewString(),
		cloudBaseURL: opts.CloudBaseURL,
	}
}

// SetCloudBaseURL fixes the base URL used in automated claim URLs. Call it
// once the cloud handler's listener address is known.
func (s *Simulator) SetCloudBaseURL(base string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cloudBaseURL = base
}

// PrivetToken exposes the session token for tests asserting on it.
func (s *Simulator) PrivetToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.privetToken
}

// Registered reports whether the fake printer currently holds a cloud
// registration.
func (s *Simulator) Registered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateRegistered
}

// DeviceID returns the id issued at completion, "" before then.
func (s *Simulator) DeviceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deviceID
}

// PrivetHandler serves the printer's local protocol surface.
func (s *Simulator) PrivetHandler() http.Handler {
	r := chi.NewRouter()
	r.Get("/privet/info", s.handleInfo)
	r.Post("/privet/register", s.handleRegister)
	return r
}

// CloudHandler serves the service side: claim confirmation, printer
// lookup and deletion.
func (s *Simulator) CloudHandler() http.Handler {
	r := chi.NewRouter()
	r.Post("/confirm", s.handleConfirm)
	r.Get("/printer", s.handlePrinter)
	r.Post("/delete", s.handleDelete)
	return r
}

// Handler mounts both surfaces on one router, for serving the whole
// simulator from a single listener.
func (s *Simulator) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/privet/info", s.handleInfo)
	r.Post("/privet/register", s.handleRegister)
	r.Post("/confirm", s.handleConfirm)
	r.Get("/printer", s.handlePrinter)
	r.Post("/delete", s.handleDelete)
	return r
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}
