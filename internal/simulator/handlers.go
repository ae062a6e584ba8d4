package simulator

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// handleInfo answers the unauthenticated info document carrying the
// session token.
func (s *Simulator) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body := fmt.Sprintf(`{"version":"1.0","name":%q,"model":%q,"x-privet-token":%q,"api":["/privet/register"]}`,
		s.opts.Name, s.opts.Model, s.privetToken)
	writeJSON(w, http.StatusOK, body)
}

// handleRegister dispatches the register action switch. Every action
// requires the session token and honours the protocol's ordering; calls
// out of order are rejected the way a real printer rejects them.
func (s *Simulator) handleRegister(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Header.Get("X-Privet-Token") != s.privetToken {
		writeJSON(w, http.StatusBadRequest, `{"error":"invalid_x_privet_token"}`)
		return
	}

	action := r.URL.Query().Get("action")
	if r.URL.Query().Get("user") == "" {
		writeJSON(w, http.StatusBadRequest, `{"error":"user_required"}`)
		return
	}

	switch action {
	case "start":
		s.registerStart(w)
	case "getClaimToken":
		s.registerGetClaimToken(w)
	case "complete":
		s.registerComplete(w)
	case "cancel":
		s.registerCancel(w)
	default:
		writeJSON(w, http.StatusBadRequest, `{"error":"invalid_action"}`)
	}
}

func (s *Simulator) registerStart(w http.ResponseWriter) {
	if s.state != stateIdle {
		writeJSON(w, http.StatusBadRequest, `{"error":"registration_in_progress"}`)
		return
	}

	s.state = stateStarted
	s.polls = 0
	s.logger.Debug("registration started")
	writeJSON(w, http.StatusOK, `{"action":"start"}`)
}

func (s *Simulator) registerGetClaimToken(w http.ResponseWriter) {
	if s.state != stateStarted && s.state != stateClaimIssued {
		writeJSON(w, http.StatusBadRequest, `{"error":"invalid_action"}`)
		return
	}

	if s.opts.FailClaim {
		writeJSON(w, http.StatusOK, `{"error":"user_cancel"}`)
		return
	}

	s.polls++
	if s.polls <= s.opts.PendingPolls {
		s.logger.Debug("claim token poll pending", "poll", s.polls)
		writeJSON(w, http.StatusOK, `{"error":"pending_user_action"}`)
		return
	}

	if s.claimToken == "" {
		s.claimToken = uuid.NewString()
	}
	s.state = stateClaimIssued

	body := fmt.Sprintf(`{"token":%q,"automated_claim_url":%q,"claim_url":%q}`,
		s.claimToken,
		fmt.Sprintf("%s/confirm?token=%s", s.cloudBaseURL, s.claimToken),
		fmt.Sprintf("%s/claim?token=%s", s.cloudBaseURL, s.claimToken))
	writeJSON(w, http.StatusOK, body)
}

func (s *Simulator) registerComplete(w http.ResponseWriter) {
	if s.state != stateClaimConfirmed {
		writeJSON(w, http.StatusBadRequest, `{"error":"invalid_action"}`)
		return
	}

	s.state = stateRegistered
	if s.opts.OmitDeviceID {
		s.logger.Debug("registration completed without device id")
		writeJSON(w, http.StatusOK, `{"action":"complete"}`)
		return
	}

	s.deviceID = uuid.NewString()
	s.logger.Debug("registration completed", "device_id", s.deviceID)
	writeJSON(w, http.StatusOK, fmt.Sprintf(`{"action":"complete","xmpp_device_id":%q}`, s.deviceID))
}

func (s *Simulator) registerCancel(w http.ResponseWriter) {
	s.state = stateIdle
	s.claimToken = ""
	s.polls = 0
	s.logger.Debug("registration cancelled")
	writeJSON(w, http.StatusOK, `{"action":"cancel"}`)
}

// handleConfirm is the automated claim endpoint the service hands out in
// automated_claim_url.
func (s *Simulator) handleConfirm(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := r.URL.Query().Get("token")
	if s.state != stateClaimIssued || token == "" || token != s.claimToken {
		writeJSON(w, http.StatusOK, `{"success":false}`)
		return
	}

	s.state = stateClaimConfirmed
	s.logger.Debug("claim confirmed")
	writeJSON(w, http.StatusOK, `{"success":true}`)
}

// handlePrinter serves the printer record with an embedded capability
// document.
func (s *Simulator) handlePrinter(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.URL.Query().Get("printerid")
	if s.state != stateRegistered || id == "" || id != s.deviceID {
		writeJSON(w, http.StatusOK, `{"success":false,"error":"printer not found"}`)
		return
	}

	body := fmt.Sprintf(`{"success":true,"printers":[{"id":%q,"name":%q,"model":%q,"connectionStatus":"ONLINE","capabilities":{"printer":{"color":{"option":[{"type":"STANDARD_COLOR"}]},"copies":{"default":1,"max":99}}}}]}`,
		s.deviceID, s.opts.Name, s.opts.Model)
	writeJSON(w, http.StatusOK, body)
}

// handleDelete removes the registration.
func (s *Simulator) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.URL.Query().Get("printerid")
	if s.state != stateRegistered || id == "" || id != s.deviceID {
		writeJSON(w, http.StatusOK, `{"success":false,"error":"printer not found"}`)
		return
	}

	s.state = stateIdle
	s.deviceID = ""
	s.claimToken = ""
	s.logger.Debug("registration deleted")
	writeJSON(w, http.StatusOK, `{"success":true}`)
}
