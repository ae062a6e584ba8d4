package device

import "fmt"

// RegState is the registration state of a printer under test.
//
// The success path is strictly ordered:
//
//	Unclaimed → Started → ClaimTokenObtained → ClaimSent → Completed → Unregistered
//
// Cancelled and Failed are reachable from any non-terminal state.
// Cancelled, Failed and Unregistered are terminal.
type RegState int

const (
	Unclaimed RegState = iota
	Started
	ClaimTokenObtained
	ClaimSent
	Completed
	Cancelled
	Failed
	Unregistered
)

var regStateNames = map[RegState]string{
	Unclaimed:          "unclaimed",
	Started:            "started",
	ClaimTokenObtained: "claim_token_obtained",
	ClaimSent:          "claim_sent",
	Completed:          "completed",
	Cancelled:          "cancelled",
	Failed:             "failed",
	Unregistered:       "unregistered",
}

func (s RegState) String() string {
	if name, ok := regStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("regstate(%d)", int(s))
}

// ParseRegState maps a state name back to its RegState value.
func ParseRegState(name string) (RegState, bool) {
	for state, n := range regStateNames {
		if n == name {
			return state, true
		}
	}
	return Unclaimed, false
}

// Terminal reports whether no further transitions leave s.
func (s RegState) Terminal() bool {
	switch s {
	case Cancelled, Failed, Unregistered:
		return true
	case Completed:
		// Completed still allows unregistration.
		return false
	default:
		return false
	}
}

// canTransition is the registration state machine's edge table.
var canTransition = map[RegState][]RegState{
	Unclaimed:          {Started, Cancelled, Failed},
	Started:            {ClaimTokenObtained, Cancelled, Failed},
	ClaimTokenObtained: {ClaimSent, Cancelled, Failed},
	ClaimSent:          {Completed, Cancelled, Failed},
	Completed:          {Unregistered},
	Cancelled:          nil,
	Failed:             nil,
	Unregistered:       nil,
}

// validTransition reports whether the state machine permits from → to.
func validTransition(from, to RegState) bool {
	for _, next := range canTransition[from] {
		if next == to {
			return true
		}
	}
	return false
}
