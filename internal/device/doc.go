// Package device drives a printer under test through cloud registration.
//
// The Coordinator is the centre of the harness: it owns the registration
// state machine and sequences the local Privet handshake against the
// remote service's claim and delete endpoints.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────────┐
//	│                          Coordinator                             │
//	│                                                                  │
//	│  ┌───────────────┐   ┌────────────────┐   ┌──────────────────┐  │
//	│  │   RegState    │   │    Session     │   │  StatusSnapshot  │  │
//	│  │  (state.go)   │   │(coordinator.go)│   │   (status.go)    │  │
//	│  │               │   │                │   │                  │  │
//	│  │ • transitions │   │ • claim token  │   │ • batch refresh  │  │
//	│  │ • ordering    │   │ • claim URLs   │   │ • Missing()      │  │
//	│  └───────────────┘   └────────────────┘   └──────────────────┘  │
//	│        │                     │                     │            │
//	└────────│─────────────────────│─────────────────────│────────────┘
//	         ▼                     ▼                     ▼
//	┌─────────────────┐   ┌─────────────────┐   ┌─────────────────┐
//	│  PrivetDriver   │   │  CloudService   │   │ console.Console │
//	│ (privet.Client) │   │ (cloud.Client)  │   │ (cloud or snmp) │
//	└─────────────────┘   └─────────────────┘   └─────────────────┘
//
// Registration follows a strict order, enforced by the state machine
// rather than by callers:
//
//	Unclaimed → Started → ClaimTokenObtained → ClaimSent → Completed → Unregistered
//
// Cancelled and Failed are reachable from any non-terminal state. Every
// transition is optionally recorded to the registration_events table via
// EventRepository, keyed by a per-run UUID.
//
// Thread Safety:
//   - A Coordinator is NOT safe for concurrent use. The protocol itself
//     is ordered; run one coordinator per printer, one operation at a
//     time.
//   - EventRepository implementations are safe for concurrent use.
package device
