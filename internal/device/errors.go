package device

import (
	"errors"
	"fmt"
)

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrInvalidTransition) {
//	    // handle out-of-order protocol call
//	}
var (
	// ErrInvalidTransition is returned when an operation is attempted out
	// of registration state machine order.
	ErrInvalidTransition = errors.New("device: invalid state transition")

	// ErrNoClaimToken is returned when sending a claim requires session
	// fields that were never populated. No network call is made.
	ErrNoClaimToken = errors.New("device: no claim token obtained")

	// ErrNotRegistered is returned when an operation requires a cloud
	// device id and none is held. No network call is made.
	ErrNotRegistered = errors.New("device: no cloud device id")

	// ErrProtocol is returned when a response arrived but its payload
	// violates the expected shape.
	ErrProtocol = errors.New("device: protocol violation")

	// Capability document parse failures. All match ErrProtocol.
	ErrCDDEmpty          = fmt.Errorf("%w: empty capability document", ErrProtocol)
	ErrCDDNoPrinters     = fmt.Errorf("%w: capability document has no printers entry", ErrProtocol)
	ErrCDDNoCapabilities = fmt.Errorf("%w: printer record has no capabilities", ErrProtocol)
)
