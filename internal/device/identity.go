package device

import "fmt"

// Identity fixes which physical printer a coordinator drives. It is set
// once at construction and never mutated; registration state lives on the
// coordinator, not here.
type Identity struct {
	// Name is the printer's display name, used in logs and history rows.
	Name string

	// Model is the manufacturer model string, informational only.
	Model string

	// IPv4 and Port locate the printer's local Privet endpoint.
	IPv4 string
	Port int

	// User is the account email the registration is claimed for.
	User string
}

// Validate checks that the identity can address a real endpoint.
func (id Identity) Validate() error {
	if id.Name == "" {
		return fmt.Errorf("printer name is required")
	}
	if id.IPv4 == "" {
		return fmt.Errorf("printer ipv4 address is required")
	}
	if id.Port < 1 || id.Port > 65535 {
		return fmt.Errorf("printer port %d out of range", id.Port)
	}
	if id.User == "" {
		return fmt.Errorf("claiming user is required")
	}
	return nil
}
