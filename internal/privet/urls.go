package privet

import (
	"fmt"
	"net/url"
)

// Register actions defined by the Privet protocol.
const (
	actionStart         = "start"
	actionGetClaimToken = "getClaimToken"
	actionComplete      = "complete"
	actionCancel        = "cancel"
)

// URLSet holds the endpoint URLs for one device, derived once from the
// device's address and the registering user. The device never changes
// address mid-run, so the set is immutable after construction.
type URLSet struct {
	Info                  string
	RegisterStart         string
	RegisterGetClaimToken string
	RegisterComplete      string
	RegisterCancel        string
}

// NewURLSet derives the Privet endpoint URLs for the device at ipv4:port.
// Register URLs carry the action and the registering user's email as query
// parameters, matching what certified devices expect.
func NewURLSet(ipv4 string, port int, user string) URLSet {
	base := fmt.Sprintf("http://%s:%d/privet", ipv4, port)

	register := func(action string) string {
		return fmt.Sprintf("%s/register?action=%s&user=%s", base, action, url.QueryEscape(user))
	}

	return URLSet{
		Info:                  base + "/info",
		RegisterStart:         register(actionStart),
		RegisterGetClaimToken: register(actionGetClaimToken),
		RegisterComplete:      register(actionComplete),
		RegisterCancel:        register(actionCancel),
	}
}
