// Package privet implements the local-network side of the Privet
// registration handshake.
//
// Privet is the discovery/control HTTP protocol spoken by printer-class
// devices on the local network. Registration is a strict sequence:
//
//	info -> register?action=start -> register?action=getClaimToken (poll)
//	     -> register?action=complete
//
// with register?action=cancel available to abort. The info call hands out
// an X-Privet-Token session token which authenticates the register calls.
//
// This package owns URL derivation, the session token, and the claim
// token poll policy. It does not own registration state; that lives in
// the device package's coordinator, which sequences these calls.
package privet
