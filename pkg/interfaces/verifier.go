package interfaces

import "context"

// Identity is the result of verifying a bearer credential. Role is
// authoritative from the credential only.
type Identity struct {
	UserID      string
	DisplayName string
	Role        string
}

// CredentialVerifier validates the bearer credential presented at admission
// FUNCTIONAL DISCOVERY: Interface boundary lets tests admit connections with
// a stub verifier instead of minting signed tokens
type CredentialVerifier interface {
	// Verify returns the identity embedded in the credential, or
	// ErrInvalidCredential (possibly wrapped) when verification fails.
	Verify(ctx context.Context, token string) (*Identity, error)
}
