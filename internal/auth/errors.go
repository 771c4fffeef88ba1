package auth

import "errors"

// Credential verification error types. Each folds into
// interfaces.ErrInvalidCredential at the Verify boundary.
var (
	ErrMissingSubject    = errors.New("credential has no usable subject")
	ErrUnknownRole       = errors.New("credential role is not recognized")
	ErrRevokedCredential = errors.New("credential has been revoked")
)
