package types

import "errors"

// ARCHITECTURAL DISCOVERY: Specific error types enable proper error handling
// at the deserialization boundary without leaking details to clients
var (
	ErrMalformedEnvelope = errors.New("malformed message envelope")
	ErrMalformedPayload  = errors.New("malformed message payload")
	ErrMessageTooLarge   = errors.New("message exceeds 64KB limit")
	ErrInvalidUserID     = errors.New("user ID must be 1-50 characters, alphanumeric + underscore/hyphen only")
	ErrInvalidSessionKey = errors.New("session key must be 1-100 characters, alphanumeric + underscore/hyphen only")
	ErrInvalidRole       = errors.New("invalid role: must be 'teacher' or 'student'")
)
