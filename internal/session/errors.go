package session

import "errors"

// Session aggregate error types
var (
	ErrNilClient     = errors.New("client cannot be nil")
	ErrSessionClosed = errors.New("session has been removed")
)
