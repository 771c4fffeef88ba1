package websocket

import "errors"

// Connection-related errors
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrWriteTimeout     = errors.New("write timeout")
	ErrInvalidJSON      = errors.New("invalid JSON data")
)

// Admission close codes, in the private 4000 range so clients can
// distinguish refusal causes without parsing reason text.
const (
	CloseInvalidCredential = 4401
	CloseUnknownClass      = 4404
)
