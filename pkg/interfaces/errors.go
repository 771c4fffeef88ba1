package interfaces

import "errors"

// Common interface errors used across components
var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrClassNotFound     = errors.New("class not found")
)
