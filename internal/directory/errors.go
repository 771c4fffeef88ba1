package directory

import "errors"

// Directory manager error types
var (
	ErrManagerClosed    = errors.New("directory manager is closed")
	ErrWriteTimeout     = errors.New("directory write timed out")
	ErrInvalidClassInfo = errors.New("class info must include a session id")
)
