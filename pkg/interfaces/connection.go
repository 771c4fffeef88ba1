package interfaces

// Connection is the transport handle a session client writes to
// ARCHITECTURAL DISCOVERY: Pure abstraction without implementation details
// keeps the session aggregate independent of the WebSocket package and lets
// tests drive the fan-out logic with in-memory connections
type Connection interface {
	// WriteJSON sends a JSON message to the client. Implementations must be
	// safe for concurrent use; the WebSocket implementation serializes writes
	// through a single writer goroutine.
	WriteJSON(v interface{}) error

	// Close closes the connection and releases its resources. Idempotent.
	Close() error
}
