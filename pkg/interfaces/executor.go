package interfaces

import "context"

// ExecutionResult is the sandbox's answer for one run. Output carries
// captured stdout/stderr regardless of success.
type ExecutionResult struct {
	Succeeded bool   `json:"succeeded"`
	Output    string `json:"output"`
}

// CommandExecutor is the opaque code-execution sandbox collaborator
// ARCHITECTURAL DISCOVERY: The session server invokes it synchronously but
// never holds a session lock across the call; failures are translated into
// terminal output at the call site and never reach the transport layer
type CommandExecutor interface {
	Execute(ctx context.Context, code, language string) (*ExecutionResult, error)
}
