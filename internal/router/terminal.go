package router

import (
	"context"
	"log"
	"strings"

	"classhub/internal/metrics"
	"classhub/internal/session"
	"classhub/pkg/interfaces"
	"classhub/pkg/types"
)

// Terminal command classification
// FUNCTIONAL DISCOVERY: The shared terminal is not a shell. It recognizes
// exactly three command shapes - run the active file, a package install
// attempt, and everything else - and answers each with fixed text.
type commandKind int

const (
	cmdEmpty commandKind = iota
	cmdRun
	cmdInstall
	cmdUnknown
)

// Interpreter/runtime names that trigger a run of the active file.
var runtimeNames = map[string]bool{
	"python":  true,
	"python3": true,
	"node":    true,
	"nodejs":  true,
	"java":    true,
	"ruby":    true,
	"go":      true,
}

// Package managers students reach for out of habit.
var installCommands = map[string]bool{
	"pip":     true,
	"pip3":    true,
	"npm":     true,
	"yarn":    true,
	"gem":     true,
	"apt":     true,
	"apt-get": true,
}

const (
	execFailureMessage        = "Error: code execution failed."
	noActiveFileMessage       = "Error: no file is open to run."
	installUnsupportedMessage = "Package installation is not supported here. Ask your instructor."
)

// handleTerminalInput feeds keystrokes through the session's line buffer and
// interprets each completed command line.
func (r *Router) handleTerminalInput(ctx context.Context, sess *session.Session, data string) {
	for _, line := range sess.TerminalInput(data) {
		r.executeCommandLine(ctx, sess, line)
	}
}

// executeCommandLine interprets one trimmed command line. The CR echo has
// already been appended, so every branch ends by appending a fresh prompt.
func (r *Router) executeCommandLine(ctx context.Context, sess *session.Session, line string) {
	kind, name := classifyCommand(line)

	switch kind {
	case cmdEmpty:
		sess.AppendTerminal(types.TerminalPrompt)

	case cmdRun:
		file, ok := sess.ActiveFile()
		if !ok {
			sess.AppendTerminal(noActiveFileMessage + "\r\n" + types.TerminalPrompt)
			return
		}

		execCtx, cancel := context.WithTimeout(ctx, r.execTimeout)
		defer cancel()

		result, err := r.executor.Execute(execCtx, file.Content, file.Language)
		if err != nil {
			log.Printf("Terminal run failed for session %s: %v", sess.SessionKey(), err)
			metrics.ExecutorRuns.WithLabelValues("error").Inc()
			sess.AppendTerminal(formatExecFailure())
			return
		}
		if result.Succeeded {
			metrics.ExecutorRuns.WithLabelValues("ok").Inc()
		} else {
			metrics.ExecutorRuns.WithLabelValues("failed").Inc()
		}
		sess.AppendTerminal(formatExecResult(result))

	case cmdInstall:
		sess.AppendTerminal(installUnsupportedMessage + "\r\n" + types.TerminalPrompt)

	default:
		sess.AppendTerminal(name + ": command not found\r\n" + types.TerminalPrompt)
	}
}

// classifyCommand splits a trimmed command line into its kind plus the
// command name for the not-found message.
func classifyCommand(line string) (commandKind, string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return cmdEmpty, ""
	}
	if len(fields) == 2 && runtimeNames[fields[0]] {
		return cmdRun, fields[0]
	}
	if installCommands[fields[0]] {
		return cmdInstall, fields[0]
	}
	return cmdUnknown, fields[0]
}

// formatExecResult renders a sandbox result as terminal text followed by a
// fresh prompt. Output is shown for failed runs too - that is where the
// compiler or interpreter error lives.
func formatExecResult(result *interfaces.ExecutionResult) string {
	out := normalizeNewlines(result.Output)
	if out != "" && !strings.HasSuffix(out, "\r\n") {
		out += "\r\n"
	}
	return out + types.TerminalPrompt
}

// formatExecFailure renders the generic sandbox-failure line.
func formatExecFailure() string {
	return execFailureMessage + "\r\n" + types.TerminalPrompt
}

// normalizeNewlines converts sandbox output to the CRLF endings the terminal
// widget expects.
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}
