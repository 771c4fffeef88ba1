package router

import (
	"context"
	"log"
	"time"

	"classhub/internal/metrics"
	"classhub/internal/session"
	"classhub/pkg/interfaces"
	"classhub/pkg/types"
)

// Router dispatches inbound messages for attached connections
// ARCHITECTURAL DISCOVERY: Pure dispatch logic - authorization and payload
// decoding live here, state mutation and fan-out live on the Session
type Router struct {
	executor    interfaces.CommandExecutor
	execTimeout time.Duration
}

// NewRouter creates a message router. execTimeout bounds every sandbox call
// so an in-flight execution cannot outlive a disconnect by more than that.
func NewRouter(executor interfaces.CommandExecutor, execTimeout time.Duration) *Router {
	if execTimeout <= 0 {
		execTimeout = 10 * time.Second
	}
	return &Router{
		executor:    executor,
		execTimeout: execTimeout,
	}
}

// Dispatch routes one inbound frame from an attached client.
//
// The precedence order is fixed and load-bearing: private relay, then the
// homework branch, then student self-service, then the role gate, then
// teacher actions. The homework branch is checked before the role gate for
// every role, so a homework-mode connection never reaches teacher handling.
// Authorization violations and unknown types are dropped silently with no
// state change.
func (r *Router) Dispatch(ctx context.Context, sess *session.Session, c *session.Client, data []byte) {
	env, err := types.ParseEnvelope(data)
	if err != nil {
		// Malformed frames are logged and dropped; the connection stays open.
		log.Printf("Dropping malformed message from user %s: %v", c.UserID, err)
		metrics.MessagesDropped.WithLabelValues("malformed").Inc()
		return
	}
	metrics.MessagesReceived.Inc()

	// Types outside the inbound catalogue are dropped before any branch can
	// look at them; outbound type strings echoed back by a confused client
	// land here too.
	if !types.IsInboundMessageType(env.Type) {
		metrics.MessagesDropped.WithLabelValues("unknown").Inc()
		return
	}

	// 1. Private relay: any role, any mode.
	if env.Type == types.MessageTypePrivateMessage {
		var p types.PrivateMessagePayload
		if err := env.DecodePayload(&p); err != nil || p.To == "" {
			return
		}
		sess.RelayPrivate(c.UserID, p.To, p.Text)
		return
	}

	// 2. Homework-mode messages short-circuit before the role gate.
	if c.Homework {
		r.dispatchHomework(sess, c, env)
		return
	}

	// 3. Student self-service.
	if env.Type == types.MessageTypeRaiseHand && c.Role == types.RoleStudent {
		sess.ToggleHand(c.UserID)
		return
	}

	// 4. Role gate: everything below is teacher-only.
	if c.Role != types.RoleTeacher {
		metrics.MessagesDropped.WithLabelValues("unauthorized").Inc()
		return
	}

	// 5. Teacher actions.
	switch env.Type {
	case types.MessageTypeToggleWhiteboard:
		sess.ToggleWhiteboard()

	case types.MessageTypeWhiteboardDraw:
		var p types.WhiteboardDrawPayload
		if err := env.DecodePayload(&p); err != nil {
			return
		}
		sess.AppendWhiteboardLine(p.Line)

	case types.MessageTypeWhiteboardClear:
		sess.ClearWhiteboard()

	case types.MessageTypeTakeControl:
		var p types.TakeControlPayload
		if err := env.DecodePayload(&p); err != nil {
			return
		}
		sess.SetControlledStudent(p.StudentID)

	case types.MessageTypeToggleFreeze:
		sess.ToggleFreeze()

	case types.MessageTypeTeacherDirectEdit:
		var p types.TeacherDirectEditPayload
		if err := env.DecodePayload(&p); err != nil || p.StudentID == "" {
			return
		}
		sess.DirectEditWorkspace(p.StudentID, p.Workspace)

	case types.MessageTypeSpotlightStudent:
		var p types.SpotlightStudentPayload
		if err := env.DecodePayload(&p); err != nil {
			return
		}
		sess.SetSpotlight(p.StudentID)

	case types.MessageTypeTeacherCodeUpdate:
		var p types.TeacherCodeUpdatePayload
		if err := env.DecodePayload(&p); err != nil {
			return
		}
		sess.UpdateTeacherCode(p.Files, p.ActiveFileName)

	case types.MessageTypeAssignHomework:
		var p types.AssignHomeworkPayload
		if err := env.DecodePayload(&p); err != nil || p.StudentID == "" {
			return
		}
		sess.AssignHomework(p.StudentID, p.LessonID, p.Title)

	case types.MessageTypeTerminalIn:
		var p types.TerminalInPayload
		if err := env.DecodePayload(&p); err != nil {
			return
		}
		r.handleTerminalInput(ctx, sess, p.Data)

	case types.MessageTypeRunCode:
		var p types.RunCodePayload
		if err := env.DecodePayload(&p); err != nil {
			return
		}
		r.runCode(ctx, sess, p.Code, p.Language)

	default:
		// Inbound types with no teacher action here: the homework-only and
		// student-only messages arriving on a teacher's main connection.
		metrics.MessagesDropped.WithLabelValues("unauthorized").Inc()
	}
}

// dispatchHomework handles the homework branch: only workspace updates and
// terminal relay, and only while a teacher is attached.
func (r *Router) dispatchHomework(sess *session.Session, c *session.Client, env *types.Envelope) {
	if !sess.HasTeacher() {
		metrics.MessagesDropped.WithLabelValues("no_teacher").Inc()
		return
	}

	switch env.Type {
	case types.MessageTypeHomeworkCodeUpdate:
		var p types.HomeworkCodeUpdatePayload
		if err := env.DecodePayload(&p); err != nil {
			return
		}
		sess.UpdateStudentWorkspace(c.UserID, p.Workspace)

	case types.MessageTypeHomeworkTerminalIn:
		var p types.HomeworkTerminalInPayload
		if err := env.DecodePayload(&p); err != nil {
			return
		}
		sess.RelayHomeworkTerminal(c.UserID, p.Data)
	}
}

// runCode invokes the sandbox and appends the formatted result plus a fresh
// prompt to the shared terminal. Executor failures degrade to a terminal
// error line; they never reach the transport layer.
// FUNCTIONAL DISCOVERY: The sandbox call happens outside the session lock so
// broadcasts from other clients stay deliverable while code runs.
func (r *Router) runCode(ctx context.Context, sess *session.Session, code, language string) {
	execCtx, cancel := context.WithTimeout(ctx, r.execTimeout)
	defer cancel()

	result, err := r.executor.Execute(execCtx, code, language)
	if err != nil {
		log.Printf("Code execution failed for session %s: %v", sess.SessionKey(), err)
		metrics.ExecutorRuns.WithLabelValues("error").Inc()
		sess.AppendTerminal("\r\n" + formatExecFailure())
		return
	}

	if result.Succeeded {
		metrics.ExecutorRuns.WithLabelValues("ok").Inc()
	} else {
		metrics.ExecutorRuns.WithLabelValues("failed").Inc()
	}
	sess.AppendTerminal("\r\n" + formatExecResult(result))
}
