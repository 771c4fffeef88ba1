package websocket

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"classhub/internal/metrics"
	"classhub/internal/router"
	"classhub/internal/session"
	"classhub/pkg/interfaces"
	"classhub/pkg/types"
)

// Options carries the transport tuning knobs from configuration.
type Options struct {
	WriteBufferSize  int
	WriteTimeout     time.Duration
	PingInterval     time.Duration
	ReadTimeout      time.Duration
	HandshakeTimeout time.Duration
}

// DefaultOptions returns classroom-scale transport settings.
func DefaultOptions() Options {
	return Options{
		WriteBufferSize:  100,
		WriteTimeout:     5 * time.Second,
		PingInterval:     30 * time.Second,
		ReadTimeout:      60 * time.Second,
		HandshakeTimeout: 10 * time.Second,
	}
}

// Handler performs connection admission and runs per-connection read loops
// ARCHITECTURAL DISCOVERY: Admission resolves identity and session before any
// state mutation; every refusal closes with a distinguishing code and touches
// nothing
type Handler struct {
	registry  *session.Registry
	verifier  interfaces.CredentialVerifier
	directory interfaces.Directory
	router    *router.Router
	upgrader  websocket.Upgrader
	opts      Options
}

// NewHandler creates a WebSocket handler with its collaborators injected.
func NewHandler(registry *session.Registry, verifier interfaces.CredentialVerifier, directory interfaces.Directory, msgRouter *router.Router, opts Options) *Handler {
	return &Handler{
		registry:  registry,
		verifier:  verifier,
		directory: directory,
		router:    msgRouter,
		opts:      opts,
		upgrader: websocket.Upgrader{
			// Origin checking belongs to the fronting proxy in deployment.
			CheckOrigin:      func(r *http.Request) bool { return true },
			HandshakeTimeout: opts.HandshakeTimeout,
		},
	}
}

// HandleWebSocket admits one transport connection.
//
// Query parameters: sessionId and token are required; teacherSessionId plus
// lessonId together select homework mode, in which case the effective session
// key is teacherSessionId and the class must already exist.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	rawConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	conn := NewConnection(rawConn, h.opts.WriteBufferSize, h.opts.WriteTimeout)

	query := r.URL.Query()
	sessionKey := query.Get("sessionId")
	token := query.Get("token")
	teacherSessionKey := query.Get("teacherSessionId")
	lessonID := query.Get("lessonId")

	if sessionKey == "" || token == "" || !types.IsValidSessionKey(sessionKey) {
		metrics.AdmissionRejections.WithLabelValues("missing_params").Inc()
		_ = conn.CloseWithCode(websocket.ClosePolicyViolation, "sessionId and token are required")
		return
	}

	verifyCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	identity, err := h.verifier.Verify(verifyCtx, token)
	cancel()
	if err != nil {
		log.Printf("Credential verification failed for session %s: %v", sessionKey, err)
		metrics.AdmissionRejections.WithLabelValues("bad_credential").Inc()
		_ = conn.CloseWithCode(CloseInvalidCredential, "credential verification failed")
		return
	}

	// Homework mode requires both parameters; either one alone is ignored.
	isHomework := teacherSessionKey != "" && lessonID != ""

	client := session.NewClient(identity, isHomework, conn)

	// Fetch-and-attach loop. A session fetched from the registry may be
	// marked removed by a concurrent teardown before Attach; it then refuses
	// the attach and the loop fetches a fresh aggregate. A homework join
	// cannot recreate its parent class, so for it a removed session means
	// the class is gone.
	var sess *session.Session
	var evicted *session.Client
	for {
		if isHomework {
			existing, ok := h.registry.Get(teacherSessionKey)
			if !ok {
				// A student cannot open homework for a class that is not live.
				metrics.AdmissionRejections.WithLabelValues("unknown_class").Inc()
				_ = conn.CloseWithCode(CloseUnknownClass, "class session does not exist")
				return
			}
			sess = existing
		} else {
			created := false
			sess, created = h.registry.GetOrCreate(sessionKey)
			if created {
				metrics.ActiveSessions.Inc()
				log.Printf("Session created: key=%s by=%s", sessionKey, identity.UserID)
			}
		}

		// A new connection for the same (userId, homework) slot terminates
		// and replaces the old one.
		var err error
		evicted, err = sess.Attach(client)
		if err == nil {
			break
		}
		if errors.Is(err, session.ErrSessionClosed) {
			continue
		}
		_ = conn.Close()
		return
	}
	if evicted != nil {
		log.Printf("Evicting superseded connection: user=%s homework=%v", client.UserID, client.Homework)
		go evicted.CloseTransport()
	}

	metrics.TotalConnections.Inc()
	metrics.ActiveConnections.Inc()
	log.Printf("Connection attached: user=%s role=%s session=%s homework=%v",
		identity.UserID, identity.Role, sess.SessionKey(), isHomework)

	if identity.Role == types.RoleTeacher && !isHomework {
		h.registerClass(sess.SessionKey(), identity, query.Get("courseId"), query.Get("courseName"))
	}

	if isHomework {
		sess.NotifyHomeworkJoin(client)
	} else {
		sess.SendInitialState(client)
	}

	go h.serveConnection(sess, client, conn)
}

// registerClass records the class in the external directory. Informational
// only; admission proceeds even when the write fails.
func (h *Handler) registerClass(sessionKey string, identity *interfaces.Identity, courseID, courseName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := h.directory.Register(ctx, &interfaces.ClassInfo{
		SessionID:   sessionKey,
		TeacherID:   identity.UserID,
		TeacherName: identity.DisplayName,
		CourseID:    courseID,
		CourseName:  courseName,
		StartedAt:   time.Now(),
	})
	if err != nil {
		log.Printf("Failed to register class %s in directory: %v", sessionKey, err)
	}
}

// serveConnection runs the read loop with heartbeat monitoring and performs
// disconnect cleanup on exit.
// FUNCTIONAL DISCOVERY: Messages of one connection dispatch strictly in
// arrival order; concurrency exists only across connections
func (h *Handler) serveConnection(sess *session.Session, client *session.Client, conn *Connection) {
	defer func() {
		metrics.ActiveConnections.Dec()
		h.cleanup(sess, client)
		_ = conn.Close()
	}()

	if err := conn.conn.SetReadDeadline(time.Now().Add(h.opts.ReadTimeout)); err != nil {
		return
	}
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(h.opts.ReadTimeout))
	})

	ticker := time.NewTicker(h.opts.PingInterval)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(h.opts.WriteTimeout)); err != nil {
					return
				}
			case <-conn.Done():
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for user %s: %v", client.UserID, err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		// Disconnect does not cancel an in-flight sandbox call; the router's
		// execution timeout bounds it instead.
		h.router.Dispatch(context.Background(), sess, client, data)
	}
}

// cleanup detaches the client and tears the session down when its last
// main-session connection is gone.
func (h *Handler) cleanup(sess *session.Session, client *session.Client) {
	removed, teardown := sess.Detach(client)
	if !removed {
		return
	}
	log.Printf("Connection detached: user=%s session=%s homework=%v", client.UserID, sess.SessionKey(), client.Homework)

	if !teardown {
		return
	}
	if h.registry.Remove(sess.SessionKey(), sess) {
		metrics.ActiveSessions.Dec()
		log.Printf("Session removed: key=%s", sess.SessionKey())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.directory.Unregister(ctx, sess.SessionKey()); err != nil {
			log.Printf("Failed to unregister class %s from directory: %v", sess.SessionKey(), err)
		}
	}
}
