package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"classhub/internal/router"
	"classhub/internal/session"
	"classhub/pkg/interfaces"
	"classhub/pkg/types"
)

// stubVerifier resolves tokens of the form "userID:role".
type stubVerifier struct{}

func (stubVerifier) Verify(ctx context.Context, token string) (*interfaces.Identity, error) {
	parts := strings.SplitN(token, ":", 2)
	if len(parts) != 2 || !types.IsValidRole(parts[1]) {
		return nil, interfaces.ErrInvalidCredential
	}
	return &interfaces.Identity{UserID: parts[0], DisplayName: "Test " + parts[0], Role: parts[1]}, nil
}

// stubDirectory records register/unregister calls in memory.
type stubDirectory struct {
	mu      sync.Mutex
	classes map[string]*interfaces.ClassInfo
}

func newStubDirectory() *stubDirectory {
	return &stubDirectory{classes: make(map[string]*interfaces.ClassInfo)}
}

func (s *stubDirectory) Register(ctx context.Context, info *interfaces.ClassInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classes[info.SessionID] = info
	return nil
}

func (s *stubDirectory) Unregister(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.classes, sessionID)
	return nil
}

func (s *stubDirectory) ListActive(ctx context.Context) ([]*interfaces.ClassInfo, error) {
	return nil, nil
}
func (s *stubDirectory) HealthCheck(ctx context.Context) error { return nil }
func (s *stubDirectory) Close() error                          { return nil }

func (s *stubDirectory) has(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.classes[sessionID]
	return ok
}

type stubExecutor struct{}

func (stubExecutor) Execute(ctx context.Context, code, language string) (*interfaces.ExecutionResult, error) {
	return &interfaces.ExecutionResult{Succeeded: true, Output: ""}, nil
}

type testServer struct {
	server    *httptest.Server
	registry  *session.Registry
	directory *stubDirectory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	registry := session.NewRegistry()
	directory := newStubDirectory()
	handler := NewHandler(registry, stubVerifier{}, directory, router.NewRouter(stubExecutor{}, time.Second), DefaultOptions())

	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	t.Cleanup(server.Close)

	return &testServer{server: server, registry: registry, directory: directory}
}

func (ts *testServer) dial(t *testing.T, query url.Values) *websocket.Conn {
	t.Helper()

	u := "ws" + strings.TrimPrefix(ts.server.URL, "http") + "/?" + query.Encode()
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func mainQuery(sessionID, userID, role string) url.Values {
	q := url.Values{}
	q.Set("sessionId", sessionID)
	q.Set("token", userID+":"+role)
	return q
}

func homeworkQuery(teacherSessionID, userID, role, lessonID string) url.Values {
	q := url.Values{}
	q.Set("sessionId", fmt.Sprintf("%s-hw-%s", teacherSessionID, userID))
	q.Set("token", userID+":"+role)
	q.Set("teacherSessionId", teacherSessionID)
	q.Set("lessonId", lessonID)
	return q
}

// readFrame reads one frame with a deadline.
func readFrame(t *testing.T, conn *websocket.Conn) *types.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env types.Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	return &env
}

// readUntil reads frames until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) *types.Envelope {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		var env types.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("ReadJSON failed waiting for %s: %v", msgType, err)
		}
		if env.Type == msgType {
			return &env
		}
	}
	t.Fatalf("Timed out waiting for %s", msgType)
	return nil
}

func expectCloseCode(t *testing.T, conn *websocket.Conn, code int) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	if !ok {
		t.Fatalf("Expected a close error, got %v", err)
	}
	if closeErr.Code != code {
		t.Errorf("Expected close code %d, got %d", code, closeErr.Code)
	}
}

func sendFrame(t *testing.T, conn *websocket.Conn, msgType, payload string) {
	t.Helper()
	frame := fmt.Sprintf(`{"type":%q}`, msgType)
	if payload != "" {
		frame = fmt.Sprintf(`{"type":%q,"payload":%s}`, msgType, payload)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func TestAdmissionMissingParams(t *testing.T) {
	ts := newTestServer(t)

	q := url.Values{}
	q.Set("sessionId", "class-1")
	// No token.
	conn := ts.dial(t, q)
	expectCloseCode(t, conn, websocket.ClosePolicyViolation)

	if ts.registry.Count() != 0 {
		t.Error("Refused admission must not create a session")
	}
}

func TestAdmissionInvalidCredential(t *testing.T) {
	ts := newTestServer(t)

	q := url.Values{}
	q.Set("sessionId", "class-1")
	q.Set("token", "garbage-token")
	conn := ts.dial(t, q)
	expectCloseCode(t, conn, CloseInvalidCredential)

	if ts.registry.Count() != 0 {
		t.Error("Refused admission must not create a session")
	}
}

func TestAdmissionHomeworkUnknownClass(t *testing.T) {
	ts := newTestServer(t)

	conn := ts.dial(t, homeworkQuery("no-such-class", "student-1", types.RoleStudent, "lesson-1"))
	expectCloseCode(t, conn, CloseUnknownClass)
}

func TestTeacherAdmission(t *testing.T) {
	ts := newTestServer(t)

	conn := ts.dial(t, mainQuery("class-1", "teacher-1", types.RoleTeacher))

	env := readFrame(t, conn)
	if env.Type != types.MessageTypeInitState {
		t.Fatalf("Expected INIT_STATE first, got %s", env.Type)
	}
	var snapshot types.InitStatePayload
	if err := json.Unmarshal(env.Payload, &snapshot); err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	if snapshot.Role != types.RoleTeacher {
		t.Errorf("Expected role teacher in snapshot, got %s", snapshot.Role)
	}
	if !strings.HasPrefix(snapshot.TerminalOutput, "Welcome") {
		t.Error("Expected the terminal banner in a fresh session")
	}

	if ts.registry.Count() != 1 {
		t.Errorf("Expected 1 session, got %d", ts.registry.Count())
	}
	waitFor(t, "directory registration", func() bool { return ts.directory.has("class-1") })
}

func TestStudentAdmissionDoesNotRegisterClass(t *testing.T) {
	ts := newTestServer(t)

	conn := ts.dial(t, mainQuery("class-1", "student-1", types.RoleStudent))
	readFrame(t, conn)

	time.Sleep(50 * time.Millisecond)
	if ts.directory.has("class-1") {
		t.Error("A student connection must not register the class in the directory")
	}
}

func TestMessageRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	teacher := ts.dial(t, mainQuery("class-1", "teacher-1", types.RoleTeacher))
	readUntil(t, teacher, types.MessageTypeHandRaisedListUpdate)

	student := ts.dial(t, mainQuery("class-1", "student-1", types.RoleStudent))
	readUntil(t, student, types.MessageTypeHandRaisedListUpdate)

	sendFrame(t, teacher, types.MessageTypeToggleFreeze, "")

	env := readUntil(t, student, types.MessageTypeFreezeUpdate)
	var p types.FreezeUpdatePayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		t.Fatalf("Failed to decode payload: %v", err)
	}
	if !p.IsFrozen {
		t.Error("Expected the freeze broadcast to carry isFrozen=true")
	}
}

func TestDuplicateConnectionEvicted(t *testing.T) {
	ts := newTestServer(t)

	first := ts.dial(t, mainQuery("class-1", "student-1", types.RoleStudent))
	readFrame(t, first)

	second := ts.dial(t, mainQuery("class-1", "student-1", types.RoleStudent))
	readFrame(t, second)

	// The first connection is closed by the server.
	first.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := first.ReadMessage(); err != nil {
			break
		}
	}

	if ts.registry.ConnectionCount("class-1") != 1 {
		t.Errorf("Expected 1 connection after eviction, got %d", ts.registry.ConnectionCount("class-1"))
	}
}

func TestSessionTeardownOnLastDisconnect(t *testing.T) {
	ts := newTestServer(t)

	teacher := ts.dial(t, mainQuery("class-1", "teacher-1", types.RoleTeacher))
	readFrame(t, teacher)
	waitFor(t, "directory registration", func() bool { return ts.directory.has("class-1") })

	teacher.Close()

	waitFor(t, "session teardown", func() bool { return ts.registry.Count() == 0 })
	waitFor(t, "directory unregistration", func() bool { return !ts.directory.has("class-1") })
}

func TestHomeworkJoinFlow(t *testing.T) {
	ts := newTestServer(t)

	teacher := ts.dial(t, mainQuery("class-1", "teacher-1", types.RoleTeacher))
	readFrame(t, teacher)

	homework := ts.dial(t, homeworkQuery("class-1", "student-1", types.RoleStudent, "lesson-1"))

	// The homework connection gets the state sync, the teacher the join.
	env := readUntil(t, homework, types.MessageTypeHomeworkStateSync)
	var stateSync types.HomeworkStateSyncPayload
	if err := json.Unmarshal(env.Payload, &stateSync); err != nil {
		t.Fatalf("Failed to decode state sync: %v", err)
	}

	join := readUntil(t, teacher, types.MessageTypeHomeworkJoin)
	var presence types.HomeworkPresencePayload
	if err := json.Unmarshal(join.Payload, &presence); err != nil {
		t.Fatalf("Failed to decode join: %v", err)
	}
	if presence.StudentID != "student-1" {
		t.Errorf("Expected join for student-1, got %s", presence.StudentID)
	}

	// The homework connection shares the parent session.
	if ts.registry.Count() != 1 {
		t.Errorf("Expected homework to join the parent session, got %d sessions", ts.registry.Count())
	}

	// Homework leave notifies the teacher, and the session survives.
	homework.Close()
	leave := readUntil(t, teacher, types.MessageTypeHomeworkLeave)
	if err := json.Unmarshal(leave.Payload, &presence); err != nil {
		t.Fatalf("Failed to decode leave: %v", err)
	}
	if presence.StudentID != "student-1" {
		t.Errorf("Expected leave for student-1, got %s", presence.StudentID)
	}
	if ts.registry.Count() != 1 {
		t.Error("A homework disconnect must not tear the session down")
	}
}
