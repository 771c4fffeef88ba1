package fixtures

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"classhub/pkg/types"
)

// TestClient is a WebSocket client for end-to-end tests. It collects every
// received envelope so scenarios can assert on delivery order and reach.
type TestClient struct {
	UserID    string
	Role      string
	SessionID string
	ServerURL string

	// Homework mode parameters; both empty for a main-session connection.
	TeacherSessionID string
	LessonID         string

	conn     *websocket.Conn
	messages chan *types.Envelope
	errors   chan error
	done     chan struct{}

	mu        sync.RWMutex
	closed    bool
	connected bool
	closeCode int
	initState *types.Envelope
}

// InitState returns the INIT_STATE envelope consumed during connect, or nil
// for clients that joined in homework mode.
func (tc *TestClient) InitState() *types.Envelope {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.initState
}

// NewTestClient creates a main-session client.
func NewTestClient(userID, role, sessionID, serverURL string) *TestClient {
	return &TestClient{
		UserID:    userID,
		Role:      role,
		SessionID: sessionID,
		ServerURL: serverURL,
		messages:  make(chan *types.Envelope, 100),
		errors:    make(chan error, 10),
		done:      make(chan struct{}),
	}
}

// NewHomeworkClient creates a homework-mode client joining the parent class.
func NewHomeworkClient(userID, role, teacherSessionID, lessonID, serverURL string) *TestClient {
	tc := NewTestClient(userID, role, fmt.Sprintf("%s-hw-%s", teacherSessionID, userID), serverURL)
	tc.TeacherSessionID = teacherSessionID
	tc.LessonID = lessonID
	return tc
}

// Connect establishes the WebSocket connection with a freshly minted
// credential.
func (tc *TestClient) Connect(ctx context.Context) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tc.connected {
		return fmt.Errorf("client already connected")
	}

	u, err := url.Parse(tc.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme == "http" {
		u.Scheme = "ws"
	} else if u.Scheme == "https" {
		u.Scheme = "wss"
	}
	u.Path = "/ws"

	query := u.Query()
	query.Set("sessionId", tc.SessionID)
	query.Set("token", MintToken(tc.UserID, tc.Role))
	if tc.TeacherSessionID != "" {
		query.Set("teacherSessionId", tc.TeacherSessionID)
		query.Set("lessonId", tc.LessonID)
	}
	u.RawQuery = query.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	tc.conn = conn
	tc.connected = true

	go tc.readLoop()

	return nil
}

// readLoop continuously collects envelopes until the connection drops.
func (tc *TestClient) readLoop() {
	defer func() {
		tc.mu.Lock()
		tc.connected = false
		tc.mu.Unlock()

		select {
		case <-tc.done:
		default:
			close(tc.done)
		}
	}()

	for {
		tc.mu.RLock()
		conn := tc.conn
		closed := tc.closed
		tc.mu.RUnlock()

		if closed || conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(30 * time.Second))

		var env types.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if closeErr, ok := err.(*websocket.CloseError); ok {
				tc.mu.Lock()
				tc.closeCode = closeErr.Code
				tc.mu.Unlock()
			}
			tc.mu.RLock()
			stillClosed := tc.closed
			tc.mu.RUnlock()
			if !stillClosed {
				select {
				case tc.errors <- fmt.Errorf("read error: %w", err):
				default:
				}
			}
			return
		}

		select {
		case tc.messages <- &env:
		default:
			select {
			case tc.errors <- fmt.Errorf("message channel full, dropping %s", env.Type):
			default:
			}
		}
	}
}

// Send writes one envelope to the server.
func (tc *TestClient) Send(msgType string, payload interface{}) error {
	tc.mu.RLock()
	conn := tc.conn
	connected := tc.connected
	tc.mu.RUnlock()

	if !connected || conn == nil {
		return fmt.Errorf("client not connected")
	}

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(types.NewOutbound(msgType, payload)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendRaw writes a raw frame, bypassing envelope construction.
func (tc *TestClient) SendRaw(data []byte) error {
	tc.mu.RLock()
	conn := tc.conn
	connected := tc.connected
	tc.mu.RUnlock()

	if !connected || conn == nil {
		return fmt.Errorf("client not connected")
	}
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Receive waits for the next envelope of any type.
func (tc *TestClient) Receive(timeout time.Duration) (*types.Envelope, error) {
	select {
	case env := <-tc.messages:
		return env, nil
	case err := <-tc.errors:
		return nil, err
	case <-time.After(timeout):
		return nil, fmt.Errorf("timeout waiting for message")
	case <-tc.done:
		return nil, fmt.Errorf("client disconnected")
	}
}

// ReceiveOfType waits for an envelope of the given type, skipping others.
func (tc *TestClient) ReceiveOfType(msgType string, timeout time.Duration) (*types.Envelope, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("timeout waiting for %s", msgType)
		}
		select {
		case env := <-tc.messages:
			if env.Type == msgType {
				return env, nil
			}
		case err := <-tc.errors:
			return nil, err
		case <-time.After(remaining):
			return nil, fmt.Errorf("timeout waiting for %s", msgType)
		case <-tc.done:
			return nil, fmt.Errorf("client disconnected waiting for %s", msgType)
		}
	}
}

// Drain discards everything currently buffered. Call it before
// ExpectNoMessage when earlier traffic may still be queued.
func (tc *TestClient) Drain() {
	for {
		select {
		case <-tc.messages:
		default:
			return
		}
	}
}

// ExpectNoMessage asserts silence of the given type for the whole window.
func (tc *TestClient) ExpectNoMessage(msgType string, window time.Duration) error {
	deadline := time.Now().Add(window)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}
		select {
		case env := <-tc.messages:
			if env.Type == msgType {
				return fmt.Errorf("unexpected %s message", msgType)
			}
		case <-time.After(remaining):
			return nil
		case <-tc.done:
			return nil
		}
	}
}

// CloseCode reports the server-sent close code, if any.
func (tc *TestClient) CloseCode() int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.closeCode
}

// WaitDisconnect blocks until the server closes the connection.
func (tc *TestClient) WaitDisconnect(timeout time.Duration) error {
	select {
	case <-tc.done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for disconnect")
	}
}

// Close shuts the client down.
func (tc *TestClient) Close() error {
	tc.mu.Lock()
	if tc.closed {
		tc.mu.Unlock()
		return nil
	}
	tc.closed = true
	conn := tc.conn
	tc.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}
