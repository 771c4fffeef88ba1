package fixtures

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"classhub/internal/auth"
	"classhub/pkg/types"
)

// MintToken signs a short-lived credential for a test participant.
func MintToken(userID, role string) string {
	claims := auth.Claims{
		DisplayName: "Test " + userID,
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(TestSecret))
	if err != nil {
		panic(err)
	}
	return token
}

// ConnectTeacher joins the class as its teacher and waits for INIT_STATE.
func ConnectTeacher(t *testing.T, server *TestServer, sessionID, userID string) *TestClient {
	t.Helper()
	return connect(t, server, userID, types.RoleTeacher, sessionID)
}

// ConnectStudent joins the class as a student and waits for INIT_STATE.
func ConnectStudent(t *testing.T, server *TestServer, sessionID, userID string) *TestClient {
	t.Helper()
	return connect(t, server, userID, types.RoleStudent, sessionID)
}

func connect(t *testing.T, server *TestServer, userID, role, sessionID string) *TestClient {
	t.Helper()

	client := NewTestClient(userID, role, sessionID, server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Failed to connect %s: %v", userID, err)
	}
	t.Cleanup(func() { _ = client.Close() })

	env, err := client.ReceiveOfType(types.MessageTypeInitState, 3*time.Second)
	if err != nil {
		t.Fatalf("No INIT_STATE for %s: %v", userID, err)
	}
	client.mu.Lock()
	client.initState = env
	client.mu.Unlock()
	return client
}

// ConnectHomework opens a homework view on the parent class and waits for the
// state sync.
func ConnectHomework(t *testing.T, server *TestServer, teacherSessionID, userID, lessonID string) *TestClient {
	t.Helper()

	client := NewHomeworkClient(userID, types.RoleStudent, teacherSessionID, lessonID, server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Failed to connect homework view for %s: %v", userID, err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if _, err := client.ReceiveOfType(types.MessageTypeHomeworkStateSync, 3*time.Second); err != nil {
		t.Fatalf("No HOMEWORK_STATE_SYNC for %s: %v", userID, err)
	}
	return client
}

// DecodePayload unmarshals an envelope payload, failing the test on error.
func DecodePayload(t *testing.T, env *types.Envelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Payload, v); err != nil {
		t.Fatalf("Failed to decode %s payload: %v", env.Type, err)
	}
}
