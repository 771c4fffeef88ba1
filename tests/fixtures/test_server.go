package fixtures

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"classhub/internal/api"
	"classhub/internal/auth"
	"classhub/internal/directory"
	"classhub/internal/executor"
	"classhub/internal/router"
	"classhub/internal/session"
	"classhub/internal/websocket"
	"classhub/pkg/database"
)

// TestSecret signs credentials for test clients.
const TestSecret = "classhub-test-secret"

// SandboxResponse is the canned result the fake sandbox returns.
type SandboxResponse struct {
	Succeeded bool   `json:"succeeded"`
	Output    string `json:"output"`
}

// FakeSandbox is an in-process stand-in for the execution service.
type FakeSandbox struct {
	mu       sync.Mutex
	server   *httptest.Server
	response SandboxResponse
	requests []SandboxRequest
}

// SandboxRequest is one captured execution request.
type SandboxRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

func newFakeSandbox(t *testing.T) *FakeSandbox {
	t.Helper()
	s := &FakeSandbox{response: SandboxResponse{Succeeded: true, Output: ""}}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req SandboxRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.requests = append(s.requests, req)
		resp := s.response
		s.mu.Unlock()
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(s.server.Close)
	return s
}

// SetResponse changes what the sandbox returns for subsequent runs.
func (s *FakeSandbox) SetResponse(succeeded bool, output string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.response = SandboxResponse{Succeeded: succeeded, Output: output}
}

// Requests returns all captured execution requests.
func (s *FakeSandbox) Requests() []SandboxRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SandboxRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// TestServer is a full in-process server: real registry, JWT verification,
// SQLite-backed directory and a fake sandbox.
type TestServer struct {
	URL       string
	Registry  *session.Registry
	Directory *directory.Manager
	Sandbox   *FakeSandbox
}

// StartServer boots a complete server on an ephemeral port with automatic
// cleanup.
func StartServer(t *testing.T) *TestServer {
	t.Helper()

	dbConfig := database.DefaultConfig()
	dbConfig.DatabasePath = filepath.Join(t.TempDir(), "classhub_test.db")
	classDirectory, err := directory.NewManager(dbConfig)
	if err != nil {
		t.Fatalf("Failed to create class directory: %v", err)
	}
	t.Cleanup(func() { _ = classDirectory.Close() })

	sandbox := newFakeSandbox(t)

	registry := session.NewRegistry()
	verifier := auth.NewJWTVerifier(TestSecret, nil, "jwt:revoked")
	sandboxClient := executor.NewSandboxClient(sandbox.server.URL, 5*time.Second, 0)
	messageRouter := router.NewRouter(sandboxClient, 5*time.Second)

	opts := websocket.DefaultOptions()
	wsHandler := websocket.NewHandler(registry, verifier, classDirectory, messageRouter, opts)
	apiServer := api.NewServer(classDirectory, registry)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.HandleWebSocket)
	mux.Handle("/api/", apiServer)
	mux.Handle("/healthz", apiServer)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &TestServer{
		URL:       server.URL,
		Registry:  registry,
		Directory: classDirectory,
		Sandbox:   sandbox,
	}
}

// WaitFor polls a condition until it holds or the timeout expires.
func WaitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}
