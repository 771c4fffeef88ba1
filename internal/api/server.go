package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"classhub/pkg/interfaces"
)

// Registry exposes the connection statistics the API needs without coupling
// to the session package's concrete registry.
type Registry interface {
	ConnectionCount(sessionKey string) int
	Stats() map[string]int
}

// ARCHITECTURAL DISCOVERY: HTTP API layer serves as pure interface between external clients and internal components
// Clean separation - no business logic, only HTTP handling and JSON serialization
type Server struct {
	directory interfaces.Directory
	registry  Registry
	router    *mux.Router
}

func NewServer(directory interfaces.Directory, registry Registry) *Server {
	s := &Server{
		directory: directory,
		registry:  registry,
		router:    mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// ARCHITECTURAL DISCOVERY: Route setup follows REST conventions with proper middleware
// CORS and JSON middleware applied to all routes for web client compatibility
func (s *Server) setupRoutes() {
	s.router.Use(s.corsMiddleware, s.jsonMiddleware)
	s.router.HandleFunc("/api/classes", s.listClasses).Methods(http.MethodGet, http.MethodOptions)
	s.router.HandleFunc("/healthz", s.healthCheck).Methods(http.MethodGet, http.MethodOptions)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type ClassWithConnections struct {
	*interfaces.ClassInfo
	ConnectionCount int `json:"connection_count"`
}

type ListClassesResponse struct {
	Classes []ClassWithConnections `json:"classes"`
}

type HealthResponse struct {
	Status      string         `json:"status"`
	Timestamp   time.Time      `json:"timestamp"`
	Directory   string         `json:"directory"`
	Connections map[string]int `json:"connections"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// FUNCTIONAL DISCOVERY: GET /api/classes - List active classes with live connection counts
// The directory is the source of truth for which classes exist; the registry
// adds how many people are currently in each
func (s *Server) listClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := s.directory.ListActive(r.Context())
	if err != nil {
		s.sendError(w, "Failed to list classes", http.StatusInternalServerError)
		return
	}

	withConnections := make([]ClassWithConnections, len(classes))
	for i, class := range classes {
		withConnections[i] = ClassWithConnections{
			ClassInfo:       class,
			ConnectionCount: s.registry.ConnectionCount(class.SessionID),
		}
	}

	json.NewEncoder(w).Encode(ListClassesResponse{Classes: withConnections})
}

// FUNCTIONAL DISCOVERY: GET /healthz - System health check with component validation
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	directoryStatus := "healthy"

	if err := s.directory.HealthCheck(ctx); err != nil {
		status = "unhealthy"
		directoryStatus = fmt.Sprintf("error: %v", err)
	}

	response := HealthResponse{
		Status:      status,
		Timestamp:   time.Now(),
		Directory:   directoryStatus,
		Connections: s.registry.Stats(),
	}

	// FUNCTIONAL DISCOVERY: Return 503 if any component is unhealthy
	if status == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

// FUNCTIONAL DISCOVERY: Consistent error response format
func (s *Server) sendError(w http.ResponseWriter, message string, code int) {
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(code),
		Code:    code,
		Message: message,
	})
}

// ARCHITECTURAL DISCOVERY: CORS middleware enables web client access
// Allows all origins in development - would be restricted in production
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		next.ServeHTTP(w, r)
	})
}
