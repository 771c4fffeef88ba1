package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"classhub/internal/api"
	"classhub/internal/auth"
	"classhub/internal/config"
	"classhub/internal/directory"
	"classhub/internal/executor"
	"classhub/internal/metrics"
	"classhub/internal/router"
	"classhub/internal/session"
	"classhub/internal/websocket"
	"classhub/pkg/database"
)

// Application coordinates all system components
// Clean dependency injection pattern with proper initialization order
type Application struct {
	config      *config.Config
	directory   *directory.Manager
	registry    *session.Registry
	redisClient *redis.Client
	httpServer  *http.Server
}

// NewApplication creates a new application instance with all components initialized
// Component initialization follows strict dependency order:
// Directory → Registry → Auth → Executor → Router → WebSocket → API → HTTP
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// STEP 1: Initialize the class directory (foundation layer)
	dbConfig := database.DefaultConfig()
	dbConfig.DatabasePath = cfg.Database.Path

	classDirectory, err := directory.NewManager(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize class directory: %w", err)
	}

	// STEP 2: Initialize session registry for live classes
	registry := session.NewRegistry()

	// STEP 3: Initialize credential verifier, with optional Redis-backed
	// revocation checks
	var redisClient *redis.Client
	if cfg.Auth.RedisEnabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Auth.RedisAddress,
			Password: cfg.Auth.RedisPassword,
			DB:       cfg.Auth.RedisDB,
		})
	}
	verifier := auth.NewJWTVerifier(cfg.Auth.JWTSecret, redisClient, cfg.Auth.RevocationListKey)

	// STEP 4: Initialize the sandbox execution client
	sandbox := executor.NewSandboxClient(cfg.Executor.URL, cfg.Executor.Timeout, cfg.Executor.MaxRetries)

	// STEP 5: Initialize message router
	messageRouter := router.NewRouter(sandbox, cfg.Executor.Timeout)

	// STEP 6: Initialize WebSocket handler
	wsHandler := websocket.NewHandler(registry, verifier, classDirectory, messageRouter, websocket.Options{
		WriteBufferSize:  cfg.WebSocket.BufferSize,
		WriteTimeout:     cfg.WebSocket.WriteTimeout,
		PingInterval:     cfg.WebSocket.PingInterval,
		ReadTimeout:      cfg.WebSocket.ReadTimeout,
		HandshakeTimeout: cfg.WebSocket.HandshakeTimeout,
	})

	// STEP 7: Initialize API server
	apiServer := api.NewServer(classDirectory, registry)

	// STEP 8: Setup HTTP server with WebSocket, API, and metrics endpoints
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.HandleWebSocket)
	mux.Handle("/api/", apiServer)
	mux.Handle("/healthz", apiServer)
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:      cfg,
		directory:   classDirectory,
		registry:    registry,
		redisClient: redisClient,
		httpServer:  httpServer,
	}, nil
}

// Start begins application execution
// Startup coordination ensures all components ready before serving
func (app *Application) Start(ctx context.Context) error {
	log.Printf("Starting classhub on %s", app.httpServer.Addr)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Verify server is ready before returning
	select {
	case err := <-serverErrCh:
		return err
	case <-time.After(100 * time.Millisecond):
		log.Printf("classhub started successfully")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop gracefully shuts down the application
// Reverse dependency order: HTTP → Redis → Directory
func (app *Application) Stop(ctx context.Context) error {
	log.Printf("Shutting down classhub")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			log.Printf("Redis client shutdown error: %v", err)
		}
	}

	if err := app.directory.Close(); err != nil {
		log.Printf("Class directory shutdown error: %v", err)
	}

	log.Printf("classhub shutdown complete")
	return nil
}

// GetAddr returns the server address for external connections
func (app *Application) GetAddr() string {
	return app.httpServer.Addr
}
