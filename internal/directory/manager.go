package directory

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"classhub/pkg/database"
	"classhub/pkg/interfaces"
)

// Manager implements the Directory interface on SQLite
// ARCHITECTURAL DISCOVERY: Single-writer goroutine prevents SQLite write
// contention; reads run concurrently against the WAL
type Manager struct {
	db           *sql.DB
	writeChannel chan writeOperation
	shutdown     chan struct{}
	wg           sync.WaitGroup
	closed       bool
	mu           sync.RWMutex
}

type writeOperation struct {
	operation func(*sql.DB) error
	result    chan error
}

// NewManager opens the backing store, applies migrations and starts the
// writer goroutine.
func NewManager(config *database.Config) (*Manager, error) {
	db, err := database.Open(config)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrationManager(db).ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	m := &Manager{
		db:           db,
		writeChannel: make(chan writeOperation, 100),
		shutdown:     make(chan struct{}),
	}

	m.wg.Add(1)
	go m.writeLoop()

	return m, nil
}

// writeLoop processes all write operations in a single goroutine.
// FUNCTIONAL DISCOVERY: One retry after a short pause rides out transient
// lock contention; a second failure is reported to the caller
func (m *Manager) writeLoop() {
	defer m.wg.Done()

	for {
		select {
		case op := <-m.writeChannel:
			err := op.operation(m.db)
			if err != nil {
				log.Printf("Directory write failed, retrying: %v", err)
				time.Sleep(time.Second)
				err = op.operation(m.db)
			}
			op.result <- err

		case <-m.shutdown:
			return
		}
	}
}

func (m *Manager) executeWrite(operation func(*sql.DB) error) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrManagerClosed
	}
	m.mu.RUnlock()

	result := make(chan error, 1)
	select {
	case m.writeChannel <- writeOperation{operation: operation, result: result}:
		return <-result
	case <-time.After(30 * time.Second):
		return ErrWriteTimeout
	case <-m.shutdown:
		return ErrManagerClosed
	}
}

// Register records a live class. An existing record for the same session key
// is overwritten, which covers a teacher reconnecting to their own class.
func (m *Manager) Register(ctx context.Context, info *interfaces.ClassInfo) error {
	if info == nil || info.SessionID == "" {
		return ErrInvalidClassInfo
	}

	return m.executeWrite(func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT OR REPLACE INTO classes (session_id, teacher_id, teacher_name, course_id, course_name, started_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, info.SessionID, info.TeacherID, info.TeacherName, info.CourseID, info.CourseName, info.StartedAt)
		if err != nil {
			return fmt.Errorf("failed to register class: %w", err)
		}
		return nil
	})
}

// Unregister removes a class record. Unknown keys are a no-op.
func (m *Manager) Unregister(ctx context.Context, sessionID string) error {
	return m.executeWrite(func(db *sql.DB) error {
		if _, err := db.ExecContext(ctx, "DELETE FROM classes WHERE session_id = ?", sessionID); err != nil {
			return fmt.Errorf("failed to unregister class: %w", err)
		}
		return nil
	})
}

// ListActive returns all registered classes, most recent first.
func (m *Manager) ListActive(ctx context.Context) ([]*interfaces.ClassInfo, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT session_id, teacher_id, teacher_name, course_id, course_name, started_at
		FROM classes
		ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query classes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var classes []*interfaces.ClassInfo
	for rows.Next() {
		var info interfaces.ClassInfo
		if err := rows.Scan(&info.SessionID, &info.TeacherID, &info.TeacherName, &info.CourseID, &info.CourseName, &info.StartedAt); err != nil {
			return nil, fmt.Errorf("failed to scan class row: %w", err)
		}
		classes = append(classes, &info)
	}
	return classes, rows.Err()
}

// HealthCheck verifies the backing store responds.
func (m *Manager) HealthCheck(ctx context.Context) error {
	var one int
	if err := m.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("directory health check failed: %w", err)
	}
	return nil
}

// Close stops the writer goroutine and closes the store.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	close(m.shutdown)
	m.wg.Wait()
	return m.db.Close()
}
