package interfaces

import (
	"context"
	"time"
)

// ClassInfo is the informational record the teacher-facing listing shows for
// a live class. No routing logic depends on it.
type ClassInfo struct {
	SessionID   string    `json:"session_id"`
	TeacherID   string    `json:"teacher_id"`
	TeacherName string    `json:"teacher_name"`
	CourseID    string    `json:"course_id"`
	CourseName  string    `json:"course_name"`
	StartedAt   time.Time `json:"started_at"`
}

// Directory is the external session directory collaborator
// FUNCTIONAL DISCOVERY: Registration is best-effort - admission proceeds even
// when the directory write fails, so the interface reports errors for logging
// rather than for control flow
type Directory interface {
	// Register records a live class. Re-registering an existing session key
	// overwrites the previous record.
	Register(ctx context.Context, info *ClassInfo) error

	// Unregister removes a class record. Removing an unknown key is not an
	// error.
	Unregister(ctx context.Context, sessionID string) error

	// ListActive returns all currently registered classes, most recent first.
	ListActive(ctx context.Context) ([]*ClassInfo, error)

	// HealthCheck verifies the backing store is reachable.
	HealthCheck(ctx context.Context) error

	// Close flushes pending writes and releases the backing store.
	Close() error
}
