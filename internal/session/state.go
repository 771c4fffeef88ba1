package session

import (
	"classhub/pkg/types"
)

// Read-only accessors. Handlers use a few of these for admission decisions;
// the rest exist so tests can assert on state without reaching into fields.

// ClientCount returns the number of attached connections, homework included.
func (s *Session) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// HasClient reports whether a connection occupies the (userID, homework) slot.
func (s *Session) HasClient(userID string, homework bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.clients[Key{UserID: userID, Homework: homework}]
	return ok
}

// TeacherID returns the attached main-session teacher's id, or "".
func (s *Session) TeacherID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.teacherID()
}

// IsFrozen reports the pencils-down flag.
func (s *Session) IsFrozen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frozen
}

// ControlledStudentID returns the remote-control target, or "".
func (s *Session) ControlledStudentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controlledStudentID
}

// SpotlightedStudentID returns the spotlighted student, or "".
func (s *Session) SpotlightedStudentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spotlightedStudentID
}

// HandsRaised returns the sorted hands-raised list.
func (s *Session) HandsRaised() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handsList()
}

// Files returns the shared workspace snapshot.
func (s *Session) Files() []types.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files
}

// ActiveFileName returns the currently focused file name.
func (s *Session) ActiveFileName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeFileName
}

// Transcript returns the accumulated terminal output.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminalOutput
}

// WhiteboardVisible reports whiteboard visibility.
func (s *Session) WhiteboardVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.whiteboardVisible
}

// WhiteboardLines returns the drawn line history.
func (s *Session) WhiteboardLines() []types.WhiteboardLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.whiteboardLines
}

// StudentWorkspace returns a student's homework workspace snapshot.
func (s *Session) StudentWorkspace(studentID string) (types.Workspace, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.studentWorkspaces[studentID]
	return w, ok
}

// AssignmentFor returns the recorded homework assignment for a student.
func (s *Session) AssignmentFor(studentID string) (*types.Assignment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[studentID]
	return a, ok
}
