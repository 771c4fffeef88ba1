package session

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"classhub/pkg/types"
)

// Session is the server-side aggregate of shared state for one classroom
// instance, keyed by the teacher's session identifier. Homework sub-sessions
// reuse the parent Session; their connections are distinguished only by the
// Homework flag on the client key.
//
// ARCHITECTURAL DISCOVERY: One mutex guards the whole aggregate so every
// (mutate, broadcast) pair is atomic with respect to other mutators. The
// executor and verifier are never called while this lock is held.
type Session struct {
	key string

	mu                   sync.Mutex
	clients              map[Key]*Client
	files                []types.File
	activeFileName       string
	terminalOutput       string
	terminalInput        string
	assignments          map[string]*types.Assignment
	handsRaised          map[string]struct{}
	spotlightedStudentID string
	studentWorkspaces    map[string]types.Workspace
	controlledStudentID  string
	frozen               bool
	whiteboardLines      []types.WhiteboardLine
	whiteboardVisible    bool
	removed              bool
}

// New creates a session with zero-valued collections and the default
// terminal banner.
func New(key string) *Session {
	return &Session{
		key:               key,
		clients:           make(map[Key]*Client),
		terminalOutput:    types.DefaultTerminalBanner,
		assignments:       make(map[string]*types.Assignment),
		handsRaised:       make(map[string]struct{}),
		studentWorkspaces: make(map[string]types.Workspace),
	}
}

// SessionKey returns the session's identifier.
func (s *Session) SessionKey() string {
	return s.key
}

// Attach registers a client, evicting any previous connection occupying the
// same (userID, homework) slot. The evicted client is returned so the caller
// can close its transport outside the session lock. A session already marked
// removed refuses the attach; the caller must fetch a fresh session from the
// registry.
func (s *Session) Attach(c *Client) (*Client, error) {
	if c == nil {
		return nil, ErrNilClient
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.removed {
		return nil, ErrSessionClosed
	}

	evicted := s.clients[c.Key()]
	s.clients[c.Key()] = c
	return evicted, nil
}

// markRemovedIfEmpty flips the removed flag, but only while no client is
// attached. Once set, every future Attach fails with ErrSessionClosed, so a
// caller that deletes the session afterwards cannot strand a concurrent
// joiner on the dead aggregate.
func (s *Session) markRemovedIfEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.clients) > 0 {
		return false
	}
	s.removed = true
	return true
}

// Detach removes a client and performs disconnect cleanup: hand lowering,
// spotlight and remote-control release, peer notification. It reports whether
// the client was removed and whether the session is now empty after a
// main-session disconnect and should be torn down.
//
// FUNCTIONAL DISCOVERY: Removal is pointer-checked so a superseded connection
// finishing its read loop cannot detach its replacement.
func (s *Session) Detach(c *Client) (removed, teardown bool) {
	if c == nil {
		return false, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.clients[c.Key()]
	if !ok || current != c {
		return false, false
	}
	delete(s.clients, c.Key())

	if _, ok := s.handsRaised[c.UserID]; ok {
		delete(s.handsRaised, c.UserID)
		s.broadcastMain(types.MessageTypeHandRaisedListUpdate, types.HandRaisedListPayload{StudentIDs: s.handsList()})
	}

	if s.spotlightedStudentID == c.UserID {
		s.spotlightedStudentID = ""
		s.broadcastMain(types.MessageTypeSpotlightUpdate, types.SpotlightUpdatePayload{})
	}

	if s.controlledStudentID == c.UserID {
		s.controlledStudentID = ""
		s.broadcastAll(types.MessageTypeControlUpdate, types.ControlUpdatePayload{})
	}

	if c.Homework {
		s.sendToTeacher(types.MessageTypeHomeworkLeave, types.HomeworkPresencePayload{StudentID: c.UserID})
		return true, false
	}

	if len(s.clients) == 0 {
		return true, true
	}
	s.broadcastMain(types.MessageTypeStudentListUpdate, types.StudentListPayload{Students: s.roster()})
	return true, false
}

// SendInitialState pushes the full snapshot to a freshly attached
// main-session client: state, pending assignment, hands-raised list, then an
// updated roster to every non-homework client.
func (s *Session) SendInitialState(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := types.InitStatePayload{
		Role:                 c.Role,
		Files:                s.files,
		ActiveFileName:       s.activeFileName,
		TerminalOutput:       s.terminalOutput,
		SpotlightedStudentID: s.spotlightedStudentID,
		ControlledStudentID:  s.controlledStudentID,
		IsFrozen:             s.frozen,
		WhiteboardLines:      s.whiteboardLines,
		IsWhiteboardVisible:  s.whiteboardVisible,
		TeacherID:            s.teacherID(),
	}
	c.send(types.MessageTypeInitState, snapshot)

	if assignment, ok := s.assignments[c.UserID]; ok {
		c.send(types.MessageTypeHomeworkAssigned, assignment)
	}

	c.send(types.MessageTypeHandRaisedListUpdate, types.HandRaisedListPayload{StudentIDs: s.handsList()})

	s.broadcastMain(types.MessageTypeStudentListUpdate, types.StudentListPayload{Students: s.roster()})
}

// NotifyHomeworkJoin tells the owning teacher that a student opened their
// homework view and syncs the session-wide flags to the new connection.
func (s *Session) NotifyHomeworkJoin(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sendToTeacher(types.MessageTypeHomeworkJoin, types.HomeworkPresencePayload{StudentID: c.UserID})
	c.send(types.MessageTypeHomeworkStateSync, types.HomeworkStateSyncPayload{
		IsFrozen:            s.frozen,
		ControlledStudentID: s.controlledStudentID,
	})
}

// RelayPrivate forwards a private message to the named recipient's
// main-session connection. Delivery is best-effort; an absent recipient is
// silently ignored.
func (s *Session) RelayPrivate(fromUserID, toUserID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sendTo(toUserID, false, types.MessageTypePrivateMessage, types.PrivateMessageDelivery{
		ID:        uuid.New().String(),
		From:      fromUserID,
		Text:      text,
		Timestamp: time.Now(),
	})
}

// HasTeacher reports whether a teacher main-session connection is attached.
func (s *Session) HasTeacher() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.teacherID() != ""
}

// ToggleHand flips a student's membership in the hands-raised set and
// broadcasts the updated list to all non-homework clients.
func (s *Session) ToggleHand(studentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.handsRaised[studentID]; ok {
		delete(s.handsRaised, studentID)
	} else {
		s.handsRaised[studentID] = struct{}{}
	}
	s.broadcastMain(types.MessageTypeHandRaisedListUpdate, types.HandRaisedListPayload{StudentIDs: s.handsList()})
}

// ToggleWhiteboard flips visibility and broadcasts the new state.
func (s *Session) ToggleWhiteboard() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.whiteboardVisible = !s.whiteboardVisible
	s.broadcastMain(types.MessageTypeWhiteboardVisibility, types.WhiteboardVisibilityPayload{Visible: s.whiteboardVisible})
}

// AppendWhiteboardLine appends one drawn line and broadcasts only the new
// line, not the whole history.
func (s *Session) AppendWhiteboardLine(line types.WhiteboardLine) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.whiteboardLines = append(s.whiteboardLines, line)
	s.broadcastMain(types.MessageTypeWhiteboardDraw, types.WhiteboardDrawPayload{Line: line})
}

// ClearWhiteboard empties the line history and broadcasts the clear signal.
func (s *Session) ClearWhiteboard() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.whiteboardLines = nil
	s.broadcastMain(types.MessageTypeWhiteboardClear, struct{}{})
}

// SetControlledStudent updates the remote-control target. Reaches homework
// connections as well as main-session ones.
func (s *Session) SetControlledStudent(studentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.controlledStudentID = studentID
	s.broadcastAll(types.MessageTypeControlUpdate, types.ControlUpdatePayload{StudentID: studentID})
}

// ToggleFreeze flips the session-wide pencils-down flag. Reaches homework
// connections as well as main-session ones.
func (s *Session) ToggleFreeze() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frozen = !s.frozen
	s.broadcastAll(types.MessageTypeFreezeUpdate, types.FreezeUpdatePayload{IsFrozen: s.frozen})
}

// DirectEditWorkspace overwrites a student's homework workspace from the
// teacher's editor, pushes it to the student's homework connection if one is
// attached, and mirrors it to observer views in the main session.
func (s *Session) DirectEditWorkspace(studentID string, workspace types.Workspace) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.studentWorkspaces[studentID] = workspace
	s.sendTo(studentID, true, types.MessageTypeHomeworkWorkspaceUpdate, types.HomeworkWorkspaceUpdatePayload{Workspace: workspace})
	s.broadcastMain(types.MessageTypeStudentWorkspaceUpdate, types.StudentWorkspaceUpdatePayload{StudentID: studentID, Workspace: workspace})
}

// SetSpotlight designates the mirrored student (empty clears) and broadcasts
// the student's current workspace, if any, to main-session viewers.
func (s *Session) SetSpotlight(studentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.spotlightedStudentID = studentID

	var workspace *types.Workspace
	if studentID != "" {
		if w, ok := s.studentWorkspaces[studentID]; ok {
			copied := w
			workspace = &copied
		}
	}
	s.broadcastMain(types.MessageTypeSpotlightUpdate, types.SpotlightUpdatePayload{StudentID: studentID, Workspace: workspace})
}

// UpdateTeacherCode overwrites the shared workspace snapshot and broadcasts
// it to main-session clients.
func (s *Session) UpdateTeacherCode(files []types.File, activeFileName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.files = files
	s.activeFileName = activeFileName
	s.broadcastMain(types.MessageTypeCodeUpdate, types.TeacherCodeUpdatePayload{Files: files, ActiveFileName: activeFileName})
}

// AssignHomework records an assignment for a student and notifies that
// student's main-session connection. The student opens the homework view
// themselves.
func (s *Session) AssignHomework(studentID, lessonID, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	assignment := &types.Assignment{
		StudentID: studentID,
		LessonID:  lessonID,
		SessionID: s.key,
		Title:     title,
	}
	s.assignments[studentID] = assignment
	s.sendTo(studentID, false, types.MessageTypeHomeworkAssigned, assignment)
}

// UpdateStudentWorkspace overwrites a student's homework workspace from their
// own editor and notifies the teacher. Never broadcast to other students.
func (s *Session) UpdateStudentWorkspace(studentID string, workspace types.Workspace) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.studentWorkspaces[studentID] = workspace
	s.sendToTeacher(types.MessageTypeStudentWorkspaceUpdate, types.StudentWorkspaceUpdatePayload{StudentID: studentID, Workspace: workspace})
}

// RelayHomeworkTerminal forwards raw homework terminal input to the teacher,
// tagged with the student id.
func (s *Session) RelayHomeworkTerminal(studentID, data string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sendToTeacher(types.MessageTypeHomeworkTerminalIn, types.HomeworkTerminalRelayPayload{StudentID: studentID, Data: data})
}

// AppendTerminal appends text to the transcript and broadcasts it to
// main-session clients.
func (s *Session) AppendTerminal(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.terminalOutput += text
	s.broadcastMain(types.MessageTypeTerminalOut, types.TerminalOutPayload{Data: text})
}

// TerminalInput feeds keystrokes into the line-editing buffer. Non-CR input
// is appended verbatim to the buffer and transcript and echoed to
// main-session clients; each carriage return completes one command line,
// which is returned trimmed for the caller to interpret.
func (s *Session) TerminalInput(data string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var echo strings.Builder
	var commands []string
	for _, r := range data {
		if r == '\r' {
			commands = append(commands, strings.TrimSpace(s.terminalInput))
			s.terminalInput = ""
			echo.WriteString("\r\n")
			continue
		}
		s.terminalInput += string(r)
		echo.WriteRune(r)
	}

	if echo.Len() > 0 {
		s.terminalOutput += echo.String()
		s.broadcastMain(types.MessageTypeTerminalOut, types.TerminalOutPayload{Data: echo.String()})
	}
	return commands
}

// ActiveFile resolves the currently focused file in the shared workspace.
func (s *Session) ActiveFile() (types.File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.files {
		if f.Name == s.activeFileName {
			return f, true
		}
	}
	return types.File{}, false
}

// Fan-out helpers. Callers must hold s.mu.

func (s *Session) broadcastMain(msgType string, payload interface{}) {
	for _, c := range s.clients {
		if !c.Homework {
			c.send(msgType, payload)
		}
	}
}

func (s *Session) broadcastAll(msgType string, payload interface{}) {
	for _, c := range s.clients {
		c.send(msgType, payload)
	}
}

func (s *Session) sendTo(userID string, homework bool, msgType string, payload interface{}) {
	if c, ok := s.clients[Key{UserID: userID, Homework: homework}]; ok {
		c.send(msgType, payload)
	}
}

func (s *Session) sendToTeacher(msgType string, payload interface{}) {
	for _, c := range s.clients {
		if c.Role == types.RoleTeacher && !c.Homework {
			c.send(msgType, payload)
		}
	}
}

func (s *Session) teacherID() string {
	for _, c := range s.clients {
		if c.Role == types.RoleTeacher && !c.Homework {
			return c.UserID
		}
	}
	return ""
}

func (s *Session) roster() []types.StudentInfo {
	students := make([]types.StudentInfo, 0, len(s.clients))
	for _, c := range s.clients {
		if !c.Homework && c.Role == types.RoleStudent {
			students = append(students, types.StudentInfo{ID: c.UserID, DisplayName: c.DisplayName})
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students
}

func (s *Session) handsList() []string {
	ids := make([]string, 0, len(s.handsRaised))
	for id := range s.handsRaised {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
