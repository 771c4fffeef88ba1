package types

import (
	"time"
)

// Roles carried by the verified credential. Role is never inferred from
// connection order or any client-supplied field.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Inbound message type constants
// ARCHITECTURAL DISCOVERY: Message type strings defined exactly as the wire
// protocol names them so routing logic and clients never disagree
const (
	MessageTypePrivateMessage     = "PRIVATE_MESSAGE"
	MessageTypeHomeworkCodeUpdate = "HOMEWORK_CODE_UPDATE"
	MessageTypeHomeworkTerminalIn = "HOMEWORK_TERMINAL_IN"
	MessageTypeRaiseHand          = "RAISE_HAND"
	MessageTypeToggleWhiteboard   = "TOGGLE_WHITEBOARD"
	MessageTypeWhiteboardDraw     = "WHITEBOARD_DRAW"
	MessageTypeWhiteboardClear    = "WHITEBOARD_CLEAR"
	MessageTypeTakeControl        = "TAKE_CONTROL"
	MessageTypeToggleFreeze       = "TOGGLE_FREEZE"
	MessageTypeTeacherDirectEdit  = "TEACHER_DIRECT_EDIT"
	MessageTypeSpotlightStudent   = "SPOTLIGHT_STUDENT"
	MessageTypeTeacherCodeUpdate  = "TEACHER_CODE_UPDATE"
	MessageTypeAssignHomework     = "ASSIGN_HOMEWORK"
	MessageTypeTerminalIn         = "TERMINAL_IN"
	MessageTypeRunCode            = "RUN_CODE"
)

// Outbound message type constants
// FUNCTIONAL DISCOVERY: WHITEBOARD_DRAW, WHITEBOARD_CLEAR and
// HOMEWORK_TERMINAL_IN keep the same type string in both directions
const (
	MessageTypeInitState               = "INIT_STATE"
	MessageTypeStudentListUpdate       = "STUDENT_LIST_UPDATE"
	MessageTypeHandRaisedListUpdate    = "HAND_RAISED_LIST_UPDATE"
	MessageTypeSpotlightUpdate         = "SPOTLIGHT_UPDATE"
	MessageTypeControlUpdate           = "CONTROL_UPDATE"
	MessageTypeFreezeUpdate            = "FREEZE_UPDATE"
	MessageTypeWhiteboardVisibility    = "WHITEBOARD_VISIBILITY"
	MessageTypeCodeUpdate              = "CODE_UPDATE"
	MessageTypeStudentWorkspaceUpdate  = "STUDENT_WORKSPACE_UPDATE"
	MessageTypeHomeworkWorkspaceUpdate = "HOMEWORK_WORKSPACE_UPDATE"
	MessageTypeHomeworkAssigned        = "HOMEWORK_ASSIGNED"
	MessageTypeHomeworkJoin            = "HOMEWORK_JOIN"
	MessageTypeHomeworkLeave           = "HOMEWORK_LEAVE"
	MessageTypeHomeworkStateSync       = "HOMEWORK_STATE_SYNC"
	MessageTypeTerminalOut             = "TERMINAL_OUT"
)

// Shared terminal constants
// FUNCTIONAL DISCOVERY: transcript uses CRLF line endings because the client
// renders it in an xterm-style widget
const (
	TerminalPrompt        = "$ "
	DefaultTerminalBanner = "Welcome to the class terminal.\r\n" + TerminalPrompt
)

// File is one entry of the teacher-authoritative workspace snapshot.
type File struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Content  string `json:"content"`
}

// Workspace is a student's homework workspace snapshot. It mirrors the main
// workspace shape so direct edits and spotlight mirroring reuse one type.
type Workspace struct {
	Files          []File `json:"files"`
	ActiveFileName string `json:"activeFileName"`
}

// Assignment is the homework payload recorded per student. It persists in the
// session so a reconnecting student is re-notified.
type Assignment struct {
	StudentID string `json:"studentId"`
	LessonID  string `json:"lessonId"`
	SessionID string `json:"sessionId"`
	Title     string `json:"title"`
}

// Point is one whiteboard coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WhiteboardLine is one drawn line primitive. The server appends and relays
// these verbatim; rendering semantics belong to the client.
type WhiteboardLine struct {
	Points []Point `json:"points"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
}

// StudentInfo is one roster entry for non-homework student connections.
type StudentInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Inbound payloads, one struct per message type
// ARCHITECTURAL DISCOVERY: Tagged-union decoding at the transport boundary
// replaces duck-typed payload access; unknown variants are dropped there

type PrivateMessagePayload struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

type HomeworkCodeUpdatePayload struct {
	Workspace Workspace `json:"workspace"`
}

type HomeworkTerminalInPayload struct {
	Data string `json:"data"`
}

type WhiteboardDrawPayload struct {
	Line WhiteboardLine `json:"line"`
}

type TakeControlPayload struct {
	// Empty StudentID releases control.
	StudentID string `json:"studentId"`
}

type TeacherDirectEditPayload struct {
	StudentID string    `json:"studentId"`
	Workspace Workspace `json:"workspace"`
}

type SpotlightStudentPayload struct {
	// Empty StudentID clears the spotlight.
	StudentID string `json:"studentId"`
}

type TeacherCodeUpdatePayload struct {
	Files          []File `json:"files"`
	ActiveFileName string `json:"activeFileName"`
}

type AssignHomeworkPayload struct {
	StudentID string `json:"studentId"`
	LessonID  string `json:"lessonId"`
	Title     string `json:"title"`
}

type TerminalInPayload struct {
	Data string `json:"data"`
}

type RunCodePayload struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// Outbound payloads

// InitStatePayload is the full snapshot pushed to a new main-session
// connection at admission time.
type InitStatePayload struct {
	Role                 string           `json:"role"`
	Files                []File           `json:"files"`
	ActiveFileName       string           `json:"activeFileName"`
	TerminalOutput       string           `json:"terminalOutput"`
	SpotlightedStudentID string           `json:"spotlightedStudentId"`
	ControlledStudentID  string           `json:"controlledStudentId"`
	IsFrozen             bool             `json:"isFrozen"`
	WhiteboardLines      []WhiteboardLine `json:"whiteboardLines"`
	IsWhiteboardVisible  bool             `json:"isWhiteboardVisible"`
	TeacherID            string           `json:"teacherId"`
}

type StudentListPayload struct {
	Students []StudentInfo `json:"students"`
}

type HandRaisedListPayload struct {
	StudentIDs []string `json:"studentIds"`
}

type SpotlightUpdatePayload struct {
	StudentID string     `json:"studentId"`
	Workspace *Workspace `json:"workspace,omitempty"`
}

type ControlUpdatePayload struct {
	StudentID string `json:"studentId"`
}

type FreezeUpdatePayload struct {
	IsFrozen bool `json:"isFrozen"`
}

type WhiteboardVisibilityPayload struct {
	Visible bool `json:"visible"`
}

type StudentWorkspaceUpdatePayload struct {
	StudentID string    `json:"studentId"`
	Workspace Workspace `json:"workspace"`
}

type HomeworkWorkspaceUpdatePayload struct {
	Workspace Workspace `json:"workspace"`
}

type HomeworkPresencePayload struct {
	StudentID string `json:"studentId"`
}

// HomeworkStateSyncPayload brings a freshly joined homework connection up to
// date with the session-wide flags that reach homework mode.
type HomeworkStateSyncPayload struct {
	IsFrozen            bool   `json:"isFrozen"`
	ControlledStudentID string `json:"controlledStudentId"`
}

type HomeworkTerminalRelayPayload struct {
	StudentID string `json:"studentId"`
	Data      string `json:"data"`
}

type TerminalOutPayload struct {
	Data string `json:"data"`
}

// PrivateMessageDelivery carries a relayed private message. ID and Timestamp
// are generated server side.
type PrivateMessageDelivery struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}
