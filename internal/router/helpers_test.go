package router

import (
	"context"
	"sync"

	"classhub/internal/session"
	"classhub/pkg/interfaces"
	"classhub/pkg/types"
)

// fakeConn captures outbound messages for assertions.
type fakeConn struct {
	mu       sync.Mutex
	messages []*types.Outbound
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if out, ok := v.(*types.Outbound); ok {
		f.messages = append(f.messages, out)
	}
	return nil
}

func (f *fakeConn) Close() error { return nil }

func (f *fakeConn) all() []*types.Outbound {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*types.Outbound, len(f.messages))
	copy(out, f.messages)
	return out
}

func (f *fakeConn) ofType(msgType string) []*types.Outbound {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Outbound
	for _, m := range f.messages {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

type execCall struct {
	Code     string
	Language string
}

// stubExecutor records calls and returns a canned result.
type stubExecutor struct {
	mu     sync.Mutex
	calls  []execCall
	result *interfaces.ExecutionResult
	err    error
}

func (s *stubExecutor) Execute(ctx context.Context, code, language string) (*interfaces.ExecutionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, execCall{Code: code, Language: language})
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &interfaces.ExecutionResult{Succeeded: true, Output: ""}, nil
}

func (s *stubExecutor) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubExecutor) lastCall() execCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return execCall{}
	}
	return s.calls[len(s.calls)-1]
}

func attachClient(sess *session.Session, userID, role string, homework bool) (*session.Client, *fakeConn) {
	conn := &fakeConn{}
	client := session.NewClient(&interfaces.Identity{
		UserID:      userID,
		DisplayName: "Test " + userID,
		Role:        role,
	}, homework, conn)
	sess.Attach(client)
	return client, conn
}
