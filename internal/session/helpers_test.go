package session

import (
	"sync"

	"classhub/pkg/interfaces"
	"classhub/pkg/types"
)

// fakeConn captures outbound messages for assertions.
type fakeConn struct {
	mu       sync.Mutex
	messages []*types.Outbound
	closed   bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if out, ok := v.(*types.Outbound); ok {
		f.messages = append(f.messages, out)
	}
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

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

func (f *fakeConn) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = nil
}

func newTestClient(userID, role string, homework bool) (*Client, *fakeConn) {
	conn := &fakeConn{}
	identity := &interfaces.Identity{
		UserID:      userID,
		DisplayName: "Test " + userID,
		Role:        role,
	}
	return NewClient(identity, homework, conn), conn
}
