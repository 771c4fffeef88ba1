package session

import (
	"fmt"
	"sync"
	"testing"

	"classhub/pkg/types"
)

func TestRegistryGetOrCreate(t *testing.T) {
	registry := NewRegistry()

	first, created := registry.GetOrCreate("class-1")
	if !created {
		t.Error("Expected first lookup to create the session")
	}
	second, created := registry.GetOrCreate("class-1")
	if created {
		t.Error("Expected second lookup to reuse the session")
	}
	if first != second {
		t.Error("Expected the same session instance")
	}
	if registry.Count() != 1 {
		t.Errorf("Expected 1 session, got %d", registry.Count())
	}
}

func TestRegistryGet(t *testing.T) {
	registry := NewRegistry()

	if _, ok := registry.Get("missing"); ok {
		t.Error("Expected lookup of unknown key to miss")
	}

	created, _ := registry.GetOrCreate("class-1")
	got, ok := registry.Get("class-1")
	if !ok || got != created {
		t.Error("Expected Get to return the created session")
	}
}

func TestRegistryRemoveIsPointerChecked(t *testing.T) {
	registry := NewRegistry()

	stale, _ := registry.GetOrCreate("class-1")
	if !registry.Remove("class-1", stale) {
		t.Error("Expected removal of the current session to succeed")
	}

	// A replacement session under the same key must survive a late teardown
	// of the old one.
	replacement, _ := registry.GetOrCreate("class-1")
	if registry.Remove("class-1", stale) {
		t.Error("Expected removal with a stale pointer to be refused")
	}
	if got, ok := registry.Get("class-1"); !ok || got != replacement {
		t.Error("Replacement session was removed by a stale teardown")
	}
}

func TestRegistryRemoveSparesLateJoiner(t *testing.T) {
	registry := NewRegistry()

	sess, _ := registry.GetOrCreate("class-1")
	teacher, _ := newTestClient("teacher-1", types.RoleTeacher, false)
	if _, err := sess.Attach(teacher); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	// The teacher leaves and Detach reports teardown, but before the
	// disconnect path reaches Remove a new admission attaches to the same
	// session. The stale teardown must not delete it.
	_, teardown := sess.Detach(teacher)
	if !teardown {
		t.Fatal("Expected teardown after the last detach")
	}

	joined, created := registry.GetOrCreate("class-1")
	if created || joined != sess {
		t.Fatal("Expected the late joiner to reach the existing session")
	}
	student, _ := newTestClient("student-1", types.RoleStudent, false)
	if _, err := joined.Attach(student); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	if registry.Remove("class-1", sess) {
		t.Error("Remove deleted a session with an attached client")
	}
	if got, ok := registry.Get("class-1"); !ok || got != sess {
		t.Error("Session vanished from the registry under its joiner")
	}
	if registry.ConnectionCount("class-1") != 1 {
		t.Errorf("Expected 1 connection to survive, got %d", registry.ConnectionCount("class-1"))
	}
}

func TestRemovedSessionRefusesAttach(t *testing.T) {
	registry := NewRegistry()

	sess, _ := registry.GetOrCreate("class-1")
	teacher, _ := newTestClient("teacher-1", types.RoleTeacher, false)
	if _, err := sess.Attach(teacher); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	sess.Detach(teacher)

	if !registry.Remove("class-1", sess) {
		t.Fatal("Expected removal of the empty session to succeed")
	}

	// A joiner who fetched the aggregate before removal must be turned away
	// so it retries against the registry instead of landing on a dead session.
	student, _ := newTestClient("student-1", types.RoleStudent, false)
	if _, err := sess.Attach(student); err != ErrSessionClosed {
		t.Fatalf("Expected ErrSessionClosed, got %v", err)
	}

	fresh, created := registry.GetOrCreate("class-1")
	if !created || fresh == sess {
		t.Fatal("Expected the retry to create a fresh session")
	}
	if _, err := fresh.Attach(student); err != nil {
		t.Fatalf("Attach to the fresh session failed: %v", err)
	}
}

func TestRegistryConcurrentGetOrCreate(t *testing.T) {
	registry := NewRegistry()

	const goroutines = 50
	sessions := make([]*Session, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			sessions[i], _ = registry.GetOrCreate("class-1")
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if sessions[i] != sessions[0] {
			t.Fatal("Concurrent GetOrCreate produced distinct sessions for one key")
		}
	}
	if registry.Count() != 1 {
		t.Errorf("Expected 1 session, got %d", registry.Count())
	}
}

func TestRegistryStats(t *testing.T) {
	registry := NewRegistry()

	for i := 0; i < 3; i++ {
		sess, _ := registry.GetOrCreate(fmt.Sprintf("class-%d", i))
		client, _ := newTestClient(fmt.Sprintf("user-%d", i), types.RoleStudent, false)
		sess.Attach(client)
	}

	stats := registry.Stats()
	if stats["active_sessions"] != 3 {
		t.Errorf("Expected 3 active sessions, got %d", stats["active_sessions"])
	}
	if stats["total_connections"] != 3 {
		t.Errorf("Expected 3 total connections, got %d", stats["total_connections"])
	}

	if registry.ConnectionCount("class-0") != 1 {
		t.Errorf("Expected 1 connection in class-0, got %d", registry.ConnectionCount("class-0"))
	}
	if registry.ConnectionCount("missing") != 0 {
		t.Error("Expected 0 connections for an unknown key")
	}
}
