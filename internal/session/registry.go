package session

import (
	"sync"
)

// Registry is the process-wide table of live sessions
// ARCHITECTURAL DISCOVERY: Explicit registry object instead of module-level
// state so tests can run isolated registries side by side. Its lock only
// covers the key->Session map; per-session state has its own mutex.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the session for key, creating it if absent. The
// created flag distinguishes a first joiner from a later one.
// FUNCTIONAL DISCOVERY: Creation happens under the write lock so two
// simultaneous first-joiners converge on one Session aggregate.
func (r *Registry) GetOrCreate(key string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[key]; ok {
		return s, false
	}
	s := New(key)
	r.sessions[key] = s
	return s, true
}

// Get returns an existing session. Homework admission uses this: a homework
// sub-session may only attach to an already-existing class.
func (r *Registry) Get(key string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[key]
	return s, ok
}

// Remove deletes the session for key, but only if it is still the same
// aggregate instance and still empty. The pointer check stops a stale
// teardown from deleting a recreated session. The emptiness check runs under
// the session mutex and marks the session removed in the same critical
// section, so a concurrent joiner either attaches first (Remove aborts) or
// finds the session refusing attaches and retries against the registry.
// FUNCTIONAL DISCOVERY: Lock order is registry then session; no path holds a
// session mutex while acquiring the registry lock, so this nesting cannot
// deadlock.
func (r *Registry) Remove(key string, s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[key]
	if !ok || current != s {
		return false
	}
	if !s.markRemovedIfEmpty() {
		return false
	}
	delete(r.sessions, key)
	return true
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ConnectionCount returns the number of attached connections for a session
// key, homework included. Zero for unknown keys.
func (r *Registry) ConnectionCount(key string) int {
	r.mu.RLock()
	s, ok := r.sessions[key]
	r.mu.RUnlock()

	if !ok {
		return 0
	}
	return s.ClientCount()
}

// Stats returns registry statistics for the health endpoint.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, s := range r.sessions {
		total += s.ClientCount()
	}
	return map[string]int{
		"active_sessions":   len(r.sessions),
		"total_connections": total,
	}
}
