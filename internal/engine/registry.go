package engine

import (
	"sync"
)

// Key identifies the scope of a session: one chat may hold at most one
// active session per game family.
type Key struct {
	ChatID int64
	Game   string
}

// Registry is the process-wide map of live sessions. Entries are
// inserted on Acquire and removed on Release (session close); it is
// iterated only for administrative shutdown.
type Registry struct {
	mu       sync.Mutex
	sessions map[Key]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[Key]*Session)}
}

// acquire registers s under its key. Fails with ErrSessionOpen when an
// entry already exists; the error is expected control flow for the
// "table already open" user path.
func (r *Registry) acquire(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.key]; exists {
		return ErrSessionOpen
	}
	r.sessions[s.key] = s
	return nil
}

// release removes the entry for key, but only if it still maps to s.
// A stale release (a new session already acquired the scope) is a
// no-op.
func (r *Registry) release(key Key, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.sessions[key]; ok && cur == s {
		delete(r.sessions, key)
	}
}

// Lookup returns the live session for key, if any.
func (r *Registry) Lookup(key Key) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[key]
	return s, ok
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseAll closes every live session and waits for each to settle and
// detach. Used for graceful shutdown: an open session must never leave
// wagered stakes un-settled.
func (r *Registry) CloseAll(reason string) {
	r.mu.Lock()
	open := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		open = append(open, s)
	}
	r.mu.Unlock()

	for _, s := range open {
		s.Shutdown(reason)
	}
}
