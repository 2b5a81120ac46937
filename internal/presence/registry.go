// Package presence tracks which users currently hold live websocket
// connections. The registry is process-local state: it starts empty on
// every boot and is never persisted.
package presence

import (
	"log"
	"sync"
)

// Registry maps a user id to that user's live sessions. Bind/Unbind happen
// from many connection goroutines concurrently, so all map access sits
// behind the mutex and readers only ever get snapshot copies.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]map[string]*Session // userID -> sessionID -> session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]map[string]*Session),
	}
}

// Bind registers a session under a user id. Re-binding the same session to
// a new identity (a second join event) moves it.
func (r *Registry) Bind(userID string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.UserID != "" && s.UserID != userID {
		r.removeLocked(s)
	}
	s.UserID = userID

	if r.sessions[userID] == nil {
		r.sessions[userID] = make(map[string]*Session)
	}
	r.sessions[userID][s.ID] = s
	log.Printf("presence: user %s bound session %s (%d live)", userID, s.ID, len(r.sessions[userID]))
}

// Unbind removes a session and closes its outbound queue. Safe to call for
// sessions that never completed the join handshake.
func (r *Registry) Unbind(s *Session) {
	r.mu.Lock()
	r.removeLocked(s)
	r.mu.Unlock()

	s.Close()
}

func (r *Registry) removeLocked(s *Session) {
	if s.UserID == "" {
		return
	}
	set, ok := r.sessions[s.UserID]
	if !ok {
		return
	}
	delete(set, s.ID)
	if len(set) == 0 {
		delete(r.sessions, s.UserID)
	}
}

// SessionsFor returns a snapshot of the user's live sessions. Empty slice
// means offline, which is not an error anywhere in the send path.
func (r *Registry) SessionsFor(userID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.sessions[userID]
	out := make([]*Session, 0, len(set))
	for _, s := range set {
		out = append(out, s)
	}
	return out
}

// Online reports whether the user has at least one live session.
func (r *Registry) Online(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions[userID]) > 0
}
