// Package session tracks live game sessions in memory. Each session
// wraps one engine instance; the registry only indexes them.
package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/statecraft-engine/pkg/engine"
)

// Session is one player's live game. The engine is not safe for
// concurrent use, so every engine operation must run under the
// session lock.
type Session struct {
	ID       uuid.UUID
	PlayerID string
	Engine   *engine.Engine

	mu sync.Mutex
}

// Lock serializes engine access for this session.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Registry is the in-memory session index.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]*Session)}
}

// Create registers a new session for the player and returns it.
func (r *Registry) Create(playerID string, eng *engine.Engine) *Session {
	s := &Session{
		ID:       uuid.New(),
		PlayerID: playerID,
		Engine:   eng,
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session with the given id, or nil.
func (r *Registry) Get(id uuid.UUID) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

// Delete removes a session from the registry.
func (r *Registry) Delete(id uuid.UUID) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
