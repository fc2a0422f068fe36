package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spektr-org/pulse/engine"
)

// Session is one uploaded table and its analysis.
type Session struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	CreatedAt time.Time        `json:"createdAt"`
	Summary   string           `json:"summary,omitempty"`
	Analysis  *engine.Analysis `json:"analysis"`
}

// Store keeps sessions in memory. When full, the oldest session is evicted.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string
	max      int
}

// NewStore creates a store holding at most max sessions (0 = unlimited).
func NewStore(max int) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		max:      max,
	}
}

// Put stores a and returns the new session.
func (s *Store) Put(name string, a *engine.Analysis) *Session {
	sess := &Session{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Analysis:  a,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.max > 0 {
		for len(s.order) >= s.max {
			oldest := s.order[0]
			s.order = s.order[1:]
			delete(s.sessions, oldest)
		}
	}
	s.sessions[sess.ID] = sess
	s.order = append(s.order, sess.ID)
	return sess
}

// Get returns a copy of the session with id.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	cp := *sess
	return &cp, true
}

// SetSummary attaches a narrative summary to an existing session.
func (s *Store) SetSummary(id, summary string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if ok {
		sess.Summary = summary
	}
	return ok
}

// Delete removes the session with id and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
