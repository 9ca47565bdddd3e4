package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/storyboard/internal/host"
)

// SessionStore keeps storyboard sessions in memory for the lifetime of the
// process.
type SessionStore struct {
	sessions map[string]*host.Host
	mu       sync.RWMutex
}

func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*host.Host),
	}
}

func (s *SessionStore) Get(sessionID string) (*host.Host, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	return session, exists
}

func (s *SessionStore) Set(sessionID string, session *host.Host) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.sessions[sessionID]; ok && old != session {
		old.Close()
	}
	s.sessions[sessionID] = session
}

// GetOrCreate returns the session stored under sessionID, creating it with
// create when missing. The second result reports whether it was created.
func (s *SessionStore) GetOrCreate(sessionID string, create func(string) *host.Host) (*host.Host, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[sessionID]; ok {
		return session, false
	}
	session := create(sessionID)
	s.sessions[sessionID] = session
	return session, true
}

// GetAll returns the sessions ordered by creation time.
func (s *SessionStore) GetAll() []*host.Host {
	s.mu.RLock()
	result := make([]*host.Host, 0, len(s.sessions))
	for _, v := range s.sessions {
		result = append(result, v)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func (s *SessionStore) Delete(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return false
	}
	session.Close()
	delete(s.sessions, sessionID)
	return true
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Prune drops sessions idle for longer than maxAge and returns how many were
// removed.
func (s *SessionStore) Prune(now time.Time, maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if now.Sub(session.UpdatedAt()) > maxAge {
			session.Close()
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
