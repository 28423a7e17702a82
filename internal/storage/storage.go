package storage

import (
	"sort"
	"sync"

	"github.com/lehigh-university-libraries/flashcarder/internal/clipboard"
	"github.com/lehigh-university-libraries/flashcarder/internal/session"
)

// Entry is a live session together with the paste feed it listens to
type Entry struct {
	Session *session.Session
	Feed    *clipboard.Feed
}

type SessionStore struct {
	sessions map[string]Entry
	mu       sync.RWMutex
}

func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]Entry),
	}
}

// Open registers sess with a fresh paste feed and attaches it
func (s *SessionStore) Open(sess *session.Session) Entry {
	entry := Entry{Session: sess, Feed: clipboard.NewFeed()}
	sess.Attach(entry.Feed)
	s.Set(sess.ID(), entry)
	return entry
}

func (s *SessionStore) Get(sessionID string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, exists := s.sessions[sessionID]
	return entry, exists
}

func (s *SessionStore) Set(sessionID string, entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = entry
}

// GetAll returns the sessions oldest first
func (s *SessionStore) GetAll() []*session.Session {
	s.mu.RLock()
	result := make([]*session.Session, 0, len(s.sessions))
	for _, v := range s.sessions {
		result = append(result, v.Session)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt().Before(result[j].CreatedAt())
	})
	return result
}

// Delete closes the session and forgets it. It reports whether it existed.
func (s *SessionStore) Delete(sessionID string) bool {
	s.mu.Lock()
	entry, exists := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if exists {
		entry.Session.Close()
	}
	return exists
}

// CloseAll closes every session, used on shutdown
func (s *SessionStore) CloseAll() {
	s.mu.Lock()
	entries := s.sessions
	s.sessions = make(map[string]Entry)
	s.mu.Unlock()

	for _, e := range entries {
		e.Session.Close()
	}
}
