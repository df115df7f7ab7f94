package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/image-analyzer/internal/selection"
	"golang.org/x/sync/semaphore"
)

// Session is one operator's selection state. Every access to the state goes through Do.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	state    *selection.State
	inFlight *semaphore.Weighted
}

// Do runs fn with exclusive access to the session's state
func (s *Session) Do(fn func(*selection.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

// TryBeginAnalysis claims the session's single analysis slot.
// It returns false when an attempt is already running; call EndAnalysis when done.
func (s *Session) TryBeginAnalysis() bool {
	return s.inFlight.TryAcquire(1)
}

func (s *Session) EndAnalysis() {
	s.inFlight.Release(1)
}

type SessionStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
	}
}

// Create starts a session with an empty selection
func (s *SessionStore) Create() *Session {
	session := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		state:     selection.New(),
		inFlight:  semaphore.NewWeighted(1),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return session
}

func (s *SessionStore) Get(sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	return session, exists
}

// GetAll returns sessions oldest first
func (s *SessionStore) GetAll() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Session, 0, len(s.sessions))
	for _, v := range s.sessions {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
