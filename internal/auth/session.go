package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the server-side half of an authenticated login.
type Session struct {
	ID        string
	Username  string
	CreatedAt time.Time
}

// SessionStore is an in-memory session table. Sessions do not expire; they
// end on logout or process exit.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]Session)}
}

// Create opens a session for username and returns it.
func (ss *SessionStore) Create(username string) Session {
	s := Session{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: time.Now(),
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sessions[s.ID] = s
	return s
}

func (ss *SessionStore) Get(id string) (Session, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	s, ok := ss.sessions[id]
	return s, ok
}

func (ss *SessionStore) Delete(id string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, id)
}

func (ss *SessionStore) Len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sessions)
}
