package auth

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"
)

// Session represents an authenticated staff session.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture"`
	Domain    string    `json:"domain"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionEvent describes a change in session state.
type SessionEvent struct {
	Type      string // "created", "destroyed", "expired"
	SessionID string
	Email     string
}

// Listener receives session-change events. Callbacks run synchronously on
// the mutating goroutine, so they must not block.
type Listener func(SessionEvent)

// SessionStore holds in-memory sessions with change notification and a
// background expiry sweeper. Initialization of the sweeper is guarded so
// repeated Start calls are safe.
type SessionStore struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	listeners map[int]Listener
	nextSub   int

	startOnce sync.Once
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewSessionStore creates an empty session store. Call Start to begin
// expiry sweeping and Stop to tear it down.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions:  make(map[string]*Session),
		listeners: make(map[int]Listener),
		stop:      make(chan struct{}),
	}
}

// Subscribe registers a listener for session-change events and returns an
// unsubscribe function. Dropping the returned function without calling it
// leaks the subscription.
func (s *SessionStore) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *SessionStore) notify(ev SessionEvent) {
	// Called with s.mu held.
	for _, fn := range s.listeners {
		fn(ev)
	}
}

// Create stores a new session and returns its ID.
func (s *SessionStore) Create(sess *Session) (string, error) {
	id, err := randomToken()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.notify(SessionEvent{Type: "created", SessionID: id, Email: sess.Email})
	s.mu.Unlock()

	return id, nil
}

// Get returns the session for the given ID, or nil if absent or expired.
// Expired sessions are removed on access.
func (s *SessionStore) Get(id string) *Session {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	if time.Now().After(sess.ExpiresAt) {
		s.mu.Lock()
		if cur, still := s.sessions[id]; still && cur == sess {
			delete(s.sessions, id)
			s.notify(SessionEvent{Type: "expired", SessionID: id, Email: sess.Email})
		}
		s.mu.Unlock()
		return nil
	}

	return sess
}

// Destroy removes a session, if present.
func (s *SessionStore) Destroy(id string) {
	s.mu.Lock()
	if sess, ok := s.sessions[id]; ok {
		delete(s.sessions, id)
		s.notify(SessionEvent{Type: "destroyed", SessionID: id, Email: sess.Email})
	}
	s.mu.Unlock()
}

// Len returns the number of live sessions, counting expired ones not yet swept.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Start launches the expiry sweeper. Safe to call more than once; only the
// first call has effect.
func (s *SessionStore) Start(interval time.Duration) {
	s.startOnce.Do(func() {
		go s.sweep(interval)
	})
}

// Stop cancels the expiry sweeper. Safe to call before Start or twice.
func (s *SessionStore) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

func (s *SessionStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for id, sess := range s.sessions {
				if now.After(sess.ExpiresAt) {
					delete(s.sessions, id)
					s.notify(SessionEvent{Type: "expired", SessionID: id, Email: sess.Email})
				}
			}
			s.mu.Unlock()
		}
	}
}

// randomToken returns a URL-safe random token used for session IDs and
// OAuth state values.
func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
