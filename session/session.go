// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CookieName is the cookie carrying the session id
const CookieName = "booth_session"

// Session is the per-client state: the lock and the organizer login.
type Session struct {
	ID string

	mu       sync.Mutex
	state    LockState
	loggedIn bool
	lastSeen time.Time
}

// State returns the current lock state
func (s *Session) State() LockState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Fire applies e to the lock state and returns the new state
func (s *Session) Fire(e Event) (LockState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.state.Next(e)
	if err != nil {
		return s.state, err
	}
	s.state = next
	return next, nil
}

func (s *Session) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

// Login marks the organizer as logged in and releases the lock
func (s *Session) Login() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggedIn = true
	s.state = Unlocked
}

// Logout clears the organizer login and fires EventLogout
func (s *Session) Logout() LockState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggedIn = false
	// EventLogout is valid from every state
	s.state, _ = s.state.Next(EventLogout)
	return s.state
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// Manager keeps sessions in memory. Sessions do not survive a restart.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the live session for id
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.idleSince(m.now()) > m.ttl {
		return nil, false
	}
	return s, true
}

// New creates a session in the Unlocked state
func (m *Manager) New() *Session {
	s := &Session{ID: uuid.NewString(), state: Unlocked, lastSeen: m.now()}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Len returns the number of stored sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops sessions idle longer than the TTL and returns how many remain
func (m *Manager) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.idleSince(now) > m.ttl {
			delete(m.sessions, id)
		}
	}
	return len(m.sessions)
}

// Run sweeps every interval until ctx is done. onSweep, if set, receives
// the remaining session count.
func (m *Manager) Run(ctx context.Context, interval time.Duration, onSweep func(active int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := m.Sweep()
			if onSweep != nil {
				onSweep(n)
			}
		}
	}
}

type contextKey struct{}

// Middleware loads the caller's session from its cookie, creating one when
// missing or expired, and stores it in the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var s *Session
		if c, err := r.Cookie(CookieName); err == nil {
			s, _ = m.Get(c.Value)
		}
		if s == nil {
			s = m.New()
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    s.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		s.touch(m.now())

		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), s)))
	})
}

// NewContext returns ctx carrying s
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the request's session, or nil outside Middleware
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
