// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLockState_Transitions(t *testing.T) {
	tests := []struct {
		from    LockState
		event   Event
		to      LockState
		wantErr bool
	}{
		{Unlocked, EventReachHome, Unlocked, false},
		{Unlocked, EventBeginVoting, Locked, false},
		{Unlocked, EventLogout, Unlocked, false},
		{Unlocked, EventBallotCast, Unlocked, true},
		{Locked, EventBallotCast, Locked, false},
		{Locked, EventLogout, Unlocked, false},
		{Locked, EventReachHome, Locked, true},
		{Locked, EventBeginVoting, Locked, true},
		{LockState(7), EventLogout, LockState(7), true},
	}

	for _, tt := range tests {
		got, err := tt.from.Next(tt.event)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s on %s: err = %v, wantErr %v", tt.event, tt.from, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s on %s: expected ErrInvalidTransition, got %v", tt.event, tt.from, err)
		}
		if got != tt.to {
			t.Errorf("%s on %s: got %s, want %s", tt.event, tt.from, got, tt.to)
		}
	}
}

func TestLockState_Redirect(t *testing.T) {
	tests := []struct {
		state  LockState
		screen Screen
		want   string
	}{
		{Unlocked, ScreenHome, ""},
		{Unlocked, ScreenImport, ""},
		{Unlocked, ScreenConfigure, ""},
		{Unlocked, ScreenLogin, ""},
		{Unlocked, ScreenResults, ""},
		{Unlocked, ScreenVote, SelectPollPath},
		{Unlocked, ScreenLogout, ""},
		{Locked, ScreenHome, VotePath},
		{Locked, ScreenImport, VotePath},
		{Locked, ScreenConfigure, VotePath},
		{Locked, ScreenLogin, VotePath},
		{Locked, ScreenResults, VotePath},
		{Locked, ScreenVote, ""},
		{Locked, ScreenLogout, ""},
	}

	for _, tt := range tests {
		if got := tt.state.Redirect(tt.screen); got != tt.want {
			t.Errorf("%s screen %d: got %q, want %q", tt.state, tt.screen, got, tt.want)
		}
	}
}

func TestSession_Fire(t *testing.T) {
	m := NewManager(time.Hour)
	s := m.New()

	if s.State() != Unlocked {
		t.Fatalf("new session should be unlocked")
	}
	if _, err := s.Fire(EventBeginVoting); err != nil {
		t.Fatalf("begin voting: %v", err)
	}
	if _, err := s.Fire(EventReachHome); err == nil {
		t.Errorf("reaching home while locked should be invalid")
	}
	if s.State() != Locked {
		t.Errorf("invalid event changed state to %s", s.State())
	}
	if st := s.Logout(); st != Unlocked {
		t.Errorf("logout should unlock, got %s", st)
	}
}

func TestSession_LoginUnlocks(t *testing.T) {
	s := NewManager(time.Hour).New()
	s.Fire(EventBeginVoting)
	s.Login()
	if !s.LoggedIn() || s.State() != Unlocked {
		t.Errorf("login should set logged in and unlock: %v %s", s.LoggedIn(), s.State())
	}
	s.Logout()
	if s.LoggedIn() {
		t.Errorf("logout should clear login")
	}
}

func TestManager_ExpiryAndSweep(t *testing.T) {
	m := NewManager(time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	old := m.New()
	now = now.Add(30 * time.Second)
	fresh := m.New()

	now = now.Add(45 * time.Second)
	if _, ok := m.Get(old.ID); ok {
		t.Errorf("session idle past TTL should not be returned")
	}
	if _, ok := m.Get(fresh.ID); !ok {
		t.Errorf("fresh session should be returned")
	}

	if remaining := m.Sweep(); remaining != 1 {
		t.Errorf("expected 1 session after sweep, got %d", remaining)
	}
}

func TestMiddleware_CookieRoundTrip(t *testing.T) {
	m := NewManager(time.Hour)

	var seen []*Session
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, FromContext(r.Context()))
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName {
		t.Fatalf("expected session cookie, got %v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Errorf("session cookie should be HttpOnly")
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if len(w.Result().Cookies()) != 0 {
		t.Errorf("known session should not be reissued")
	}
	if seen[0] == nil || seen[0] != seen[1] {
		t.Errorf("expected the same session on both requests")
	}

	// unknown ids get a new session
	req = httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "forged"})
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if seen[2] == nil || seen[2].ID == "forged" {
		t.Errorf("forged session id was accepted")
	}
	if m.Len() != 2 {
		t.Errorf("expected 2 sessions, got %d", m.Len())
	}
}

func TestFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if FromContext(req.Context()) != nil {
		t.Errorf("expected nil session outside middleware")
	}
}
