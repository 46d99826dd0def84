// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/booth/db"
	"github.com/danielhkuo/booth/election"
	"github.com/danielhkuo/booth/middleware"
	"github.com/danielhkuo/booth/session"
)

// LoginPath is where the organizer guard sends anonymous sessions
const LoginPath = "/users/login"

// Guard decorates a handler with a precondition
type Guard func(http.HandlerFunc) http.HandlerFunc

// Chain applies guards to h. The first guard runs first.
func Chain(h http.HandlerFunc, guards ...Guard) http.HandlerFunc {
	for i := len(guards) - 1; i >= 0; i-- {
		h = guards[i](h)
	}
	return h
}

// RequireImported redirects to / while no election is loaded
func RequireImported(store *election.Store) Guard {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !store.Imported() {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			next(w, r)
		}
	}
}

// RequireScreen applies the session lock to screen, redirecting when the
// current lock state does not allow it.
func RequireScreen(screen session.Screen) Guard {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			sess, ok := currentSession(w, r)
			if !ok {
				return
			}
			if to := sess.State().Redirect(screen); to != "" {
				http.Redirect(w, r, to, http.StatusSeeOther)
				return
			}
			next(w, r)
		}
	}
}

// RequireOrganizer redirects to the login screen when a password is
// registered and the session has not logged in. Without a password the
// booth is open.
func RequireOrganizer(users *db.UserRepo) Guard {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			sess, ok := currentSession(w, r)
			if !ok {
				return
			}
			registered, err := users.Registered(r.Context())
			if err != nil {
				slog.Error("failed to check organizer registration", "error", err)
				middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
				return
			}
			if registered && !sess.LoggedIn() {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			next(w, r)
		}
	}
}

func currentSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		slog.Error("request without session", "path", r.URL.Path)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Session unavailable")
		return nil, false
	}
	return sess, true
}

// writeError maps election errors to HTTP statuses
func writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, election.ErrBundle), errors.Is(err, election.ErrVote):
		status = http.StatusBadRequest
	case errors.Is(err, election.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, election.ErrClosed):
		status = http.StatusServiceUnavailable
	default:
		slog.Error("request failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
		return
	}
	middleware.CodedErrorResponse(w, status, election.Code(err), err.Error())
}
