// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/booth/auth"
	"github.com/danielhkuo/booth/db"
	"github.com/danielhkuo/booth/metrics"
	"github.com/danielhkuo/booth/middleware"
	"github.com/danielhkuo/booth/models"
)

// UserHandler serves the organizer account: a single password guarding
// import, poll selection and results.
type UserHandler struct {
	users      *db.UserRepo
	throttle   *auth.Throttle
	metrics    *metrics.Collector
	trustProxy bool
}

// NewUserHandler builds the account handler. trustProxy keys the login
// throttle on forwarded headers instead of the remote address.
func NewUserHandler(users *db.UserRepo, throttle *auth.Throttle, m *metrics.Collector, trustProxy bool) *UserHandler {
	return &UserHandler{users: users, throttle: throttle, metrics: m, trustProxy: trustProxy}
}

// LoginStatus handles GET /users/login
func (h *UserHandler) LoginStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	registered, err := h.users.Registered(r.Context())
	if err != nil {
		slog.Error("failed to check registration", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.LoginStatusResponse{
		Registered: registered,
		LoggedIn:   sess.LoggedIn(),
	})
}

// Register handles POST /users/register
// The organizer password can be set once; the registering session is logged in.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req models.PasswordRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if errors.Is(err, auth.ErrWeakPassword) {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	err = h.users.Register(r.Context(), hash)
	if errors.Is(err, db.ErrAlreadyRegistered) {
		middleware.ErrorResponse(w, http.StatusConflict, "Organizer already registered")
		return
	}
	if err != nil {
		slog.Error("failed to register organizer", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	sess.Login()
	slog.Info("organizer registered", "session", sess.ID)

	middleware.JSONResponse(w, http.StatusCreated, models.LoginStatusResponse{
		Registered: true,
		LoggedIn:   true,
	})
}

// allow applies the per-client password throttle. It writes 429 and
// returns false once the client's budget is spent.
func (h *UserHandler) allow(w http.ResponseWriter, r *http.Request) (string, bool) {
	clientIP := middleware.ClientIP(r, h.trustProxy)
	if !h.throttle.Allow(clientIP) {
		h.metrics.LoginAttempt(metrics.LoginThrottled)
		slog.Warn("password attempt throttled", "path", r.URL.Path, "client_ip", clientIP)
		middleware.ErrorResponse(w, http.StatusTooManyRequests, "Too many login attempts")
		return clientIP, false
	}
	return clientIP, true
}

// verify checks password against hash and records the attempt. A match
// resets the client's throttle.
func (h *UserHandler) verify(w http.ResponseWriter, password, hash, clientIP string) bool {
	if err := auth.VerifyPassword(password, hash); err != nil {
		h.metrics.LoginAttempt(metrics.LoginDenied)
		if !errors.Is(err, auth.ErrInvalidPassword) {
			slog.Error("stored password hash unusable", "error", err)
		}
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid password")
		return false
	}
	h.throttle.Reset(clientIP)
	h.metrics.LoginAttempt(metrics.LoginOK)
	return true
}

// Login handles POST /users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	clientIP, ok := h.allow(w, r)
	if !ok {
		return
	}

	var req models.PasswordRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	hash, err := h.users.PasswordHash(r.Context())
	if errors.Is(err, db.ErrNoUser) {
		middleware.ErrorResponse(w, http.StatusConflict, "No organizer registered")
		return
	}
	if err != nil {
		slog.Error("failed to load password hash", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !h.verify(w, req.Password, hash, clientIP) {
		return
	}
	sess.Login()
	slog.Info("organizer logged in", "session", sess.ID, "client_ip", clientIP)

	middleware.JSONResponse(w, http.StatusOK, models.LoginStatusResponse{
		Registered: true,
		LoggedIn:   true,
	})
}

// Logout handles POST /users/logout
// Also the only way out of a locked voting session, so it requires the
// organizer password whenever one is registered, under the login limit.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	hash, err := h.users.PasswordHash(r.Context())
	registered := err == nil
	if err != nil && !errors.Is(err, db.ErrNoUser) {
		slog.Error("failed to load password hash", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if registered {
		clientIP, ok := h.allow(w, r)
		if !ok {
			return
		}
		var req models.PasswordRequest
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if !h.verify(w, req.Password, hash, clientIP) {
			return
		}
	}

	state := sess.Logout()
	slog.Info("session logged out", "session", sess.ID, "state", state)

	middleware.JSONResponse(w, http.StatusOK, models.LoginStatusResponse{
		Registered: registered,
		LoggedIn:   false,
	})
}
