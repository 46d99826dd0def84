// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /vote", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (duration_ms).

# No-Cache Headers

	handler = middleware.NoCache(mux)

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.CodedErrorResponse(w, http.StatusBadRequest, "BOOTH-VOTE-4000", "message")

Parse JSON request bodies:

	var req models.SubmitBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

	ip := middleware.ClientIP(r, cfg.TrustProxy)

Used as the login throttle key. Without a trusted proxy only the
connection's remote address counts; X-Forwarded-For and X-Real-IP are
read by GetClientIP when the proxy is trusted.
*/
package middleware
