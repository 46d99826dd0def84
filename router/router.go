// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danielhkuo/booth/auth"
	"github.com/danielhkuo/booth/cliparse"
	"github.com/danielhkuo/booth/db"
	"github.com/danielhkuo/booth/election"
	"github.com/danielhkuo/booth/handlers"
	"github.com/danielhkuo/booth/metrics"
	"github.com/danielhkuo/booth/middleware"
	"github.com/danielhkuo/booth/session"
)

// Deps are the long-lived objects the routes share. main owns their lifetime.
type Deps struct {
	DB       *sql.DB
	Store    *election.Store
	Sessions *session.Manager
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
	// Throttle limits password attempts. Built from cfg when nil.
	Throttle *auth.Throttle
}

// NewRouter wires every route. Health and metrics sit outside the session
// layer so probes do not create sessions.
func NewRouter(deps Deps, cfg cliparse.Config) http.Handler {
	mux := http.NewServeMux()
	app := http.NewServeMux()

	users := db.NewUserRepo(deps.DB)
	ledger := election.NewLedger(deps.Store, deps.Metrics)
	throttle := deps.Throttle
	if throttle == nil {
		throttle = auth.NewThrottle(cfg.LoginRate, cfg.LoginBurst)
	}

	// Initialize handlers
	electionHandler := handlers.NewElectionHandler(deps.Store, cfg, deps.Metrics)
	votingHandler := handlers.NewVotingHandler(deps.Store, ledger)
	userHandler := handlers.NewUserHandler(users, throttle, deps.Metrics, cfg.TrustProxy)

	imported := handlers.RequireImported(deps.Store)
	organizer := handlers.RequireOrganizer(users)
	screen := handlers.RequireScreen

	route := func(pattern string, h http.HandlerFunc, guards ...handlers.Guard) {
		app.HandleFunc(pattern, middleware.WithLogging(handlers.Chain(h, guards...)))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metrics.Handler(deps.Gatherer))

	// Organizer screens
	route("GET /{$}", electionHandler.Home, screen(session.ScreenHome))
	route("POST /import", electionHandler.Import, screen(session.ScreenImport), organizer)
	route("GET /selectPolls", electionHandler.SelectPolls, imported, screen(session.ScreenConfigure), organizer)
	route("POST /setPolls", electionHandler.SetPolls, imported, screen(session.ScreenConfigure), organizer)
	route("GET /results", electionHandler.Results, imported, screen(session.ScreenResults), organizer)

	// Voting booth
	route("GET /vote", votingHandler.GetVote, imported, screen(session.ScreenVote))
	route("POST /vote", votingHandler.SubmitBallot, imported, screen(session.ScreenVote))

	// Organizer account
	route("GET /users/login", userHandler.LoginStatus, screen(session.ScreenLogin))
	route("POST /users/register", userHandler.Register, screen(session.ScreenLogin))
	route("POST /users/login", userHandler.Login, screen(session.ScreenLogin))
	route("POST /users/logout", userHandler.Logout, screen(session.ScreenLogout))

	mux.Handle("/", deps.Sessions.Middleware(app))

	return middleware.NoCache(mux)
}
