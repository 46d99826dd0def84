// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the booth API.

# Route Registration

NewRouter returns the full handler tree, wrapped in no-cache headers:

	h := router.NewRouter(router.Deps{
		DB:       conn,
		Store:    store,
		Sessions: sessions,
		Metrics:  collector,
		Gatherer: registry,
		Throttle: throttle,
	}, cfg)

# Endpoints

Outside the session layer:

	GET /health
	GET /metrics

Organizer screens (locked sessions are sent to /vote):

	GET  /            - App name, LAN address, imported election
	POST /import      - Upload an election bundle
	GET  /selectPolls - Election for poll selection
	POST /setPolls    - Choose shown polls and lock the booth
	GET  /results     - Tallies

Voting booth (unlocked sessions are sent to /selectPolls):

	GET  /vote - Shown polls
	POST /vote - Cast a ballot

Organizer account:

	GET  /users/login    - Registration and login status
	POST /users/register - Set the organizer password once
	POST /users/login    - Log in (rate limited per client IP)
	POST /users/logout   - Log out and unlock the booth (same limit)
*/
package router
