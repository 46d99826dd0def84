// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the booth API.

# Handler Types

Each handler is a struct holding the dependencies it needs:

  - ElectionHandler: home screen, bundle import, poll selection and results
  - VotingHandler: the voting screen and ballot submission
  - UserHandler: organizer registration, login and logout

	elections := handlers.NewElectionHandler(store, cfg, collector)

# Guards

Routes are wrapped with Guards, applied in order by Chain:

	Chain(h.Results,
		RequireImported(store),               // 303 → / without an election
		RequireScreen(session.ScreenResults), // 303 → /vote while locked
		RequireOrganizer(users),              // 303 → /users/login when required
	)

RequireScreen reads the *session.Session that session.Middleware places
in the request context.

# Voting Flow

	POST /import       → Import (multipart field "importedData")
	POST /setPolls     → SetPolls (locks the session, 303 → /vote)
	POST /vote         → SubmitBallot (session stays locked)
	POST /users/logout → Logout (organizer password unlocks)

Election errors map to statuses in writeError: invalid bundles and
ballots are 400, unknown ids 404, a closed store 503.
*/
package handlers
