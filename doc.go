// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the booth server.

booth runs an election on a local network. An organizer imports an
election bundle, picks the polls to show and hands the device to voters.
A device that has entered voting stays locked on the vote screen until
the organizer logs out with the password.

# Starting the Server

With no configuration the server listens on 3318 and keeps its data in
booth.db:

	go run .

Settings come from a YAML file, BOOTH_* environment variables (a .env
file is read too) and flags, later sources winning:

	BOOTH_APP_NAME="Student Council" go run . -p 8080 -c booth.yaml

Use -t postgres with a connection URL in -d for PostgreSQL.

# Architecture

  - election: bundle loading, the resource store and the vote ledger
  - session: per-device lock state machine and cookie sessions
  - handlers: HTTP request handlers and route guards
  - router: Route definitions using Go 1.22+ routing
  - middleware: logging, no-cache headers, JSON helpers
  - models: Request/response and domain types
  - auth: organizer password hashing and login throttling
  - metrics: Prometheus collectors
  - db: connections, schema and repositories
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
