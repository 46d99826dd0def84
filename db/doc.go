// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections, schema creation and the
repositories behind the election store and the organizer account.

# Connections

	conn, err := db.Open(db.TypeSQLite, "booth.db")
	conn, err := db.Open(db.TypePostgres, "postgres://...")

SQLite connections enable foreign keys and a busy timeout and are limited
to one open connection.

# Schema Creation

CreateSchema is safe to call multiple times - uses IF NOT EXISTS for all
tables and indexes.

	election 1──* poll 1──* candidate
	app_user (single organizer row)

All foreign keys use ON DELETE CASCADE. Queries use $N placeholders,
which both drivers accept.

# Repositories

ElectionRepo implements election.Repository. Replacing the election,
setting the shown polls and recording a ballot each run in one
transaction. UserRepo stores the
organizer's password hash.
*/
package db
