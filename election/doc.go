// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package election holds the active election in memory, backed by a
// Repository. Store imports bundles and serves polls and candidates by id;
// Ledger counts ballots against it.
package election
