// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

  - SubmitBallotRequest: votes (candidate ids)
  - SetPollsRequest: poll_ids
  - PasswordRequest: password

# Response Types

  - HomeResponse: app_name, lan_ip, already_imported
  - ImportResponse: election_id, name, polls, candidates
  - SubmitBallotResponse: counted, message
  - LoginStatusResponse: registered, logged_in
  - BallotView: election_id, name, shown polls with candidates (no counts)
  - ErrorResponse: error, message, code

# Domain Types

An Election owns Polls, a Poll owns Candidates. Polls and Candidates are
Resources addressable by id and ResourceKind. ResourcePatch values
(PollPatch, CandidatePatch) carry partial updates; nil fields are left
unchanged.
*/
package models
