// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Resource kinds addressable through the election store
type ResourceKind string

const (
	KindPoll      ResourceKind = "poll"
	KindCandidate ResourceKind = "candidate"
)

// Valid reports whether k is a known resource kind
func (k ResourceKind) Valid() bool {
	return k == KindPoll || k == KindCandidate
}

// Request types

// candidate IDs, at most one per poll
type SubmitBallotRequest struct {
	Votes []string `json:"votes"`
}

type SetPollsRequest struct {
	PollIDs []string `json:"poll_ids"`
}

type PasswordRequest struct {
	Password string `json:"password"`
}

// Response types

type HomeResponse struct {
	AppName         string `json:"app_name"`
	LanIP           string `json:"lan_ip"`
	AlreadyImported string `json:"already_imported,omitempty"`
}

type ImportResponse struct {
	ElectionID string `json:"election_id"`
	Name       string `json:"name"`
	Polls      int    `json:"polls"`
	Candidates int    `json:"candidates"`
}

type SubmitBallotResponse struct {
	Counted int    `json:"counted"`
	Message string `json:"message"`
}

type LoginStatusResponse struct {
	Registered bool `json:"registered"`
	LoggedIn   bool `json:"logged_in"`
}

// BallotView is the voting screen: shown polls only, without tallies
type BallotView struct {
	ElectionID string       `json:"election_id"`
	Name       string       `json:"name"`
	Polls      []BallotPoll `json:"polls"`
}

type BallotPoll struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Candidates []BallotCandidate `json:"candidates"`
}

type BallotCandidate struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id"`
	Name     string `json:"name"`
}

// Domain types

// Resource is implemented by every entity the store can address by id
type Resource interface {
	ResourceID() string
	ResourceKind() ResourceKind
}

type Election struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Source     string    `json:"source,omitempty"` // file name the bundle was uploaded as
	ImportedAt time.Time `json:"imported_at"`
	Polls      []Poll    `json:"polls"`
}

type Poll struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Show       bool        `json:"show"`
	Candidates []Candidate `json:"candidates"`
}

type Candidate struct {
	ID        string `json:"id"`
	ParentID  string `json:"parent_id"` // owning poll; lookup only
	Name      string `json:"name"`
	VoteCount int64  `json:"vote_count"`
}

func (p Poll) ResourceID() string              { return p.ID }
func (p Poll) ResourceKind() ResourceKind      { return KindPoll }
func (c Candidate) ResourceID() string         { return c.ID }
func (c Candidate) ResourceKind() ResourceKind { return KindCandidate }

// CandidateCount returns the number of candidates across all polls
func (e *Election) CandidateCount() int {
	n := 0
	for _, p := range e.Polls {
		n += len(p.Candidates)
	}
	return n
}

// Ballot returns what a voter sees: the polls with Show set, with vote
// counts left out
func (e *Election) Ballot() BallotView {
	v := BallotView{ElectionID: e.ID, Name: e.Name, Polls: []BallotPoll{}}
	for _, p := range e.Polls {
		if !p.Show {
			continue
		}
		bp := BallotPoll{ID: p.ID, Name: p.Name, Candidates: make([]BallotCandidate, 0, len(p.Candidates))}
		for _, c := range p.Candidates {
			bp.Candidates = append(bp.Candidates, BallotCandidate{ID: c.ID, ParentID: c.ParentID, Name: c.Name})
		}
		v.Polls = append(v.Polls, bp)
	}
	return v
}

// Patch types. Nil fields are left untouched.

// ResourcePatch is a partial update; its concrete type selects the entity kind
type ResourcePatch interface {
	ResourceKind() ResourceKind
}

type PollPatch struct {
	Name *string
	Show *bool
}

// CandidatePatch has no vote count; only ballots change it
type CandidatePatch struct {
	Name *string
}

func (PollPatch) ResourceKind() ResourceKind      { return KindPoll }
func (CandidatePatch) ResourceKind() ResourceKind { return KindCandidate }

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}
