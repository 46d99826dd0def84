// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"errors"
	"fmt"
)

// LockState says whether a session may configure the election or vote.
type LockState uint8

const (
	Unlocked LockState = iota // import and configuration reachable
	Locked                    // only the voting screen reachable
)

func (s LockState) String() string {
	switch s {
	case Unlocked:
		return "unlocked"
	case Locked:
		return "locked"
	}
	return fmt.Sprintf("LockState(%d)", uint8(s))
}

// Event drives the lock state machine
type Event uint8

const (
	EventReachHome   Event = iota // home/import screen served
	EventBeginVoting              // poll selection completed
	EventBallotCast               // ballot accepted
	EventLogout                   // organizer ended the voting session
)

func (e Event) String() string {
	switch e {
	case EventReachHome:
		return "reach_home"
	case EventBeginVoting:
		return "begin_voting"
	case EventBallotCast:
		return "ballot_cast"
	case EventLogout:
		return "logout"
	}
	return fmt.Sprintf("Event(%d)", uint8(e))
}

var ErrInvalidTransition = errors.New("invalid lock transition")

var transitions = map[LockState]map[Event]LockState{
	Unlocked: {
		EventReachHome:   Unlocked,
		EventBeginVoting: Locked,
		EventLogout:      Unlocked,
	},
	Locked: {
		EventBallotCast: Locked,
		EventLogout:     Unlocked,
	},
}

// Next returns the state after e. The state is unchanged on error.
func (s LockState) Next(e Event) (LockState, error) {
	if to, ok := transitions[s][e]; ok {
		return to, nil
	}
	return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, s)
}

// Screen identifies a group of routes guarded by the lock
type Screen uint8

const (
	ScreenHome Screen = iota
	ScreenImport
	ScreenConfigure
	ScreenResults
	ScreenLogin
	ScreenLogout
	ScreenVote
)

const (
	VotePath       = "/vote"
	SelectPollPath = "/selectPolls"
)

// Redirect returns where a session in state s must be sent instead of
// screen, or "" when the screen may be served.
func (s LockState) Redirect(screen Screen) string {
	switch screen {
	case ScreenLogout:
		return ""
	case ScreenVote:
		if s != Locked {
			return SelectPollPath
		}
		return ""
	default:
		if s == Locked {
			return VotePath
		}
		return ""
	}
}
