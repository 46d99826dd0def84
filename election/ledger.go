// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"errors"
	"fmt"
)

// Observer is notified of every ballot outcome
type Observer interface {
	BallotAccepted(selections int)
	BallotRejected(reason string)
}

// Rejection reasons passed to Observer.BallotRejected
const (
	ReasonNotFound  = "not_found"
	ReasonDuplicate = "duplicate_poll"
	ReasonStorage   = "storage"
)

// Ledger applies ballots to the store's tallies
type Ledger struct {
	store    *Store
	observer Observer
}

func NewLedger(store *Store, observer Observer) *Ledger {
	return &Ledger{store: store, observer: observer}
}

// CastBallot counts one vote for each candidate id. The ballot is rejected
// with ErrVote when two ids belong to the same poll, and with ErrNotFound
// when an id does not resolve. Either all increments are applied or none.
func (l *Ledger) CastBallot(ctx context.Context, candidateIDs []string) error {
	err := l.castBallot(ctx, candidateIDs)
	if l.observer != nil {
		switch {
		case err == nil:
			l.observer.BallotAccepted(len(candidateIDs))
		case errors.Is(err, ErrVote):
			l.observer.BallotRejected(ReasonDuplicate)
		case errors.Is(err, ErrNotFound):
			l.observer.BallotRejected(ReasonNotFound)
		default:
			l.observer.BallotRejected(ReasonStorage)
		}
	}
	return err
}

func (l *Ledger) castBallot(ctx context.Context, candidateIDs []string) error {
	s := l.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, err := s.current()
	if err != nil {
		return err
	}

	selected := make([]*candidateEntry, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		ce, ok := d.candIdx[id]
		if !ok {
			return ErrNotFound.WithDetails("candidate %s", id)
		}
		selected = append(selected, ce)
	}

	// parent links are immutable within a document, so this check holds
	// until the increments below commit
	byPoll := make(map[string]string, len(selected))
	for _, ce := range selected {
		if other, dup := byPoll[ce.parentID]; dup {
			return ErrVote.WithDetails("candidates %s and %s both belong to poll %s", other, ce.id, ce.parentID)
		}
		byPoll[ce.parentID] = ce.id
	}

	if len(selected) == 0 {
		return nil
	}

	unlock := s.locks.lock(candidateIDs...)
	defer unlock()

	if err := s.repo.IncrementVotes(ctx, candidateIDs); err != nil {
		return fmt.Errorf("failed to record ballot: %w", err)
	}
	for _, ce := range selected {
		ce.votes++
	}

	s.logger.Debug("ballot recorded", "election_id", d.id, "selections", len(selected))
	return nil
}
