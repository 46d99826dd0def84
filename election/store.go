// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/danielhkuo/booth/models"
)

// Repository persists the active election. Implementations must apply
// ReplaceElection and IncrementVotes atomically.
type Repository interface {
	// LoadElection returns nil, nil when nothing has been imported yet.
	LoadElection(ctx context.Context) (*models.Election, error)
	ReplaceElection(ctx context.Context, e *models.Election) error
	UpdatePoll(ctx context.Context, p models.Poll) error
	// UpdatePolls writes every poll in one transaction.
	UpdatePolls(ctx context.Context, polls []models.Poll) error
	UpdateCandidate(ctx context.Context, c models.Candidate) error
	IncrementVotes(ctx context.Context, candidateIDs []string) error
}

type pollEntry struct {
	id         string
	name       string
	show       bool
	candidates []*candidateEntry
}

type candidateEntry struct {
	id       string
	parentID string
	name     string
	votes    int64
}

// document is one imported election with its id indexes. Structure
// (ids, ordering, parent links) is fixed for the document's lifetime;
// entity fields are guarded by the store's stripes.
type document struct {
	id         string
	name       string
	source     string
	importedAt time.Time
	polls      []*pollEntry
	pollIdx    map[string]*pollEntry
	candIdx    map[string]*candidateEntry
}

func newDocument(e *models.Election) *document {
	d := &document{
		id:         e.ID,
		name:       e.Name,
		source:     e.Source,
		importedAt: e.ImportedAt,
		polls:      make([]*pollEntry, 0, len(e.Polls)),
		pollIdx:    make(map[string]*pollEntry, len(e.Polls)),
		candIdx:    make(map[string]*candidateEntry),
	}
	for _, p := range e.Polls {
		pe := &pollEntry{id: p.ID, name: p.Name, show: p.Show}
		for _, c := range p.Candidates {
			ce := &candidateEntry{id: c.ID, parentID: p.ID, name: c.Name, votes: c.VoteCount}
			pe.candidates = append(pe.candidates, ce)
			d.candIdx[c.ID] = ce
		}
		d.polls = append(d.polls, pe)
		d.pollIdx[p.ID] = pe
	}
	return d
}

// ids lists every poll and candidate id in the document
func (d *document) ids() []string {
	ids := make([]string, 0, len(d.pollIdx)+len(d.candIdx))
	for _, pe := range d.polls {
		ids = append(ids, pe.id)
		for _, ce := range pe.candidates {
			ids = append(ids, ce.id)
		}
	}
	return ids
}

// Store owns the single active election.
//
// Import holds mu exclusively. Every other operation holds mu shared and
// takes the stripe of each entity it reads or writes, so updates to
// different candidates proceed in parallel.
type Store struct {
	mu     sync.RWMutex
	doc    *document
	closed bool

	locks  stripedMutex
	repo   Repository
	logger *slog.Logger
}

// NewStore creates a store and recovers the persisted election, if any
func NewStore(ctx context.Context, repo Repository, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{repo: repo, logger: logger}

	e, err := repo.LoadElection(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load election: %w", err)
	}
	if e != nil {
		s.doc = newDocument(e)
		logger.Info("election recovered", "election_id", e.ID, "polls", len(e.Polls))
	}
	return s, nil
}

// Import loads the bundle at archivePath and makes it the active election
func (s *Store) Import(ctx context.Context, archivePath string) (*models.Election, error) {
	return s.ImportNamed(ctx, archivePath, filepath.Base(archivePath))
}

// ImportNamed is Import with the bundle's display name given explicitly,
// for uploads stored under a generated file name.
func (s *Store) ImportNamed(ctx context.Context, archivePath, source string) (*models.Election, error) {
	e, err := LoadBundle(archivePath)
	if err != nil {
		return nil, err
	}
	e.Source = source
	e.ImportedAt = time.Now().UTC().Truncate(time.Second)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	if err := s.repo.ReplaceElection(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to persist election: %w", err)
	}
	s.doc = newDocument(e)

	s.logger.Info("election imported",
		"election_id", e.ID,
		"source", source,
		"polls", len(e.Polls),
		"candidates", e.CandidateCount(),
	)
	return e, nil
}

// current returns the active document. Callers hold s.mu.
func (s *Store) current() (*document, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.doc == nil {
		return nil, ErrNotImported
	}
	return s.doc, nil
}

// Election returns a copy of the active election. All stripes the
// document touches are held together, so a ballot is either fully
// visible in the copy or not at all.
func (s *Store) Election() (*models.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, err := s.current()
	if err != nil {
		return nil, err
	}

	e := &models.Election{
		ID:         d.id,
		Name:       d.name,
		Source:     d.source,
		ImportedAt: d.importedAt,
		Polls:      make([]models.Poll, 0, len(d.polls)),
	}

	unlock := s.locks.lock(d.ids()...)
	defer unlock()
	for _, pe := range d.polls {
		e.Polls = append(e.Polls, snapshotPoll(pe))
	}
	return e, nil
}

// Imported reports whether an election is active
func (s *Store) Imported() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed && s.doc != nil
}

// Resource looks up a poll or candidate by id
func (s *Store) Resource(id string, kind models.ResourceKind) (models.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !kind.Valid() {
		return nil, ErrNotFound.WithDetails("unknown resource kind %q", kind)
	}
	d, err := s.current()
	if err != nil {
		return nil, err
	}

	switch kind {
	case models.KindPoll:
		if pe, ok := d.pollIdx[id]; ok {
			ids := []string{pe.id}
			for _, ce := range pe.candidates {
				ids = append(ids, ce.id)
			}
			unlock := s.locks.lock(ids...)
			defer unlock()
			return snapshotPoll(pe), nil
		}
	case models.KindCandidate:
		if ce, ok := d.candIdx[id]; ok {
			unlock := s.locks.lock(ce.id)
			defer unlock()
			return snapshotCandidate(ce), nil
		}
	}
	return nil, ErrNotFound.WithDetails("%s %s", kind, id)
}

// Poll returns the poll with the given id
func (s *Store) Poll(id string) (models.Poll, error) {
	r, err := s.Resource(id, models.KindPoll)
	if err != nil {
		return models.Poll{}, err
	}
	return r.(models.Poll), nil
}

// Candidate returns the candidate with the given id
func (s *Store) Candidate(id string) (models.Candidate, error) {
	r, err := s.Resource(id, models.KindCandidate)
	if err != nil {
		return models.Candidate{}, err
	}
	return r.(models.Candidate), nil
}

// UpdateResource merges the set fields of patch into the entity with the
// given id. The patch type decides whether id names a poll or a candidate.
func (s *Store) UpdateResource(ctx context.Context, id string, patch models.ResourcePatch) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, err := s.current()
	if err != nil {
		return err
	}

	switch p := patch.(type) {
	case models.PollPatch:
		pe, ok := d.pollIdx[id]
		if !ok {
			return ErrNotFound.WithDetails("poll %s", id)
		}
		unlock := s.locks.lock(id)
		defer unlock()

		name, show := pe.name, pe.show
		if p.Name != nil {
			name = *p.Name
		}
		if p.Show != nil {
			show = *p.Show
		}
		if err := s.repo.UpdatePoll(ctx, models.Poll{ID: id, Name: name, Show: show}); err != nil {
			return fmt.Errorf("failed to persist poll %s: %w", id, err)
		}
		pe.name, pe.show = name, show

	case models.CandidatePatch:
		ce, ok := d.candIdx[id]
		if !ok {
			return ErrNotFound.WithDetails("candidate %s", id)
		}
		unlock := s.locks.lock(id)
		defer unlock()

		name := ce.name
		if p.Name != nil {
			name = *p.Name
		}
		c := models.Candidate{ID: id, ParentID: ce.parentID, Name: name, VoteCount: ce.votes}
		if err := s.repo.UpdateCandidate(ctx, c); err != nil {
			return fmt.Errorf("failed to persist candidate %s: %w", id, err)
		}
		ce.name = name

	default:
		return fmt.Errorf("unsupported patch type %T", patch)
	}
	return nil
}

// ShowPolls makes exactly the given polls visible on the voting screen
// and hides the rest. Every id must name a poll; the flags are persisted
// in one transaction and applied only once it commits.
func (s *Store) ShowPolls(ctx context.Context, pollIDs []string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, err := s.current()
	if err != nil {
		return err
	}

	shown := make(map[string]bool, len(pollIDs))
	for _, id := range pollIDs {
		if _, ok := d.pollIdx[id]; !ok {
			return ErrNotFound.WithDetails("poll %s", id)
		}
		shown[id] = true
	}

	ids := make([]string, 0, len(d.polls))
	for _, pe := range d.polls {
		ids = append(ids, pe.id)
	}
	unlock := s.locks.lock(ids...)
	defer unlock()

	polls := make([]models.Poll, 0, len(d.polls))
	for _, pe := range d.polls {
		polls = append(polls, models.Poll{ID: pe.id, Name: pe.name, Show: shown[pe.id]})
	}
	if err := s.repo.UpdatePolls(ctx, polls); err != nil {
		return fmt.Errorf("failed to persist shown polls: %w", err)
	}
	for _, pe := range d.polls {
		pe.show = shown[pe.id]
	}

	s.logger.Info("polls shown", "election_id", d.id, "shown", len(shown))
	return nil
}

// Close tears the store down. The repository is owned by the caller.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.doc = nil
}

// snapshotPoll and snapshotCandidate copy entries. Callers hold the stripes.
func snapshotPoll(pe *pollEntry) models.Poll {
	p := models.Poll{ID: pe.id, Name: pe.name, Show: pe.show}
	p.Candidates = make([]models.Candidate, 0, len(pe.candidates))
	for _, ce := range pe.candidates {
		p.Candidates = append(p.Candidates, snapshotCandidate(ce))
	}
	return p
}

func snapshotCandidate(ce *candidateEntry) models.Candidate {
	return models.Candidate{ID: ce.id, ParentID: ce.parentID, Name: ce.name, VoteCount: ce.votes}
}
