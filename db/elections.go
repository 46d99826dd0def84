// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/booth/models"
)

// ErrRowMissing is returned when an update addresses a row that does not exist
var ErrRowMissing = errors.New("row not found")

// ElectionRepo stores the active election document in SQL tables.
type ElectionRepo struct {
	db *sql.DB
}

func NewElectionRepo(db *sql.DB) *ElectionRepo {
	return &ElectionRepo{db: db}
}

// LoadElection reads the stored election, or returns nil when none was imported
func (r *ElectionRepo) LoadElection(ctx context.Context) (*models.Election, error) {
	var (
		e          models.Election
		importedAt int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, source, imported_at FROM election LIMIT 1
	`).Scan(&e.ID, &e.Name, &e.Source, &importedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query election: %w", err)
	}
	e.ImportedAt = time.Unix(importedAt, 0).UTC()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, show FROM poll
		WHERE election_id = $1
		ORDER BY position
	`, e.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query polls: %w", err)
	}
	pollIdx := make(map[string]int)
	for rows.Next() {
		var p models.Poll
		if err := rows.Scan(&p.ID, &p.Name, &p.Show); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		pollIdx[p.ID] = len(e.Polls)
		e.Polls = append(e.Polls, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read polls: %w", err)
	}

	rows, err = r.db.QueryContext(ctx, `
		SELECT c.id, c.poll_id, c.name, c.vote_count
		FROM candidate c
		JOIN poll p ON p.id = c.poll_id
		WHERE p.election_id = $1
		ORDER BY p.position, c.position
	`, e.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.ParentID, &c.Name, &c.VoteCount); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		i, ok := pollIdx[c.ParentID]
		if !ok {
			return nil, fmt.Errorf("candidate %s references unknown poll %s", c.ID, c.ParentID)
		}
		e.Polls[i].Candidates = append(e.Polls[i].Candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read candidates: %w", err)
	}

	return &e, nil
}

// ReplaceElection deletes the stored election and writes e in one transaction
func (r *ElectionRepo) ReplaceElection(ctx context.Context, e *models.Election) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM candidate`,
		`DELETE FROM poll`,
		`DELETE FROM election`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear election: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO election (id, name, source, imported_at)
		VALUES ($1, $2, $3, $4)
	`, e.ID, e.Name, e.Source, e.ImportedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert election: %w", err)
	}

	for i, p := range e.Polls {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO poll (id, election_id, position, name, show)
			VALUES ($1, $2, $3, $4, $5)
		`, p.ID, e.ID, i, p.Name, p.Show)
		if err != nil {
			return fmt.Errorf("failed to insert poll %s: %w", p.ID, err)
		}

		for j, c := range p.Candidates {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO candidate (id, poll_id, position, name, vote_count)
				VALUES ($1, $2, $3, $4, $5)
			`, c.ID, p.ID, j, c.Name, c.VoteCount)
			if err != nil {
				return fmt.Errorf("failed to insert candidate %s: %w", c.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit election: %w", err)
	}
	return nil
}

// UpdatePoll writes the poll's name and show flag
func (r *ElectionRepo) UpdatePoll(ctx context.Context, p models.Poll) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE poll SET name = $1, show = $2 WHERE id = $3
	`, p.Name, p.Show, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update poll: %w", err)
	}
	return expectOneRow(res, "poll", p.ID)
}

// UpdatePolls writes several polls in a single transaction. If any poll
// is missing nothing is applied.
func (r *ElectionRepo) UpdatePolls(ctx context.Context, polls []models.Poll) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range polls {
		res, err := tx.ExecContext(ctx, `
			UPDATE poll SET name = $1, show = $2 WHERE id = $3
		`, p.Name, p.Show, p.ID)
		if err != nil {
			return fmt.Errorf("failed to update poll: %w", err)
		}
		if err := expectOneRow(res, "poll", p.ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit polls: %w", err)
	}
	return nil
}

// UpdateCandidate writes the candidate's name. Vote counts are only
// changed by IncrementVotes.
func (r *ElectionRepo) UpdateCandidate(ctx context.Context, c models.Candidate) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE candidate SET name = $1 WHERE id = $2
	`, c.Name, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update candidate: %w", err)
	}
	return expectOneRow(res, "candidate", c.ID)
}

// IncrementVotes adds one vote to each candidate in a single transaction.
// If any candidate is missing nothing is applied.
func (r *ElectionRepo) IncrementVotes(ctx context.Context, candidateIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range candidateIDs {
		res, err := tx.ExecContext(ctx, `
			UPDATE candidate SET vote_count = vote_count + 1 WHERE id = $1
		`, id)
		if err != nil {
			return fmt.Errorf("failed to increment votes: %w", err)
		}
		if err := expectOneRow(res, "candidate", id); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit votes: %w", err)
	}
	return nil
}

func expectOneRow(res sql.Result, table, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("%s %s: %w", table, id, ErrRowMissing)
	}
	return nil
}
