// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// OrganizerName is the single account the app knows about
const OrganizerName = "organizer"

var (
	ErrNoUser            = errors.New("no password registered")
	ErrAlreadyRegistered = errors.New("password already registered")
)

// UserRepo stores the organizer's password hash.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// PasswordHash returns the stored hash, or ErrNoUser
func (r *UserRepo) PasswordHash(ctx context.Context) (string, error) {
	var hash string
	err := r.db.QueryRowContext(ctx, `
		SELECT password_hash FROM app_user WHERE name = $1
	`, OrganizerName).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", ErrNoUser
	}
	if err != nil {
		return "", fmt.Errorf("failed to query user: %w", err)
	}
	return hash, nil
}

// Registered reports whether a password has been set
func (r *UserRepo) Registered(ctx context.Context) (bool, error) {
	_, err := r.PasswordHash(ctx)
	if errors.Is(err, ErrNoUser) {
		return false, nil
	}
	return err == nil, err
}

// Register stores the password hash. It can only be done once.
func (r *UserRepo) Register(ctx context.Context, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO app_user (name, password_hash, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO NOTHING
	`, OrganizerName, passwordHash, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrAlreadyRegistered
	}
	return nil
}
