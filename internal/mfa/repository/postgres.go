package repository

import (
	"context"
	"database/sql"
	"errors"

	"phone-verification/internal/mfa/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a challenge repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the challenge. The challenge must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Challenge) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO verification_challenges (id, phone, method, code_hash, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Phone, c.Method, c.CodeHash, c.ExpiresAt, c.CreatedAt)
	return err
}

// GetByID returns the challenge for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Challenge, error) {
	var c domain.Challenge
	err := r.db.QueryRowContext(ctx,
		`SELECT id, phone, method, code_hash, expires_at, created_at
		 FROM verification_challenges WHERE id = $1`, id).
		Scan(&c.ID, &c.Phone, &c.Method, &c.CodeHash, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Take deletes the challenge and returns it, or nil if not found.
func (r *PostgresRepository) Take(ctx context.Context, id string) (*domain.Challenge, error) {
	var c domain.Challenge
	err := r.db.QueryRowContext(ctx,
		`DELETE FROM verification_challenges WHERE id = $1
		 RETURNING id, phone, method, code_hash, expires_at, created_at`, id).
		Scan(&c.ID, &c.Phone, &c.Method, &c.CodeHash, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Delete removes the challenge by id.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM verification_challenges WHERE id = $1`, id)
	return err
}
