package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"phone-verification/internal/user/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByUsername returns the user, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, status, created_at, updated_at FROM users WHERE username = $1`, username).
		Scan(&u.ID, &u.Username, &status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Status = domain.UserStatus(status)
	return &u, nil
}

// Create persists the user to the database. The user must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Username, string(u.Status), u.CreatedAt, u.UpdatedAt)
	return err
}

// SetAttribute upserts one attribute.
func (r *PostgresRepository) SetAttribute(ctx context.Context, userID, name, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_attributes (user_id, name, value, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, name) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		userID, name, value, time.Now().UTC())
	return err
}

// GetAttribute reads one attribute of an active user. A NULL value reads as not found.
func (r *PostgresRepository) GetAttribute(ctx context.Context, username, attribute string) (string, bool, error) {
	var value sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT a.value FROM user_attributes a
		 JOIN users u ON u.id = a.user_id
		 WHERE u.username = $1 AND a.name = $2 AND u.status = 'active'`, username, attribute).
		Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	if !value.Valid {
		return "", false, nil
	}
	return value.String, true, nil
}
