package repository

import (
	"context"
	"time"

	"phone-verification/internal/mfa/domain"
)

// Repository defines persistence for verification challenges.
type Repository interface {
	Create(ctx context.Context, c *domain.Challenge) error
	GetByID(ctx context.Context, id string) (*domain.Challenge, error)
	// Take removes the challenge and returns it, or nil if not found. Concurrent callers never
	// both receive the same challenge.
	Take(ctx context.Context, id string) (*domain.Challenge, error)
	Delete(ctx context.Context, id string) error
}

// DefaultChallengeTTL is the default challenge expiry.
const DefaultChallengeTTL = 10 * time.Minute
