package repository

import (
	"context"
	"time"

	"phone-verification/internal/mfa/domain"
	"phone-verification/internal/platform/expiring"
)

// MemoryRepository keeps challenges in process memory until they expire. Used when no database
// is configured.
type MemoryRepository struct {
	m    *expiring.Map[domain.Challenge]
	nowF func() time.Time
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	r := &MemoryRepository{nowF: func() time.Time { return time.Now().UTC() }}
	r.m = expiring.New[domain.Challenge](func() time.Time { return r.nowF() })
	return r
}

func (r *MemoryRepository) Create(ctx context.Context, c *domain.Challenge) error {
	r.m.Set(c.ID, *c, c.ExpiresAt)
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Challenge, error) {
	c, ok := r.m.Get(id)
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *MemoryRepository) Take(ctx context.Context, id string) (*domain.Challenge, error) {
	c, ok := r.m.Take(id)
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.m.Delete(id)
	return nil
}

// Len returns the number of retained challenges.
func (r *MemoryRepository) Len() int {
	return r.m.Len()
}
