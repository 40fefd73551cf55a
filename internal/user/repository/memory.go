package repository

import (
	"context"
	"fmt"
	"sync"

	"phone-verification/internal/user/domain"
)

// MemoryRepository keeps users and attributes in process memory. Used when no database is configured.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User       // by username
	attrs map[string]map[string]string // by user id
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users: make(map[string]domain.User),
		attrs: make(map[string]map[string]string),
	}
}

func (r *MemoryRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[username]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *MemoryRepository) Create(ctx context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Username]; ok {
		return fmt.Errorf("user %q already exists", u.Username)
	}
	r.users[u.Username] = *u
	return nil
}

func (r *MemoryRepository) SetAttribute(ctx context.Context, userID, name, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attrs[userID] == nil {
		r.attrs[userID] = make(map[string]string)
	}
	r.attrs[userID][name] = value
	return nil
}

func (r *MemoryRepository) GetAttribute(ctx context.Context, username, attribute string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[username]
	if !ok || u.Status != domain.UserStatusActive {
		return "", false, nil
	}
	v, ok := r.attrs[u.ID][attribute]
	return v, ok, nil
}
