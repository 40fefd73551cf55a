package repository

import (
	"context"

	"phone-verification/internal/user/domain"
)

// Repository defines persistence for users and their profile attributes.
type Repository interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// SetAttribute creates or replaces one profile attribute of the user.
	SetAttribute(ctx context.Context, userID, name, value string) error
	// GetAttribute returns the value of attribute for the user named username. found is false
	// when the user or the attribute does not exist.
	GetAttribute(ctx context.Context, username, attribute string) (value string, found bool, err error)
}
