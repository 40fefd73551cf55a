package domain

import (
	"errors"
	"time"
)

// User is an identity whose profile attributes (e.g. telephoneNumber) the flow can read.
type User struct {
	ID        string
	Username  string
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Username == "" {
		return errors.New("username is required")
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}
