package domain

import "time"

// Challenge is a pending one-time code issued by the local backend (verification_challenges table).
type Challenge struct {
	ID        string
	Phone     string
	Method    string
	CodeHash  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the challenge is no longer valid at now.
func (c *Challenge) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}
