// Package devotp publishes the plain one-time codes of the local backend so a developer can finish
// a flow without a phone (DevService/GetOTP). Never enabled in production.
package devotp

import (
	"context"
	"time"

	"phone-verification/internal/platform/expiring"
)

// Store publishes codes by verification id.
type Store interface {
	// Put publishes otp for verificationID until expiresAt.
	Put(ctx context.Context, verificationID, otp string, expiresAt time.Time)
	// Get returns the published otp for verificationID while its challenge is open.
	Get(ctx context.Context, verificationID string) (otp string, ok bool)
	// Delete withdraws the code once its challenge has been checked.
	Delete(ctx context.Context, verificationID string)
}

// MemoryStore is an in-process Store. Codes nobody fetched are swept out after they expire.
type MemoryStore struct {
	codes *expiring.Map[string]
	nowF  func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{nowF: func() time.Time { return time.Now().UTC() }}
	s.codes = expiring.New[string](func() time.Time { return s.nowF() })
	return s
}

func (s *MemoryStore) Put(ctx context.Context, verificationID, otp string, expiresAt time.Time) {
	s.codes.Set(verificationID, otp, expiresAt)
}

func (s *MemoryStore) Get(ctx context.Context, verificationID string) (string, bool) {
	return s.codes.Get(verificationID)
}

func (s *MemoryStore) Delete(ctx context.Context, verificationID string) {
	s.codes.Delete(verificationID)
}

// Len returns the number of retained codes.
func (s *MemoryStore) Len() int {
	return s.codes.Len()
}
