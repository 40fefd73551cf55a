// Package mfa is a self-hosted verification backend: it issues numeric one-time codes, stores
// their hashes as challenges and delivers them by SMS. Meant for development and small deployments.
package mfa

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"phone-verification/internal/devotp"
	mfadomain "phone-verification/internal/mfa/domain"
	"phone-verification/internal/mfa/repository"
	"phone-verification/internal/verification/domain"
)

// E.164 bounds on the number of digits in a phone number.
const (
	minPhoneDigits = 8
	maxPhoneDigits = 15
)

// OTPSender delivers a one-time code to a phone number.
type OTPSender interface {
	SendOTP(ctx context.Context, phone, otp string) error
}

// CodeHasher hashes codes for storage and compares submitted codes against stored hashes.
type CodeHasher interface {
	Hash(code []byte) (string, error)
	Compare(hash string, code []byte) error
}

// errMalformed is returned for numbers outside E.164 length bounds.
var errMalformed = fmt.Errorf("mfa: %w", domain.ErrMalformedPhoneNumber)

// Backend implements flow.VerificationClient with locally issued codes. Credentials are not used.
type Backend struct {
	challenges repository.Repository
	hasher     CodeHasher
	sender     OTPSender
	devOTP     devotp.Store
	ttl        time.Duration
	nowF       func() time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithDevOTPStore exposes issued codes through store for development retrieval.
func WithDevOTPStore(store devotp.Store) Option {
	return func(b *Backend) { b.devOTP = store }
}

// WithTTL sets the challenge lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(b *Backend) {
		if ttl > 0 {
			b.ttl = ttl
		}
	}
}

// NewBackend returns a Backend. sender may be nil, in which case codes are only reachable through
// the dev OTP store.
func NewBackend(challenges repository.Repository, hasher CodeHasher, sender OTPSender, opts ...Option) *Backend {
	b := &Backend{
		challenges: challenges,
		hasher:     hasher,
		sender:     sender,
		ttl:        repository.DefaultChallengeTTL,
		nowF:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Initiate issues a code for phoneNumber and delivers it by SMS.
func (b *Backend) Initiate(ctx context.Context, _ domain.Credentials, method domain.Method, phoneNumber string) (string, error) {
	if method != domain.MethodSMS {
		return "", fmt.Errorf("mfa: %w: %q", domain.ErrMethodUnsupported, method)
	}
	if n := countDigits(phoneNumber); n < minPhoneDigits || n > maxPhoneDigits {
		return "", errMalformed
	}
	otp, err := GenerateOTP()
	if err != nil {
		return "", fmt.Errorf("mfa: generate code: %w", err)
	}
	hash, err := b.hasher.Hash([]byte(otp))
	if err != nil {
		return "", fmt.Errorf("mfa: hash code: %w", err)
	}
	now := b.nowF()
	c := &mfadomain.Challenge{
		ID:        uuid.New().String(),
		Phone:     phoneNumber,
		Method:    method.String(),
		CodeHash:  hash,
		ExpiresAt: now.Add(b.ttl),
		CreatedAt: now,
	}
	if err := b.challenges.Create(ctx, c); err != nil {
		return "", fmt.Errorf("mfa: store challenge: %w", err)
	}
	if b.sender != nil {
		if err := b.sender.SendOTP(ctx, phoneNumber, otp); err != nil {
			if delErr := b.challenges.Delete(ctx, c.ID); delErr != nil {
				log.Printf("mfa: delete undelivered challenge %s: %v", c.ID, delErr)
			}
			return "", fmt.Errorf("mfa: deliver code: %w", err)
		}
	}
	if b.devOTP != nil {
		b.devOTP.Put(ctx, c.ID, otp, c.ExpiresAt)
	}
	return c.ID, nil
}

// Verify checks code against the challenge. Every check consumes the challenge, so a wrong code
// ends it like a right one; unknown, expired and mismatched challenges report StatusOther.
func (b *Backend) Verify(ctx context.Context, _ domain.Credentials, verificationID, code string, method domain.Method) (domain.Status, error) {
	c, err := b.challenges.Take(ctx, verificationID)
	if err != nil {
		return "", fmt.Errorf("mfa: take challenge: %w", err)
	}
	if b.devOTP != nil {
		b.devOTP.Delete(ctx, verificationID)
	}
	if c == nil || c.Expired(b.nowF()) {
		return domain.StatusOther, nil
	}
	if c.Method != method.String() {
		return domain.StatusOther, nil
	}
	if err := b.hasher.Compare(c.CodeHash, []byte(code)); err != nil {
		return domain.StatusOther, nil
	}
	return domain.StatusSuccessful, nil
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
