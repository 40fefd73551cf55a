package mfa

import (
	"context"
	"errors"
	"testing"
	"time"

	"phone-verification/internal/devotp"
	"phone-verification/internal/mfa/repository"
	"phone-verification/internal/security"
	"phone-verification/internal/verification/domain"
)

type recordingSender struct {
	phone string
	otp   string
	err   error
}

func (s *recordingSender) SendOTP(ctx context.Context, phone, otp string) error {
	s.phone, s.otp = phone, otp
	return s.err
}

func newTestBackend(sender OTPSender, opts ...Option) (*Backend, *repository.MemoryRepository) {
	repo := repository.NewMemoryRepository()
	return NewBackend(repo, security.NewHasher(4), sender, opts...), repo
}

func TestBackend_InitiateAndVerify(t *testing.T) {
	ctx := context.Background()
	sender := &recordingSender{}
	b, repo := newTestBackend(sender)

	id, err := b.Initiate(ctx, domain.Credentials{}, domain.MethodSMS, "+48123456789")
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if id == "" {
		t.Fatal("empty verification id")
	}
	if sender.phone != "+48123456789" || len(sender.otp) != otpDigits {
		t.Errorf("sent (%q, %q)", sender.phone, sender.otp)
	}
	c, _ := repo.GetByID(ctx, id)
	if c == nil {
		t.Fatal("challenge not stored")
	}
	if c.CodeHash == sender.otp {
		t.Error("code stored in plain text")
	}

	status, err := b.Verify(ctx, domain.Credentials{}, id, sender.otp, domain.MethodSMS)
	if err != nil || status != domain.StatusSuccessful {
		t.Fatalf("right code: status = %q, err = %v; want SUCCESSFUL", status, err)
	}
	status, _ = b.Verify(ctx, domain.Credentials{}, id, sender.otp, domain.MethodSMS)
	if status != domain.StatusOther {
		t.Error("challenge should be consumed after a successful check")
	}
}

func TestBackend_WrongCodeConsumesChallenge(t *testing.T) {
	ctx := context.Background()
	sender := &recordingSender{}
	b, repo := newTestBackend(sender)

	id, err := b.Initiate(ctx, domain.Credentials{}, domain.MethodSMS, "+48123456789")
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	status, err := b.Verify(ctx, domain.Credentials{}, id, "not-it", domain.MethodSMS)
	if err != nil || status != domain.StatusOther {
		t.Fatalf("wrong code: status = %q, err = %v; want OTHER", status, err)
	}
	if c, _ := repo.GetByID(ctx, id); c != nil {
		t.Error("challenge should be gone after a wrong code")
	}
	if status, _ := b.Verify(ctx, domain.Credentials{}, id, sender.otp, domain.MethodSMS); status != domain.StatusOther {
		t.Errorf("right code after a wrong one: status = %q, want OTHER", status)
	}
}

func TestBackend_MalformedNumbers(t *testing.T) {
	b, _ := newTestBackend(&recordingSender{})
	for _, phone := range []string{"+", "+1234567", "+1234567890123456"} {
		_, err := b.Initiate(context.Background(), domain.Credentials{}, domain.MethodSMS, phone)
		if !errors.Is(err, domain.ErrMalformedPhoneNumber) {
			t.Errorf("Initiate(%q) err = %v, want ErrMalformedPhoneNumber", phone, err)
		}
	}
}

func TestBackend_OnlySMS(t *testing.T) {
	b, _ := newTestBackend(&recordingSender{})
	for _, m := range []domain.Method{domain.MethodFlashCall, domain.MethodCallout} {
		_, err := b.Initiate(context.Background(), domain.Credentials{}, m, "+48123456789")
		if !errors.Is(err, domain.ErrMethodUnsupported) {
			t.Errorf("Initiate(%s) err = %v, want ErrMethodUnsupported", m, err)
		}
	}
}

func TestBackend_DeliveryFailureRemovesChallenge(t *testing.T) {
	sender := &recordingSender{err: errors.New("gateway down")}
	store := devotp.NewMemoryStore()
	b, _ := newTestBackend(sender, WithDevOTPStore(store))

	_, err := b.Initiate(context.Background(), domain.Credentials{}, domain.MethodSMS, "+48123456789")
	if err == nil {
		t.Fatal("expected delivery error")
	}
	if errors.Is(err, domain.ErrMalformedPhoneNumber) {
		t.Error("delivery failure must not be classified as malformed number")
	}
}

func TestBackend_DevOTPStoreAndExpiry(t *testing.T) {
	ctx := context.Background()
	store := devotp.NewMemoryStore()
	b, _ := newTestBackend(nil, WithDevOTPStore(store), WithTTL(time.Minute))
	now := time.Now().UTC()
	b.nowF = func() time.Time { return now }

	id, err := b.Initiate(ctx, domain.Credentials{}, domain.MethodSMS, "+48123456789")
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	otp, ok := store.Get(ctx, id)
	if !ok {
		t.Fatal("code not published to dev store")
	}

	now = now.Add(2 * time.Minute)
	status, err := b.Verify(ctx, domain.Credentials{}, id, otp, domain.MethodSMS)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if status != domain.StatusOther {
		t.Errorf("expired challenge status = %q, want OTHER", status)
	}
	if _, ok := store.Get(ctx, id); ok {
		t.Error("dev code should be withdrawn once its challenge is checked")
	}
}

func TestBackend_UnknownChallenge(t *testing.T) {
	b, _ := newTestBackend(nil)
	status, err := b.Verify(context.Background(), domain.Credentials{}, "missing", "123456", domain.MethodSMS)
	if err != nil || status != domain.StatusOther {
		t.Errorf("status = %q, err = %v; want OTHER, nil", status, err)
	}
}
