package flow

import (
	"context"

	"phone-verification/internal/verification/domain"
)

// VerificationClient is the boundary to the out-of-band verification backend.
// Initiate errors for which errors.Is(err, domain.ErrMalformedPhoneNumber) holds are treated as
// a user-correctable phone number; all other errors are terminal.
type VerificationClient interface {
	Initiate(ctx context.Context, creds domain.Credentials, method domain.Method, phoneNumber string) (verificationID string, err error)
	Verify(ctx context.Context, creds domain.Credentials, verificationID, code string, method domain.Method) (domain.Status, error)
}

// ProfileLookup reads an attribute from the identity store. found is false when the identity or
// attribute does not exist.
type ProfileLookup interface {
	GetAttribute(ctx context.Context, identityKey, attribute string) (value string, found bool, err error)
}

// MethodResolver may override the configured method for a given normalized phone number.
type MethodResolver interface {
	ResolveMethod(ctx context.Context, phoneNumber string, configured domain.Method) (domain.Method, error)
}
