package domain

import "errors"

var (
	// ErrMalformedPhoneNumber classifies a backend rejection caused by the phone number's format.
	// Adapters return errors for which errors.Is(err, ErrMalformedPhoneNumber) holds; the flow
	// re-prompts for the number instead of failing.
	ErrMalformedPhoneNumber = errors.New("phone number is likely malformed")
	// ErrMethodUnsupported is returned by backends that cannot deliver the requested method.
	ErrMethodUnsupported = errors.New("verification method not supported by backend")
	// ErrCredentialsShape is returned when a backend is given credentials of the wrong shape.
	ErrCredentialsShape = errors.New("credentials shape not supported by backend")
	// ErrNoCredentials is returned when credentials are missing.
	ErrNoCredentials = errors.New("verification credentials not configured")
)
