package flow

import (
	"errors"

	"phone-verification/internal/verification/domain"
)

// Durable state keys.
const (
	KeyUsername           = "username"
	KeyVerificationID     = "verificationId"
	KeyUserPhone          = "userPhone"
	KeyVerificationMethod = "verificationMethod"
)

// Durable is carried state that is visible to every later step and may round-trip through the
// client-visible session payload. It only holds strings.
type Durable map[string]string

// Get returns the value for key and whether it is present and non-empty.
func (d Durable) Get(key string) (string, bool) {
	v, ok := d[key]
	return v, ok && v != ""
}

// Clone returns a copy of d. A nil map clones to an empty one.
func (d Durable) Clone() Durable {
	out := make(Durable, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Merge returns a copy of d with patch applied on top.
func (d Durable) Merge(patch Durable) Durable {
	out := d.Clone()
	for k, v := range patch {
		out[k] = v
	}
	return out
}

var errTransientNotSerializable = errors.New("transient state must not be serialized")

// Transient is carried state scoped to the current tree evaluation. It only holds backend
// credentials and refuses every encoding, so it cannot leak into the durable payload.
type Transient struct {
	credentials domain.Credentials
}

// NewTransient returns transient state carrying creds.
func NewTransient(creds domain.Credentials) *Transient {
	return &Transient{credentials: creds}
}

// Credentials returns the carried credentials, if any.
func (t *Transient) Credentials() (domain.Credentials, bool) {
	if t == nil || t.credentials.IsZero() {
		return domain.Credentials{}, false
	}
	return t.credentials, true
}

// MarshalJSON always fails.
func (t Transient) MarshalJSON() ([]byte, error) { return nil, errTransientNotSerializable }

// State is the carried state handed to a step.
type State struct {
	Durable   Durable
	Transient *Transient
}
