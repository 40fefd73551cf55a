package domain

import (
	"errors"
	"fmt"
)

// CredentialsKind tags the active shape of Credentials.
type CredentialsKind int

const (
	CredentialsNone CredentialsKind = iota
	CredentialsAppHash
	CredentialsAppKeySecret
)

func (k CredentialsKind) String() string {
	switch k {
	case CredentialsAppHash:
		return "app_hash"
	case CredentialsAppKeySecret:
		return "app_key_secret"
	default:
		return "none"
	}
}

const redacted = "[REDACTED]"

var errCredentialsNotSerializable = errors.New("credentials must not be serialized")

// Credentials authorizes calls to the verification backend. Exactly one shape is active:
// a single shared application hash, or an application key with its secret.
// The secret never appears in String, GoString or any encoding.
type Credentials struct {
	kind    CredentialsKind
	appHash string
	appKey  string
	secret  []byte
}

// AppHashCredentials returns hash-shaped credentials.
func AppHashCredentials(hash string) Credentials {
	if hash == "" {
		return Credentials{}
	}
	return Credentials{kind: CredentialsAppHash, appHash: hash}
}

// AppKeySecretCredentials returns key/secret-shaped credentials. secret is copied.
func AppKeySecretCredentials(key string, secret []byte) Credentials {
	if key == "" {
		return Credentials{}
	}
	s := make([]byte, len(secret))
	copy(s, secret)
	return Credentials{kind: CredentialsAppKeySecret, appKey: key, secret: s}
}

// Kind returns the active shape.
func (c Credentials) Kind() CredentialsKind { return c.kind }

// IsZero reports whether no credentials are set.
func (c Credentials) IsZero() bool { return c.kind == CredentialsNone }

// AppHash returns the hash when the hash shape is active.
func (c Credentials) AppHash() (string, bool) {
	if c.kind != CredentialsAppHash {
		return "", false
	}
	return c.appHash, true
}

// AppKey returns the key when the key/secret shape is active.
func (c Credentials) AppKey() (string, bool) {
	if c.kind != CredentialsAppKeySecret {
		return "", false
	}
	return c.appKey, true
}

// AppSecret returns a copy of the secret when the key/secret shape is active.
func (c Credentials) AppSecret() ([]byte, bool) {
	if c.kind != CredentialsAppKeySecret {
		return nil, false
	}
	s := make([]byte, len(c.secret))
	copy(s, c.secret)
	return s, true
}

func (c Credentials) String() string {
	switch c.kind {
	case CredentialsAppHash:
		return "Credentials{app_hash:" + redacted + "}"
	case CredentialsAppKeySecret:
		return "Credentials{app_key:" + c.appKey + " app_secret:" + redacted + "}"
	default:
		return "Credentials{}"
	}
}

func (c Credentials) GoString() string { return c.String() }

// Format keeps %v, %+v and %#v from printing the struct fields.
func (c Credentials) Format(f fmt.State, verb rune) {
	_, _ = f.Write([]byte(c.String()))
}

// MarshalJSON always fails so credentials cannot end up in a serialized payload.
func (c Credentials) MarshalJSON() ([]byte, error) { return nil, errCredentialsNotSerializable }

// MarshalText always fails so credentials cannot end up in a serialized payload.
func (c Credentials) MarshalText() ([]byte, error) { return nil, errCredentialsNotSerializable }
