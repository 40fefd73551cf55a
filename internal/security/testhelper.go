package security

import "time"

// NewTestStateSigner returns a StateSigner over a fresh ES256 key with issuer "test-issuer",
// audience "test-audience" and a 10 minute TTL. For unit tests only.
func NewTestStateSigner() (*StateSigner, error) {
	key, err := GenerateEphemeralKey()
	if err != nil {
		return nil, err
	}
	return NewStateSigner(key, key.Public(), "test-issuer", "test-audience", 10*time.Minute), nil
}
