package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, expired, or not ours.
	ErrInvalidToken = errors.New("invalid token")
)

// FlowClaims is the client-visible state of one verification flow. It carries only durable state;
// the signature makes it tamper-evident, not confidential.
type FlowClaims struct {
	jwt.RegisteredClaims
	Step  string            `json:"step"`
	State map[string]string `json:"state,omitempty"`
}

// FlowID returns the flow identifier (the token's jti).
func (c *FlowClaims) FlowID() string { return c.ID }

// StateSigner issues and validates flow state tokens using RS256 or ES256 (private/public key).
type StateSigner struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	issuer     string
	audience   string
	ttl        time.Duration
	nowF       func() time.Time
}

// NewStateSigner returns a StateSigner that signs with the given private key (RS256 or ES256).
// issuer and audience are set on claims and validated on parse. ttl bounds the whole flow.
func NewStateSigner(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, ttl time.Duration) *StateSigner {
	return &StateSigner{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		audience:   audience,
		ttl:        ttl,
		nowF:       func() time.Time { return time.Now().UTC() },
	}
}

// Issue signs the state of flowID at step. startedAt is the flow's start; the token expires
// ttl after it, so re-issuing on every step does not extend the flow.
func (s *StateSigner) Issue(flowID, step string, state map[string]string, startedAt time.Time) (string, time.Time, error) {
	if startedAt.IsZero() {
		startedAt = s.nowF()
	}
	expiresAt := startedAt.Add(s.ttl)
	claims := FlowClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        flowID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(startedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Step:  step,
		State: state,
	}
	token, err := s.sign(claims)
	return token, expiresAt, err
}

func (s *StateSigner) sign(claims jwt.Claims) (string, error) {
	var method jwt.SigningMethod
	switch s.privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return "", ErrInvalidToken
	}
	t := jwt.NewWithClaims(method, claims)
	return t.SignedString(s.privateKey)
}

// Parse validates tokenString (signature, exp, iss, aud) and returns its claims.
func (s *StateSigner) Parse(tokenString string) (*FlowClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &FlowClaims{}, func(token *jwt.Token) (interface{}, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
			return s.publicKey, nil
		}
		return nil, ErrInvalidToken
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.nowF),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*FlowClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
