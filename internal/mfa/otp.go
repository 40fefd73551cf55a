package mfa

import (
	"crypto/rand"
)

const otpDigits = 6

// GenerateOTP returns a 6-digit numeric OTP string (e.g. "123456").
// Uses crypto/rand for randomness.
func GenerateOTP() (string, error) {
	b := make([]byte, otpDigits)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := make([]byte, otpDigits)
	for i := 0; i < otpDigits; i++ {
		s[i] = '0' + (b[i] % 10)
	}
	return string(s), nil
}
