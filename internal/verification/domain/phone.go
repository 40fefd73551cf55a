package domain

import "strings"

// NormalizePhoneNumber strips every non-digit from s and prefixes a single '+'.
// No length or country-code validation is done.
func NormalizePhoneNumber(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 1)
	b.WriteByte('+')
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// HasDigits reports whether the normalized form of s carries at least one digit.
func HasDigits(s string) bool {
	return len(NormalizePhoneNumber(s)) > 1
}

// IsProfilePhoneNumber reports whether a value read from an identity profile can be used as a
// phone number. Empty, blank and the literal "null" (any case) are treated as absent.
func IsProfilePhoneNumber(v string) bool {
	t := strings.TrimSpace(v)
	if t == "" {
		return false
	}
	return !strings.EqualFold(t, "null")
}
