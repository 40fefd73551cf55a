package domain

import (
	"fmt"
	"strings"
)

// Method selects how the verification backend delivers the challenge.
type Method string

const (
	MethodSMS       Method = "SMS"
	MethodFlashCall Method = "FLASHCALL"
	MethodCallout   Method = "CALLOUT"
)

// DefaultMethod is used when no method is configured.
const DefaultMethod = MethodSMS

// ParseMethod parses s case-insensitively. Empty input yields DefaultMethod.
func ParseMethod(s string) (Method, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return DefaultMethod, nil
	}
	m := Method(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown verification method %q", s)
	}
	return m, nil
}

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	switch m {
	case MethodSMS, MethodFlashCall, MethodCallout:
		return true
	}
	return false
}

func (m Method) String() string { return string(m) }
