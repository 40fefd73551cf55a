package sinch

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"phone-verification/internal/verification/domain"
)

// Error codes the API uses for rejected request fields.
const (
	codeInvalidParameter = 40001
	codeInvalidIdentity  = 40003
)

// APIError is a non-2xx response from the Verification API.
type APIError struct {
	StatusCode int
	Code       int    `json:"errorCode"`
	Message    string `json:"message"`
	Reference  string `json:"reference"`
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status}
	if err := json.Unmarshal(body, e); err != nil || e.Message == "" {
		e.Message = strings.TrimSpace(string(body))
	}
	return e
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error status=%d code=%d message=%q", e.StatusCode, e.Code, e.Message)
}

// MightBePhoneFormattingError reports whether the failure was likely caused by the phone number.
// A parameter validation failure counts only when it names the identity or its endpoint.
func (e *APIError) MightBePhoneFormattingError() bool {
	if e.StatusCode != http.StatusBadRequest {
		return false
	}
	switch e.Code {
	case codeInvalidIdentity:
		return true
	case codeInvalidParameter:
		return e.referencesIdentity()
	default:
		return false
	}
}

func (e *APIError) referencesIdentity() bool {
	text := strings.ToLower(e.Message + " " + e.Reference)
	return strings.Contains(text, "identity") || strings.Contains(text, "endpoint")
}

// Is lets callers match formatting failures with domain.ErrMalformedPhoneNumber.
func (e *APIError) Is(target error) bool {
	return target == domain.ErrMalformedPhoneNumber && e.MightBePhoneFormattingError()
}
