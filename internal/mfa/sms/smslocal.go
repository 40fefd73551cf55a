// Package sms delivers one-time codes for the self-hosted verification backend.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"phone-verification/internal/verification/domain"
)

const (
	defaultBaseURL = "https://www.smslocal.com/dev/bulkV2"
	defaultTimeout = 15 * time.Second
)

// ErrNotConfigured is returned by SendOTP when no API key is set.
var ErrNotConfigured = errors.New("sms: API key not configured")

var tracer = otel.Tracer("phone-verification/mfa/sms")

// DeliveryError is a non-200 response from the SMS gateway.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("sms: request failed status=%d body=%s", e.StatusCode, e.Body)
}

// Is matches domain.ErrMalformedPhoneNumber when the gateway rejected the number itself, so the
// caller can ask for another one.
func (e *DeliveryError) Is(target error) bool {
	if target != domain.ErrMalformedPhoneNumber {
		return false
	}
	if e.StatusCode != http.StatusBadRequest && e.StatusCode != http.StatusUnprocessableEntity {
		return false
	}
	return strings.Contains(strings.ToLower(e.Body), "number")
}

// SMSLocalClient delivers one-time codes through the SMS Local bulk API (route=otp).
// See https://www.smslocal.com/dev/bulkV2.
type SMSLocalClient struct {
	APIKey     string
	BaseURL    string
	Sender     string
	HTTPClient *http.Client
}

// NewSMSLocalClient returns a client for apiKey. Empty baseURL means the public endpoint; empty
// sender lets the gateway pick one.
func NewSMSLocalClient(apiKey, baseURL, sender string) *SMSLocalClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &SMSLocalClient{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		Sender:     sender,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

type otpRequest struct {
	Route     string `json:"route"`
	Numbers   string `json:"numbers"`
	Variables string `json:"variables"`
	SenderID  string `json:"sender_id,omitempty"`
}

// SendOTP sends otp to phone, a normalized "+<digits>" number. The gateway takes digits only.
// The code is never logged or recorded on the span.
func (c *SMSLocalClient) SendOTP(ctx context.Context, phone, otp string) (err error) {
	if c.APIKey == "" {
		return ErrNotConfigured
	}
	ctx, span := tracer.Start(ctx, "smslocal.SendOTP")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "delivery failed")
		}
		span.End()
	}()

	raw, err := json.Marshal(otpRequest{
		Route:     "otp",
		Numbers:   strings.TrimPrefix(phone, "+"),
		Variables: otp,
		SenderID:  c.Sender,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.APIKey)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms: send: %w", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &DeliveryError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return nil
}
