// Package sinch implements flow.VerificationClient against the Sinch Verification REST API.
package sinch

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"phone-verification/internal/verification/domain"
)

const (
	defaultBaseURL  = "https://verification.api.sinch.com"
	defaultPlatform = "go"
	defaultTimeout  = 15 * time.Second

	verificationsPath = "/verification/v1/verifications"
)

var tracer = otel.Tracer("phone-verification/verification/sinch")

// Client talks to the Sinch Verification API. The zero value is not usable; use NewClient.
type Client struct {
	BaseURL    string
	Platform   string
	HTTPClient *http.Client
}

// NewClient returns a client for baseURL (empty means the public Sinch endpoint). platform is
// sent as initiation metadata; empty means "go".
func NewClient(baseURL, platform string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if platform == "" {
		platform = defaultPlatform
	}
	return &Client{
		BaseURL:    baseURL,
		Platform:   platform,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

type identity struct {
	Type     string `json:"type"`
	Endpoint string `json:"endpoint"`
}

type initiateRequest struct {
	Identity identity          `json:"identity"`
	Method   string            `json:"method"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type initiateResponse struct {
	ID     string `json:"id"`
	Method string `json:"method"`
}

type codeBody struct {
	Code string `json:"code,omitempty"`
	CLI  string `json:"cli,omitempty"`
}

type verifyRequest struct {
	Method    string    `json:"method"`
	SMS       *codeBody `json:"sms,omitempty"`
	FlashCall *codeBody `json:"flashCall,omitempty"`
	Callout   *codeBody `json:"callout,omitempty"`
}

type verifyResponse struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// Initiate starts a verification for phoneNumber (E.164-ish) and returns its id.
func (c *Client) Initiate(ctx context.Context, creds domain.Credentials, method domain.Method, phoneNumber string) (string, error) {
	ctx, span := tracer.Start(ctx, "sinch.Initiate")
	defer span.End()
	span.SetAttributes(attribute.String("verification.method", method.String()))

	wireMethod, err := methodName(method)
	if err != nil {
		return "", err
	}
	body := initiateRequest{
		Identity: identity{Type: "number", Endpoint: phoneNumber},
		Method:   wireMethod,
		Metadata: map[string]string{"platform": c.Platform},
	}
	var out initiateResponse
	if err := c.do(ctx, http.MethodPost, verificationsPath, creds, body, &out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "initiate failed")
		return "", fmt.Errorf("sinch: initiate: %w", err)
	}
	return out.ID, nil
}

// Verify reports the status of verificationID after submitting code.
func (c *Client) Verify(ctx context.Context, creds domain.Credentials, verificationID, code string, method domain.Method) (domain.Status, error) {
	ctx, span := tracer.Start(ctx, "sinch.Verify")
	defer span.End()
	span.SetAttributes(attribute.String("verification.method", method.String()))

	wireMethod, err := methodName(method)
	if err != nil {
		return "", err
	}
	body := verifyRequest{Method: wireMethod}
	switch method {
	case domain.MethodSMS:
		body.SMS = &codeBody{Code: code}
	case domain.MethodFlashCall:
		body.FlashCall = &codeBody{CLI: code}
	case domain.MethodCallout:
		body.Callout = &codeBody{Code: code}
	}
	var out verifyResponse
	path := verificationsPath + "/id/" + url.PathEscape(verificationID)
	if err := c.do(ctx, http.MethodPut, path, creds, body, &out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "verify failed")
		return "", fmt.Errorf("sinch: verify: %w", err)
	}
	span.SetAttributes(attribute.String("verification.status", out.Status))
	if out.Status == string(domain.StatusSuccessful) {
		return domain.StatusSuccessful, nil
	}
	return domain.StatusOther, nil
}

func methodName(m domain.Method) (string, error) {
	switch m {
	case domain.MethodSMS:
		return "sms", nil
	case domain.MethodFlashCall:
		return "flashCall", nil
	case domain.MethodCallout:
		return "callout", nil
	}
	return "", fmt.Errorf("sinch: %w: %q", domain.ErrMethodUnsupported, m)
}

// authorization returns the Authorization header value for creds.
func authorization(creds domain.Credentials) (string, error) {
	if hash, ok := creds.AppHash(); ok {
		return "Application " + hash, nil
	}
	key, ok := creds.AppKey()
	if !ok {
		return "", fmt.Errorf("sinch: %w", domain.ErrNoCredentials)
	}
	secret, _ := creds.AppSecret()
	raw := append([]byte(key+":"), secret...)
	return "Basic " + base64.StdEncoding.EncodeToString(raw), nil
}

func (c *Client) do(ctx context.Context, method, path string, creds domain.Credentials, in, out any) error {
	auth, err := authorization(creds)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", auth)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, b)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
