// Package twilio implements flow.VerificationClient on Twilio Verify v2.
package twilio

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	verify "github.com/twilio/twilio-go/rest/verify/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"phone-verification/internal/verification/domain"
)

const statusApproved = "approved"

// Twilio error codes that point at the phone number rather than the account or service.
var phoneFormattingCodes = map[int]bool{
	60200: true,
	60205: true,
	21211: true,
	21614: true,
}

var tracer = otel.Tracer("phone-verification/verification/twilio")

// verifyAPI is the part of the Verify v2 service used here.
type verifyAPI interface {
	CreateVerification(serviceSid string, params *verify.CreateVerificationParams) (*verify.VerifyV2Verification, error)
	CreateVerificationCheck(serviceSid string, params *verify.CreateVerificationCheckParams) (*verify.VerifyV2VerificationCheck, error)
}

// Client talks to one Twilio Verify service. Account SID and auth token come from the
// key/secret credentials of each call.
type Client struct {
	serviceSid string
	newAPI     func(accountSid, authToken string) verifyAPI
}

// NewClient returns a client for the Verify service serviceSid.
func NewClient(serviceSid string) *Client {
	return &Client{
		serviceSid: serviceSid,
		newAPI: func(accountSid, authToken string) verifyAPI {
			rc := twilio.NewRestClientWithParams(twilio.ClientParams{
				Username: accountSid,
				Password: authToken,
			})
			return rc.VerifyV2
		},
	}
}

// Initiate sends a code to phoneNumber and returns the verification SID.
func (c *Client) Initiate(ctx context.Context, creds domain.Credentials, method domain.Method, phoneNumber string) (string, error) {
	_, span := tracer.Start(ctx, "twilio.Initiate")
	defer span.End()
	span.SetAttributes(attribute.String("verification.method", method.String()))

	channel, err := channelName(method)
	if err != nil {
		return "", err
	}
	api, err := c.api(creds)
	if err != nil {
		return "", err
	}
	params := &verify.CreateVerificationParams{}
	params.SetTo(phoneNumber)
	params.SetChannel(channel)

	resp, err := api.CreateVerification(c.serviceSid, params)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("twilio: create verification: %w", classify(err))
	}
	if resp == nil || resp.Sid == nil {
		return "", errors.New("twilio: create verification: response has no sid")
	}
	return *resp.Sid, nil
}

// Verify checks code against the verification verificationID.
func (c *Client) Verify(ctx context.Context, creds domain.Credentials, verificationID, code string, method domain.Method) (domain.Status, error) {
	_, span := tracer.Start(ctx, "twilio.Verify")
	defer span.End()

	if _, err := channelName(method); err != nil {
		return "", err
	}
	api, err := c.api(creds)
	if err != nil {
		return "", err
	}
	params := &verify.CreateVerificationCheckParams{}
	params.SetVerificationSid(verificationID)
	params.SetCode(code)

	resp, err := api.CreateVerificationCheck(c.serviceSid, params)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("twilio: check verification: %w", err)
	}
	if resp != nil && resp.Status != nil && *resp.Status == statusApproved {
		return domain.StatusSuccessful, nil
	}
	return domain.StatusOther, nil
}

func (c *Client) api(creds domain.Credentials) (verifyAPI, error) {
	switch creds.Kind() {
	case domain.CredentialsAppKeySecret:
		key, _ := creds.AppKey()
		secret, _ := creds.AppSecret()
		return c.newAPI(key, string(secret)), nil
	case domain.CredentialsAppHash:
		return nil, fmt.Errorf("twilio: %w: account sid and auth token required", domain.ErrCredentialsShape)
	}
	return nil, fmt.Errorf("twilio: %w", domain.ErrNoCredentials)
}

func channelName(m domain.Method) (string, error) {
	switch m {
	case domain.MethodSMS:
		return "sms", nil
	case domain.MethodCallout:
		return "call", nil
	}
	return "", fmt.Errorf("twilio: %w: %q", domain.ErrMethodUnsupported, m)
}

// phoneFormattingError marks a Twilio error caused by the destination number.
type phoneFormattingError struct {
	err *twclient.TwilioRestError
}

func (e *phoneFormattingError) Error() string { return e.err.Error() }

func (e *phoneFormattingError) Unwrap() error { return e.err }

func (e *phoneFormattingError) Is(target error) bool {
	return target == domain.ErrMalformedPhoneNumber
}

func classify(err error) error {
	var restErr *twclient.TwilioRestError
	if errors.As(err, &restErr) && phoneFormattingCodes[restErr.Code] {
		return &phoneFormattingError{err: restErr}
	}
	return err
}
