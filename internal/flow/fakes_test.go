package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"phone-verification/internal/verification/domain"
)

type initiateCall struct {
	creds  domain.Credentials
	method domain.Method
	phone  string
}

type verifyCall struct {
	creds  domain.Credentials
	id     string
	code   string
	method domain.Method
}

// fakeClient records calls and returns canned results.
type fakeClient struct {
	mu          sync.Mutex
	initiateID  string
	initiateErr error
	status      domain.Status
	verifyErr   error
	initiates   []initiateCall
	verifies    []verifyCall
}

func (c *fakeClient) Initiate(ctx context.Context, creds domain.Credentials, method domain.Method, phone string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initiates = append(c.initiates, initiateCall{creds: creds, method: method, phone: phone})
	if c.initiateErr != nil {
		return "", c.initiateErr
	}
	return c.initiateID, nil
}

func (c *fakeClient) Verify(ctx context.Context, creds domain.Credentials, id, code string, method domain.Method) (domain.Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verifies = append(c.verifies, verifyCall{creds: creds, id: id, code: code, method: method})
	if c.verifyErr != nil {
		return "", c.verifyErr
	}
	return c.status, nil
}

// malformedError mimics a backend error classified as a phone formatting problem.
type malformedError struct{}

func (malformedError) Error() string { return "backend: invalid identity endpoint" }

func (malformedError) Is(target error) bool { return target == domain.ErrMalformedPhoneNumber }

type fakeProfiles struct {
	values map[string]map[string]string
	err    error
	calls  int
}

func (p *fakeProfiles) GetAttribute(ctx context.Context, identityKey, attribute string) (string, bool, error) {
	p.calls++
	if p.err != nil {
		return "", false, p.err
	}
	attrs, ok := p.values[identityKey]
	if !ok {
		return "", false, nil
	}
	v, ok := attrs[attribute]
	return v, ok, nil
}

type fakeResolver struct {
	method domain.Method
	err    error
}

func (r fakeResolver) ResolveMethod(ctx context.Context, phone string, configured domain.Method) (domain.Method, error) {
	return r.method, r.err
}

var errBackendDown = errors.New("backend: connection refused")

func wrapped(err error) error { return fmt.Errorf("sinch: initiate: %w", err) }
