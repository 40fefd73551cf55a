package flow

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"phone-verification/internal/flow/messages"
	"phone-verification/internal/verification/domain"
)

// DefaultPhoneAttribute is the profile attribute read when none is configured.
const DefaultPhoneAttribute = "telephoneNumber"

// InitiationConfig is the static configuration of an InitiationStep.
type InitiationConfig struct {
	// Credentials authorize the Initiate call and are handed to later steps as transient state.
	Credentials domain.Credentials
	// Method is the configured verification method; empty means SMS.
	Method domain.Method
	// PhoneAttribute is the profile attribute holding the stored phone number.
	PhoneAttribute string
}

// InitiationStep obtains a phone number and starts a verification challenge.
type InitiationStep struct {
	cfg      InitiationConfig
	client   VerificationClient
	profiles ProfileLookup
	methods  MethodResolver
	catalog  *messages.Catalog
	inst     *instruments
}

// NewInitiationStep returns an InitiationStep. profiles, methods and catalog may be nil; without
// profiles the step always prompts, without methods the configured method is used as is.
func NewInitiationStep(cfg InitiationConfig, client VerificationClient, profiles ProfileLookup, methods MethodResolver, catalog *messages.Catalog) *InitiationStep {
	if cfg.Method == "" {
		cfg.Method = domain.DefaultMethod
	}
	if cfg.PhoneAttribute == "" {
		cfg.PhoneAttribute = DefaultPhoneAttribute
	}
	if catalog == nil {
		catalog = messages.Default()
	}
	return &InitiationStep{
		cfg:      cfg,
		client:   client,
		profiles: profiles,
		methods:  methods,
		catalog:  catalog,
		inst:     newInstruments(),
	}
}

// Process resolves the phone number in priority order (submitted value, stored profile value,
// interactive prompt) and initiates the verification once a number is available.
func (s *InitiationStep) Process(ctx context.Context, inv Invocation) (*Action, error) {
	ctx, span := tracer.Start(ctx, "flow.InitiationStep")
	defer span.End()

	if phone, ok := submittedValue(inv.Callbacks, CallbackName); ok {
		span.SetAttributes(attribute.String("phone.source", "callback"))
		if !domain.HasDigits(phone) {
			log.Printf("flow: submitted phone number has no digits, asking again")
			return s.phoneNumberPrompt(inv.Locale), nil
		}
		return s.initiate(ctx, inv, phone)
	}
	if phone, ok := s.profilePhoneNumber(ctx, inv.State.Durable); ok {
		span.SetAttributes(attribute.String("phone.source", "profile"))
		return s.initiate(ctx, inv, phone)
	}
	span.SetAttributes(attribute.String("phone.source", "prompt"))
	return s.phoneNumberPrompt(inv.Locale), nil
}

func (s *InitiationStep) initiate(ctx context.Context, inv Invocation, userPhone string) (*Action, error) {
	normalized := domain.NormalizePhoneNumber(userPhone)
	method := s.resolveMethod(ctx, normalized)

	verificationID, err := s.client.Initiate(ctx, s.cfg.Credentials, method, normalized)
	if err == nil && verificationID == "" {
		err = errors.New("backend returned an empty verification id")
	}
	if err != nil {
		if errors.Is(err, domain.ErrMalformedPhoneNumber) {
			log.Printf("flow: phone number rejected as badly formatted, asking for it explicitly: %v", err)
			s.inst.initiation(ctx, "malformed_number", method.String())
			return s.phoneNumberPrompt(inv.Locale), nil
		}
		log.Printf("flow: initiation failed: %v", err)
		s.inst.initiation(ctx, "failed", method.String())
		span := trace.SpanFromContext(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, "initiation failed")
		return nil, fmt.Errorf("%w: %w", ErrInitiationFailed, err)
	}

	log.Printf("flow: verification initiated with id %s (method=%s)", verificationID, method)
	s.inst.initiation(ctx, "initiated", method.String())
	return &Action{
		Outcome: OutcomeNext,
		Durable: Durable{
			KeyVerificationID:     verificationID,
			KeyUserPhone:          userPhone,
			KeyVerificationMethod: method.String(),
		},
		Transient: NewTransient(s.cfg.Credentials),
	}, nil
}

func (s *InitiationStep) resolveMethod(ctx context.Context, normalized string) domain.Method {
	method := s.cfg.Method
	if s.methods == nil {
		return method
	}
	resolved, err := s.methods.ResolveMethod(ctx, normalized, method)
	if err != nil {
		log.Printf("flow: method policy failed, using %s: %v", method, err)
		return method
	}
	if !resolved.Valid() {
		log.Printf("flow: method policy returned %q, using %s", resolved, method)
		return method
	}
	return resolved
}

// profilePhoneNumber reads the stored number. Lookup failures are swallowed.
func (s *InitiationStep) profilePhoneNumber(ctx context.Context, durable Durable) (string, bool) {
	if s.profiles == nil {
		return "", false
	}
	username, ok := durable.Get(KeyUsername)
	if !ok {
		return "", false
	}
	value, found, err := s.profiles.GetAttribute(ctx, username, s.cfg.PhoneAttribute)
	if err != nil {
		log.Printf("flow: reading phone number from profile failed: %v", err)
		return "", false
	}
	if !found || !domain.IsProfilePhoneNumber(value) || !domain.HasDigits(value) {
		return "", false
	}
	return value, true
}

func (s *InitiationStep) phoneNumberPrompt(locale string) *Action {
	return &Action{
		Callbacks: []Callback{
			TextOutput(s.catalog.Lookup(locale, messages.PhoneNumberText)),
			NameInput(s.catalog.Lookup(locale, messages.PhoneNumber)),
		},
	}
}
