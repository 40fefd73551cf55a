package flow

import (
	"context"
	"log"

	"go.opentelemetry.io/otel/attribute"

	"phone-verification/internal/flow/messages"
	"phone-verification/internal/verification/domain"
)

// CollectionConfig is the static configuration of a CollectionStep.
type CollectionConfig struct {
	// Credentials are used when the transient state carries none.
	Credentials domain.Credentials
	// CodeHidden masks the code input. It also selects the only channel the code is read from.
	CodeHidden bool
}

// codeChannel pairs the prompt field for the code with the reader for its submitted value.
type codeChannel struct {
	field func(prompt string) Callback
	read  func(callbacks []Callback) (string, bool)
}

var (
	maskedCodeChannel = codeChannel{
		field: PasswordInput,
		read:  func(cbs []Callback) (string, bool) { return submittedValue(cbs, CallbackPassword) },
	}
	plainCodeChannel = codeChannel{
		field: NameInput,
		read:  func(cbs []Callback) (string, bool) { return submittedValue(cbs, CallbackName) },
	}
)

// CollectionStep prompts for the one-time code and checks it against the initiated challenge.
type CollectionStep struct {
	cfg     CollectionConfig
	client  VerificationClient
	catalog *messages.Catalog
	channel codeChannel
	inst    *instruments
}

// NewCollectionStep returns a CollectionStep. catalog may be nil.
func NewCollectionStep(cfg CollectionConfig, client VerificationClient, catalog *messages.Catalog) *CollectionStep {
	if catalog == nil {
		catalog = messages.Default()
	}
	channel := plainCodeChannel
	if cfg.CodeHidden {
		channel = maskedCodeChannel
	}
	return &CollectionStep{
		cfg:     cfg,
		client:  client,
		catalog: catalog,
		channel: channel,
		inst:    newInstruments(),
	}
}

// Process prompts for the code on first entry. With a submitted code it asks the backend and
// leaves through OutcomeAccepted or OutcomeRejected. It never returns an error.
func (s *CollectionStep) Process(ctx context.Context, inv Invocation) (*Action, error) {
	ctx, span := tracer.Start(ctx, "flow.CollectionStep")
	defer span.End()

	code, ok := s.channel.read(inv.Callbacks)
	if !ok {
		return &Action{
			Callbacks: []Callback{
				TextOutput(s.catalog.Lookup(inv.Locale, messages.CollectCodePrompt)),
				s.channel.field(s.catalog.Lookup(inv.Locale, messages.CodeHint)),
			},
		}, nil
	}
	accepted := s.verify(ctx, inv.State, code)
	span.SetAttributes(attribute.Bool("verification.accepted", accepted))
	if accepted {
		return &Action{Outcome: OutcomeAccepted}, nil
	}
	return &Action{Outcome: OutcomeRejected}, nil
}

func (s *CollectionStep) verify(ctx context.Context, state State, code string) bool {
	verificationID, ok := state.Durable.Get(KeyVerificationID)
	if !ok {
		log.Printf("flow: code submitted without a verification id in state, rejecting")
		s.inst.outcome(ctx, "invalid_state")
		return false
	}
	rawMethod, ok := state.Durable.Get(KeyVerificationMethod)
	if !ok {
		log.Printf("flow: verification %s has no method in state, rejecting", verificationID)
		s.inst.outcome(ctx, "invalid_state")
		return false
	}
	method := domain.Method(rawMethod)
	if !method.Valid() {
		log.Printf("flow: verification %s has unknown method %q in state, rejecting", verificationID, rawMethod)
		s.inst.outcome(ctx, "invalid_state")
		return false
	}
	creds, ok := state.Transient.Credentials()
	if !ok {
		creds = s.cfg.Credentials
	}
	if creds.IsZero() {
		log.Printf("flow: no credentials available to verify %s, rejecting", verificationID)
		s.inst.outcome(ctx, "invalid_state")
		return false
	}

	status, err := s.client.Verify(ctx, creds, verificationID, code, method)
	if err != nil {
		log.Printf("flow: checking code for verification %s failed: %v", verificationID, err)
		s.inst.outcome(ctx, "error")
		return false
	}
	if !status.Successful() {
		log.Printf("flow: verification %s not successful (status=%s)", verificationID, status)
		s.inst.outcome(ctx, "rejected")
		return false
	}
	log.Printf("flow: verification %s successful", verificationID)
	s.inst.outcome(ctx, "accepted")
	return true
}
