// Package journey hosts the verification tree: it runs the initiation and collection steps,
// suspends on prompts, and resumes from the client's authId.
package journey

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"phone-verification/internal/audit"
	"phone-verification/internal/flow"
	"phone-verification/internal/journey/transient"
	"phone-verification/internal/security"
)

// Step names recorded in the authId.
const (
	StepInitiate = "initiate"
	StepCollect  = "collect"
)

// Outcome is the terminal result of a journey.
type Outcome string

const (
	OutcomeNone     Outcome = ""
	OutcomeAccepted Outcome = "ACCEPTED"
	OutcomeRejected Outcome = "REJECTED"
)

// defaultTTL bounds a flow when New is given no TTL.
const defaultTTL = 10 * time.Minute

var (
	// ErrInvalidAuthID is returned for an authId that is malformed, expired, refers to an unknown
	// step, or belongs to a flow that already ended.
	ErrInvalidAuthID = errors.New("journey: invalid or expired authId")
)

// Result is what the client sees after each call: either a prompt with the authId to continue
// with, or a terminal outcome.
type Result struct {
	AuthID    string
	Callbacks []flow.Callback
	Outcome   Outcome
}

// Journey runs the two-step verification tree.
type Journey struct {
	steps     map[string]flow.Step
	signer    *security.StateSigner
	transient transient.Store
	audit     audit.AuditLogger
	ttl       time.Duration
}

// New returns a Journey. auditLogger may be nil. ttl is the flow lifetime; it also bounds how long
// an ended flow is remembered, so it must not be shorter than the signer's token TTL.
func New(initiation, collection flow.Step, signer *security.StateSigner, store transient.Store, auditLogger audit.AuditLogger, ttl time.Duration) *Journey {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Journey{
		steps: map[string]flow.Step{
			StepInitiate: initiation,
			StepCollect:  collection,
		},
		signer:    signer,
		transient: store,
		audit:     auditLogger,
		ttl:       ttl,
	}
}

type flowState struct {
	id        string
	step      string
	startedAt time.Time
	durable   flow.Durable
	transient *flow.Transient
}

// Start begins a new flow for username (may be empty) and runs it until the first prompt or outcome.
func (j *Journey) Start(ctx context.Context, username, locale string) (*Result, error) {
	fs := &flowState{
		id:        uuid.New().String(),
		step:      StepInitiate,
		startedAt: time.Now().UTC(),
		durable:   flow.Durable{},
	}
	if username != "" {
		fs.durable[flow.KeyUsername] = username
	}
	return j.run(ctx, fs, nil, locale)
}

// Continue resumes the flow identified by authID with the values submitted for its last prompt.
// A flow that reached an outcome or failed cannot be resumed, whatever authId it handed out.
func (j *Journey) Continue(ctx context.Context, authID string, callbacks []flow.Callback, locale string) (*Result, error) {
	claims, err := j.signer.Parse(authID)
	if err != nil {
		return nil, ErrInvalidAuthID
	}
	if _, ok := j.steps[claims.Step]; !ok {
		return nil, ErrInvalidAuthID
	}
	finished, err := j.transient.Finished(ctx, claims.FlowID())
	if err != nil {
		return nil, fmt.Errorf("journey: load flow %s: %w", claims.FlowID(), err)
	}
	if finished {
		return nil, ErrInvalidAuthID
	}
	fs := &flowState{
		id:      claims.FlowID(),
		step:    claims.Step,
		durable: flow.Durable(claims.State).Clone(),
	}
	if claims.IssuedAt != nil {
		fs.startedAt = claims.IssuedAt.Time
	}
	t, ok, err := j.transient.Get(ctx, fs.id)
	if err != nil {
		log.Printf("journey: loading transient state of flow %s failed: %v", fs.id, err)
	} else if ok {
		fs.transient = t
	}
	return j.run(ctx, fs, callbacks, locale)
}

func (j *Journey) run(ctx context.Context, fs *flowState, callbacks []flow.Callback, locale string) (*Result, error) {
	for {
		step := j.steps[fs.step]
		action, err := step.Process(ctx, flow.Invocation{
			State:     flow.State{Durable: fs.durable, Transient: fs.transient},
			Callbacks: callbacks,
			Locale:    locale,
		})
		if err != nil {
			if _, finishErr := j.finish(ctx, fs); finishErr != nil {
				log.Printf("journey: %v", finishErr)
			}
			if errors.Is(err, flow.ErrInitiationFailed) {
				j.logEvent(ctx, fs, audit.ActionInitiationFailed, "")
			}
			return nil, fmt.Errorf("journey: step %s: %w", fs.step, err)
		}
		fs.durable = fs.durable.Merge(action.Durable)
		if action.Transient != nil {
			fs.transient = action.Transient
		}

		if action.Suspended() {
			return j.suspend(ctx, fs, action.Callbacks)
		}

		switch action.Outcome {
		case flow.OutcomeNext:
			if fs.step != StepInitiate {
				return nil, fmt.Errorf("journey: step %s left through %q", fs.step, action.Outcome)
			}
			method, _ := fs.durable.Get(flow.KeyVerificationMethod)
			j.logEvent(ctx, fs, audit.ActionInitiated, "method="+method)
			fs.step = StepCollect
			callbacks = nil
		case flow.OutcomeAccepted:
			// Acceptance counts only if this call is the one that ended the flow.
			first, err := j.finish(ctx, fs)
			if err != nil {
				return nil, err
			}
			if !first {
				log.Printf("journey: flow %s already ended, discarding acceptance", fs.id)
				return nil, ErrInvalidAuthID
			}
			j.logEvent(ctx, fs, audit.ActionAccepted, "")
			return &Result{Outcome: OutcomeAccepted}, nil
		case flow.OutcomeRejected:
			if _, err := j.finish(ctx, fs); err != nil {
				log.Printf("journey: %v", err)
			}
			j.logEvent(ctx, fs, audit.ActionRejected, "")
			return &Result{Outcome: OutcomeRejected}, nil
		default:
			return nil, fmt.Errorf("journey: step %s returned no prompt and no outcome", fs.step)
		}
	}
}

func (j *Journey) suspend(ctx context.Context, fs *flowState, callbacks []flow.Callback) (*Result, error) {
	authID, expiresAt, err := j.signer.Issue(fs.id, fs.step, fs.durable, fs.startedAt)
	if err != nil {
		return nil, fmt.Errorf("journey: sign state: %w", err)
	}
	if fs.transient != nil {
		ttl := time.Until(expiresAt)
		if ttl <= 0 {
			return nil, ErrInvalidAuthID
		}
		if err := j.transient.Put(ctx, fs.id, fs.transient, ttl); err != nil {
			return nil, fmt.Errorf("journey: store transient state: %w", err)
		}
	}
	action := audit.ActionPromptPhone
	if fs.step == StepCollect {
		action = audit.ActionPromptCode
	}
	j.logEvent(ctx, fs, action, "")
	return &Result{AuthID: authID, Callbacks: callbacks}, nil
}

// finish marks the flow ended and discards its transient state. first reports whether this call
// ended it.
func (j *Journey) finish(ctx context.Context, fs *flowState) (first bool, err error) {
	first, err = j.transient.MarkFinished(ctx, fs.id, j.ttl)
	if delErr := j.transient.Delete(ctx, fs.id); delErr != nil {
		log.Printf("journey: deleting transient state of flow %s failed: %v", fs.id, delErr)
	}
	if err != nil {
		return false, fmt.Errorf("journey: mark flow %s finished: %w", fs.id, err)
	}
	return first, nil
}

func (j *Journey) logEvent(ctx context.Context, fs *flowState, action, metadata string) {
	if j.audit == nil {
		return
	}
	username, _ := fs.durable.Get(flow.KeyUsername)
	j.audit.LogEvent(ctx, fs.id, username, action, metadata)
}
