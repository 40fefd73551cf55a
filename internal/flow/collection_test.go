package flow

import (
	"context"
	"errors"
	"testing"

	"phone-verification/internal/verification/domain"
)

func initiatedState(creds domain.Credentials) State {
	return State{
		Durable: Durable{
			KeyVerificationID:     "id-1",
			KeyUserPhone:          "+48 123 456 789",
			KeyVerificationMethod: "SMS",
		},
		Transient: NewTransient(creds),
	}
}

func TestCollection_PromptsWithoutCode(t *testing.T) {
	testCases := []struct {
		name   string
		hidden bool
		want   CallbackType
	}{
		{"hidden", true, CallbackPassword},
		{"visible", false, CallbackName},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeClient{}
			step := NewCollectionStep(CollectionConfig{CodeHidden: tc.hidden}, client, nil)
			action, err := step.Process(context.Background(), Invocation{State: initiatedState(domain.AppHashCredentials("h"))})
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if !action.Suspended() {
				t.Fatal("expected a prompt")
			}
			if len(action.Callbacks) != 2 {
				t.Fatalf("prompt has %d callbacks, want 2", len(action.Callbacks))
			}
			if action.Callbacks[0].Type != CallbackTextOutput {
				t.Errorf("first callback = %q, want text output", action.Callbacks[0].Type)
			}
			if action.Callbacks[1].Type != tc.want {
				t.Errorf("second callback = %q, want %q", action.Callbacks[1].Type, tc.want)
			}
			if len(client.verifies) != 0 {
				t.Error("prompting must not call Verify")
			}
		})
	}
}

func TestCollection_IgnoresCodeOnOtherChannel(t *testing.T) {
	client := &fakeClient{status: domain.StatusSuccessful}
	step := NewCollectionStep(CollectionConfig{CodeHidden: true}, client, nil)

	inv := Invocation{
		State:     initiatedState(domain.AppHashCredentials("h")),
		Callbacks: []Callback{{Type: CallbackName, Value: "1234"}},
	}
	action, err := step.Process(context.Background(), inv)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !action.Suspended() {
		t.Error("code on the plain channel should be ignored when hidden")
	}
	if len(client.verifies) != 0 {
		t.Error("Verify should not be called")
	}
}

func TestCollection_SuccessfulStatusAccepts(t *testing.T) {
	client := &fakeClient{status: domain.StatusSuccessful}
	step := NewCollectionStep(CollectionConfig{CodeHidden: true}, client, nil)

	inv := Invocation{
		State:     initiatedState(domain.AppKeySecretCredentials("k", []byte("s"))),
		Callbacks: []Callback{{Type: CallbackPassword, Value: " 1234 "}},
	}
	action, err := step.Process(context.Background(), inv)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if action.Outcome != OutcomeAccepted {
		t.Errorf("Outcome = %q, want %q", action.Outcome, OutcomeAccepted)
	}
	if len(client.verifies) != 1 {
		t.Fatalf("Verify called %d times, want 1", len(client.verifies))
	}
	call := client.verifies[0]
	if call.id != "id-1" || call.code != "1234" || call.method != domain.MethodSMS {
		t.Errorf("Verify call = (%q, %q, %q), want (id-1, 1234, SMS)", call.id, call.code, call.method)
	}
	if key, _ := call.creds.AppKey(); key != "k" {
		t.Errorf("Verify creds key = %q, want transient key", key)
	}
}

func TestCollection_Rejections(t *testing.T) {
	testCases := []struct {
		name   string
		client *fakeClient
	}{
		{"non-successful status", &fakeClient{status: domain.StatusOther}},
		{"backend error", &fakeClient{verifyErr: errors.New("timeout")}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			step := NewCollectionStep(CollectionConfig{}, tc.client, nil)
			inv := Invocation{
				State:     initiatedState(domain.AppHashCredentials("h")),
				Callbacks: []Callback{{Type: CallbackName, Value: "9999"}},
			}
			action, err := step.Process(context.Background(), inv)
			if err != nil {
				t.Fatalf("Process must not fail: %v", err)
			}
			if action.Outcome != OutcomeRejected {
				t.Errorf("Outcome = %q, want %q", action.Outcome, OutcomeRejected)
			}
		})
	}
}

func TestCollection_MissingStateRejects(t *testing.T) {
	base := initiatedState(domain.AppHashCredentials("h"))
	testCases := []struct {
		name  string
		state State
	}{
		{"no verification id", State{Durable: Durable{KeyVerificationMethod: "SMS"}, Transient: base.Transient}},
		{"no method", State{Durable: Durable{KeyVerificationID: "id-1"}, Transient: base.Transient}},
		{"unknown method", State{Durable: Durable{KeyVerificationID: "id-1", KeyVerificationMethod: "FAX"}, Transient: base.Transient}},
		{"no credentials", State{Durable: base.Durable}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeClient{status: domain.StatusSuccessful}
			step := NewCollectionStep(CollectionConfig{}, client, nil)
			action, err := step.Process(context.Background(), Invocation{
				State:     tc.state,
				Callbacks: []Callback{{Type: CallbackName, Value: "1234"}},
			})
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if action.Outcome != OutcomeRejected {
				t.Errorf("Outcome = %q, want rejected", action.Outcome)
			}
			if len(client.verifies) != 0 {
				t.Error("Verify should not be called with incomplete state")
			}
		})
	}
}

func TestCollection_FallsBackToConfiguredCredentials(t *testing.T) {
	client := &fakeClient{status: domain.StatusSuccessful}
	cfg := CollectionConfig{Credentials: domain.AppKeySecretCredentials("node-key", []byte("node-secret"))}
	step := NewCollectionStep(cfg, client, nil)

	state := initiatedState(domain.Credentials{})
	state.Transient = nil
	action, err := step.Process(context.Background(), Invocation{
		State:     state,
		Callbacks: []Callback{{Type: CallbackName, Value: "1234"}},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if action.Outcome != OutcomeAccepted {
		t.Fatalf("Outcome = %q, want accepted", action.Outcome)
	}
	if key, _ := client.verifies[0].creds.AppKey(); key != "node-key" {
		t.Errorf("Verify creds key = %q, want node-key", key)
	}
}

func TestCollection_TransientCredentialsWinOverConfigured(t *testing.T) {
	client := &fakeClient{status: domain.StatusSuccessful}
	cfg := CollectionConfig{Credentials: domain.AppKeySecretCredentials("node-key", []byte("node-secret"))}
	step := NewCollectionStep(cfg, client, nil)

	_, err := step.Process(context.Background(), Invocation{
		State:     initiatedState(domain.AppHashCredentials("flow-hash")),
		Callbacks: []Callback{{Type: CallbackName, Value: "1234"}},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if h, ok := client.verifies[0].creds.AppHash(); !ok || h != "flow-hash" {
		t.Errorf("Verify creds hash = %q, want flow-hash", h)
	}
}

func TestInitiationThenCollection(t *testing.T) {
	client := &fakeClient{initiateID: "id-42", status: domain.StatusSuccessful}
	creds := domain.AppHashCredentials("hash")
	initiation := NewInitiationStep(InitiationConfig{Credentials: creds, Method: domain.MethodCallout}, client, nil, nil, nil)
	collection := NewCollectionStep(CollectionConfig{CodeHidden: true}, client, nil)

	state := State{Durable: Durable{}}
	action, err := initiation.Process(context.Background(), Invocation{State: state, Callbacks: phoneSubmission("+1 (555) 010-9999")})
	if err != nil {
		t.Fatalf("initiation: %v", err)
	}
	state.Durable = state.Durable.Merge(action.Durable)
	state.Transient = action.Transient

	action, err = collection.Process(context.Background(), Invocation{State: state, Callbacks: []Callback{{Type: CallbackPassword, Value: "0000"}}})
	if err != nil {
		t.Fatalf("collection: %v", err)
	}
	if action.Outcome != OutcomeAccepted {
		t.Errorf("Outcome = %q, want accepted", action.Outcome)
	}
	if got := client.verifies[0]; got.id != "id-42" || got.method != domain.MethodCallout {
		t.Errorf("Verify call = (%q, %q), want (id-42, CALLOUT)", got.id, got.method)
	}
}
