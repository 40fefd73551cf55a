package otel

import (
	"context"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"phone-verification/internal/telemetry"
)

func TestNewEventEmitter_NilProvider_ReturnsNoop(t *testing.T) {
	em := NewEventEmitter(nil)
	if em == nil {
		t.Fatal("NewEventEmitter(nil) returned nil")
	}
	if err := em.Emit(context.Background(), &telemetry.FlowEvent{FlowID: "f"}); err != nil {
		t.Errorf("noop Emit: %v", err)
	}
}

func TestEmit_NilEvent_ReturnsNil(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()
	if err := NewEventEmitter(provider).Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit(ctx, nil): %v", err)
	}
}

// recordCapture stores the last Record passed to Emit for assertion.
type recordCapture struct {
	otellog.Logger
	rec otellog.Record
}

func (r *recordCapture) Emit(ctx context.Context, rec otellog.Record) {
	r.rec = rec
}

func attributes(rec otellog.Record) map[string]string {
	attrs := make(map[string]string)
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})
	return attrs
}

func TestEmit_AttributeAndBodyMapping(t *testing.T) {
	cap := &recordCapture{}
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	event := &telemetry.FlowEvent{
		FlowID:    "flow-1",
		Username:  "alice",
		Action:    "initiated",
		Metadata:  "method=SMS",
		ClientIP:  "10.0.0.1",
		CreatedAt: created,
	}
	if err := NewEventEmitterWithLogger(cap).Emit(context.Background(), event); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	if got := cap.rec.Body().AsString(); got != "method=SMS" {
		t.Errorf("body = %q, want method=SMS", got)
	}
	if !cap.rec.Timestamp().Equal(created) {
		t.Errorf("timestamp = %v, want %v", cap.rec.Timestamp(), created)
	}
	want := map[string]string{"flow_id": "flow-1", "event_type": "initiated", "username": "alice", "client_ip": "10.0.0.1"}
	attrs := attributes(cap.rec)
	for k, v := range want {
		if attrs[k] != v {
			t.Errorf("attr %q = %q, want %q", k, attrs[k], v)
		}
	}
}

func TestEmit_OptionalFieldsOmitted(t *testing.T) {
	cap := &recordCapture{}
	before := time.Now().UTC()
	if err := NewEventEmitterWithLogger(cap).Emit(context.Background(), &telemetry.FlowEvent{FlowID: "flow-1", Action: "rejected"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !cap.rec.Body().Empty() {
		t.Error("body should be empty without metadata")
	}
	attrs := attributes(cap.rec)
	if _, ok := attrs["username"]; ok {
		t.Error("username attribute set for anonymous flow")
	}
	if cap.rec.Timestamp().Before(before) {
		t.Errorf("timestamp = %v, want now", cap.rec.Timestamp())
	}
}
