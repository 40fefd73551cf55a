package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"phone-verification/internal/telemetry"
)

const loggerName = "phone-verification.flow"

// NewEventEmitter returns an EventEmitter that sends flow events as OTel log records via the given
// LoggerProvider. If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return NewEventEmitterWithLogger(provider.Logger(loggerName))
}

// NewEventEmitterWithLogger returns an EventEmitter writing to logger.
func NewEventEmitterWithLogger(logger otellog.Logger) telemetry.EventEmitter {
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *telemetry.FlowEvent) error { return nil }

type otelEmitter struct {
	logger otellog.Logger
}

// Emit converts the flow event to an OTel log record and emits it.
func (e *otelEmitter) Emit(ctx context.Context, event *telemetry.FlowEvent) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	ts := event.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetSeverity(otellog.SeverityInfo)
	if event.Metadata != "" {
		rec.SetBody(otellog.StringValue(event.Metadata))
	}
	rec.AddAttributes(
		otellog.String("flow_id", event.FlowID),
		otellog.String("event_type", event.Action),
	)
	if event.Username != "" {
		rec.AddAttributes(otellog.String("username", event.Username))
	}
	if event.ClientIP != "" {
		rec.AddAttributes(otellog.String("client_ip", event.ClientIP))
	}
	e.logger.Emit(ctx, rec)
	return nil
}
