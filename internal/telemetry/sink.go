package telemetry

import (
	"context"
	"time"
)

// AuditSink forwards flow audit events to an EventEmitter without blocking the flow.
// It satisfies audit.AuditLogger.
type AuditSink struct {
	emitter     EventEmitter
	ipExtractor func(context.Context) string
}

// NewAuditSink returns a sink emitting through emitter. ipExtractor may be nil.
func NewAuditSink(emitter EventEmitter, ipExtractor func(context.Context) string) *AuditSink {
	return &AuditSink{emitter: emitter, ipExtractor: ipExtractor}
}

// LogEvent emits the event asynchronously.
func (s *AuditSink) LogEvent(ctx context.Context, flowID, username, action, metadata string) {
	if s == nil || s.emitter == nil {
		return
	}
	event := &FlowEvent{
		FlowID:    flowID,
		Username:  username,
		Action:    action,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if s.ipExtractor != nil {
		event.ClientIP = s.ipExtractor(ctx)
	}
	EmitAsync(s.emitter, event)
}
