// Package telemetry exports verification flow events to observability sinks (OTel logs, Kafka).
package telemetry

import (
	"context"
	"errors"
	"time"
)

// FlowEvent is one verification flow transition as exported to telemetry sinks.
type FlowEvent struct {
	FlowID    string    `json:"flowId"`
	Username  string    `json:"username,omitempty"`
	Action    string    `json:"action"`
	Metadata  string    `json:"metadata,omitempty"`
	ClientIP  string    `json:"clientIp,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// EventEmitter emits flow events. Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *FlowEvent) error
}

// Fanout emits every event to each emitter in order. Nil entries are skipped.
type Fanout []EventEmitter

// Emit calls every emitter and returns their joined errors.
func (f Fanout) Emit(ctx context.Context, event *FlowEvent) error {
	var errs []error
	for _, e := range f {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
