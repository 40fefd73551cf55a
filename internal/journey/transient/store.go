// Package transient keeps a flow's transient state on the server between prompts, keyed by flow
// id. Nothing stored here is ever sent to the client.
package transient

import (
	"context"
	"time"

	"phone-verification/internal/flow"
)

// Store holds transient state and the finished marker by flow id.
type Store interface {
	// Put stores t for flowID for at most ttl.
	Put(ctx context.Context, flowID string, t *flow.Transient, ttl time.Duration) error
	// Get returns the transient state of flowID; ok is false when missing or expired.
	Get(ctx context.Context, flowID string) (t *flow.Transient, ok bool, err error)
	// Delete removes the state of flowID. Deleting a missing entry is not an error.
	Delete(ctx context.Context, flowID string) error
	// MarkFinished records for ttl that flowID reached a terminal outcome. first is false when
	// the flow was already marked; exactly one caller sees true.
	MarkFinished(ctx context.Context, flowID string, ttl time.Duration) (first bool, err error)
	// Finished reports whether flowID is marked finished.
	Finished(ctx context.Context, flowID string) (bool, error)
}
