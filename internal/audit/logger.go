// Package audit records verification flow transitions.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"phone-verification/internal/audit/domain"
	auditrepo "phone-verification/internal/audit/repository"
)

// Resource is the resource name of every flow audit entry.
const Resource = "phone_verification"

// Flow transition actions.
const (
	ActionPromptPhone      = "prompt_phone"
	ActionInitiated        = "initiated"
	ActionInitiationFailed = "initiation_failed"
	ActionPromptCode       = "prompt_code"
	ActionAccepted         = "accepted"
	ActionRejected         = "rejected"
)

// IPExtractor returns the client IP from the request context (e.g. gRPC metadata or peer).
type IPExtractor func(context.Context) string

// AuditLogger writes a single flow audit event.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, flowID, username, action, metadata string)
}

// Logger implements AuditLogger using the audit repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor for client IP.
// ipExtractor may be nil; then IP is recorded as "unknown". A nil repo discards events.
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, flowID, username, action, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		FlowID:    flowID,
		Username:  username,
		Action:    action,
		Resource:  Resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s for flow %s: %v", action, flowID, err)
	}
}

// Multi fans each event out to every non-nil logger.
type Multi []AuditLogger

// LogEvent forwards the event to each logger in order.
func (m Multi) LogEvent(ctx context.Context, flowID, username, action, metadata string) {
	for _, l := range m {
		if l != nil {
			l.LogEvent(ctx, flowID, username, action, metadata)
		}
	}
}
