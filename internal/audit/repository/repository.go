package repository

import (
	"context"

	"phone-verification/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	ListByFlow(ctx context.Context, flowID string) ([]*domain.AuditLog, error)
}
