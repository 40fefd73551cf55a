package engine

import (
	"context"

	"phone-verification/internal/verification/domain"
)

// Evaluator decides which verification method to use for a phone number.
type Evaluator interface {
	// ResolveMethod returns the method for the normalized phone number. configured is the
	// step's configured method and the answer when the policy has no opinion.
	ResolveMethod(ctx context.Context, phone string, configured domain.Method) (domain.Method, error)
	// HealthCheck verifies the policy can be evaluated.
	HealthCheck(ctx context.Context) error
}
