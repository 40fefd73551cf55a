package server

import (
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	devotphandler "phone-verification/internal/devotp/handler"
	healthhandler "phone-verification/internal/health/handler"
	journeyhandler "phone-verification/internal/journey/handler"
)

// Deps holds optional service dependencies for gRPC handlers.
type Deps struct {
	// Flow is the FlowService (Start/Continue). If nil, FlowService is not registered.
	Flow journeyhandler.FlowServiceServer
	// HealthPinger is used by the health service for readiness (e.g. *sql.DB). If nil, Check skips the DB ping.
	HealthPinger healthhandler.Pinger
	// HealthPolicyChecker is used by the health service for readiness (e.g. OPA evaluator). If nil, Check skips the policy check.
	HealthPolicyChecker healthhandler.PolicyChecker
	// DevOTPHandler is the dev-only DevService (GetOTP). If nil, DevService is not registered. Set only when dev OTP is enabled and not production.
	DevOTPHandler devotphandler.DevServiceServer
}

// RegisterServices registers the gRPC services with the given server.
//
// Service → handler mapping:
//   - phoneverify.v1.FlowService → internal/journey/handler
//   - phoneverify.v1.DevService  → internal/devotp/handler
//   - grpc.health.v1.Health      → internal/health/handler
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	if deps.Flow != nil {
		journeyhandler.RegisterFlowServiceServer(s, deps.Flow)
	}
	healthpb.RegisterHealthServer(s, healthhandler.NewServer(deps.HealthPinger, deps.HealthPolicyChecker))
	if deps.DevOTPHandler != nil {
		devotphandler.RegisterDevServiceServer(s, deps.DevOTPHandler)
	}
}
