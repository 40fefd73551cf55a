package handler

import (
	"context"
	"log"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const checkTimeout = 2 * time.Second

// Pinger checks the database connection.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker checks that the method policy can be evaluated.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server implements grpc.health.v1.Health for readiness/liveness.
type Server struct {
	healthpb.UnimplementedHealthServer
	pinger Pinger
	policy PolicyChecker
}

// NewServer returns a Health server. pinger and policy may be nil; missing checks are skipped.
func NewServer(pinger Pinger, policy PolicyChecker) *Server {
	return &Server{pinger: pinger, policy: policy}
}

// Check reports NOT_SERVING when any configured dependency fails. It never returns a gRPC error.
func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if s.pinger != nil {
		if err := s.pinger.PingContext(ctx); err != nil {
			log.Printf("health: database ping failed: %v", err)
			return notServing(), nil
		}
	}
	if s.policy != nil {
		if err := s.policy.HealthCheck(ctx); err != nil {
			log.Printf("health: policy check failed: %v", err)
			return notServing(), nil
		}
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}

func notServing() *healthpb.HealthCheckResponse {
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}
}
