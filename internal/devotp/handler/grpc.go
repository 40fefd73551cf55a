// Package handler implements the dev-only gRPC DevService (GetOTP).
package handler

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"phone-verification/internal/devotp"
)

const devOTPNote = "DEV MODE ONLY"

// Server implements DevService. Only registered when dev OTP is enabled and not production.
type Server struct {
	store devotp.Store
}

// NewServer returns a DevService server that reads OTP from the given store.
func NewServer(store devotp.Store) *Server {
	return &Server{store: store}
}

// GetOTP returns the plain OTP for verification_id. Returns NotFound if missing or expired.
func (s *Server) GetOTP(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	verificationID := req.GetFields()["verification_id"].GetStringValue()
	if verificationID == "" {
		return nil, status.Error(codes.InvalidArgument, "verification_id is required")
	}
	if s.store == nil {
		return nil, status.Error(codes.NotFound, "OTP not found or expired")
	}
	otp, ok := s.store.Get(ctx, verificationID)
	if !ok {
		return nil, status.Error(codes.NotFound, "OTP not found or expired")
	}
	return structpb.NewStruct(map[string]interface{}{
		"otp":  otp,
		"note": devOTPNote,
	})
}
