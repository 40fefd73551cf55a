// Package handler implements the gRPC FlowService (Start, Continue) on top of the journey engine.
package handler

import (
	"context"
	"errors"
	"log"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"phone-verification/internal/flow"
	"phone-verification/internal/journey"
)

// Runner is the journey API the handler drives.
type Runner interface {
	Start(ctx context.Context, username, locale string) (*journey.Result, error)
	Continue(ctx context.Context, authID string, callbacks []flow.Callback, locale string) (*journey.Result, error)
}

// Server implements FlowService.
type Server struct {
	journey Runner
}

// NewServer returns a FlowService server.
func NewServer(j Runner) *Server {
	return &Server{journey: j}
}

// Start begins a verification flow. Request fields: username (optional), locale (optional).
func (s *Server) Start(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	res, err := s.journey.Start(ctx, fields["username"].GetStringValue(), requestLocale(ctx, req))
	if err != nil {
		return nil, journeyErrorToStatus(err)
	}
	return resultToStruct(res)
}

// Continue resumes a flow. Request fields: auth_id, callbacks, locale (optional).
func (s *Server) Continue(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	authID := fields["auth_id"].GetStringValue()
	if authID == "" {
		return nil, status.Error(codes.InvalidArgument, "auth_id is required")
	}
	callbacks, err := callbacksFromValue(fields["callbacks"])
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	res, err := s.journey.Continue(ctx, authID, callbacks, requestLocale(ctx, req))
	if err != nil {
		return nil, journeyErrorToStatus(err)
	}
	return resultToStruct(res)
}

// requestLocale prefers the locale field and falls back to the accept-language metadata.
func requestLocale(ctx context.Context, req *structpb.Struct) string {
	if l := req.GetFields()["locale"].GetStringValue(); l != "" {
		return l
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get("accept-language"); len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

func callbacksFromValue(v *structpb.Value) ([]flow.Callback, error) {
	if v == nil {
		return nil, nil
	}
	list := v.GetListValue()
	if list == nil {
		return nil, errors.New("callbacks must be a list")
	}
	out := make([]flow.Callback, 0, len(list.GetValues()))
	for _, item := range list.GetValues() {
		obj := item.GetStructValue()
		if obj == nil {
			return nil, errors.New("callbacks entries must be objects")
		}
		f := obj.GetFields()
		out = append(out, flow.Callback{
			Type:  flow.CallbackType(f["type"].GetStringValue()),
			Value: f["value"].GetStringValue(),
		})
	}
	return out, nil
}

func resultToStruct(res *journey.Result) (*structpb.Struct, error) {
	out := map[string]interface{}{}
	if res.Outcome != journey.OutcomeNone {
		out["outcome"] = string(res.Outcome)
	} else {
		callbacks := make([]interface{}, 0, len(res.Callbacks))
		for _, cb := range res.Callbacks {
			callbacks = append(callbacks, map[string]interface{}{
				"type":   string(cb.Type),
				"prompt": cb.Prompt,
			})
		}
		out["auth_id"] = res.AuthID
		out["callbacks"] = callbacks
	}
	st, err := structpb.NewStruct(out)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return st, nil
}

func journeyErrorToStatus(err error) error {
	switch {
	case errors.Is(err, journey.ErrInvalidAuthID):
		return status.Error(codes.Unauthenticated, "invalid or expired auth_id")
	case errors.Is(err, flow.ErrInitiationFailed):
		return status.Error(codes.Internal, flow.ErrInitiationFailed.Error())
	default:
		log.Printf("journey: %v", err)
		return status.Error(codes.Internal, "internal error")
	}
}
