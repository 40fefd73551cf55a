package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// FlowServiceName is the fully qualified gRPC service name.
const FlowServiceName = "phoneverify.v1.FlowService"

// Full method names of FlowService.
const (
	StartMethod    = "/" + FlowServiceName + "/Start"
	ContinueMethod = "/" + FlowServiceName + "/Continue"
)

// FlowServiceServer is the server API for FlowService. Requests and responses are
// google.protobuf.Struct messages.
type FlowServiceServer interface {
	Start(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Continue(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// FlowServiceDesc is the grpc.ServiceDesc for FlowService.
var FlowServiceDesc = grpc.ServiceDesc{
	ServiceName: FlowServiceName,
	HandlerType: (*FlowServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Start", Handler: unaryHandler(StartMethod, FlowServiceServer.Start)},
		{MethodName: "Continue", Handler: unaryHandler(ContinueMethod, FlowServiceServer.Continue)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "phoneverify/v1/flow.proto",
}

// RegisterFlowServiceServer registers srv with s.
func RegisterFlowServiceServer(s grpc.ServiceRegistrar, srv FlowServiceServer) {
	s.RegisterService(&FlowServiceDesc, srv)
}

type unaryFunc func(FlowServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryFunc) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(FlowServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(FlowServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
