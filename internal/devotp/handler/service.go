package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// DevServiceName is the fully qualified gRPC service name.
const DevServiceName = "phoneverify.v1.DevService"

// GetOTPMethod is the full method name of DevService/GetOTP.
const GetOTPMethod = "/" + DevServiceName + "/GetOTP"

// DevServiceServer is the server API for DevService. Requests and responses are
// google.protobuf.Struct messages.
type DevServiceServer interface {
	GetOTP(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// DevServiceDesc is the grpc.ServiceDesc for DevService.
var DevServiceDesc = grpc.ServiceDesc{
	ServiceName: DevServiceName,
	HandlerType: (*DevServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetOTP", Handler: devServiceGetOTPHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "phoneverify/v1/dev.proto",
}

// RegisterDevServiceServer registers srv with s.
func RegisterDevServiceServer(s grpc.ServiceRegistrar, srv DevServiceServer) {
	s.RegisterService(&DevServiceDesc, srv)
}

func devServiceGetOTPHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DevServiceServer).GetOTP(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetOTPMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DevServiceServer).GetOTP(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
