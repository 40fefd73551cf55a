package interceptors

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// TelemetryUnary returns a unary server interceptor that logs each RPC and counts it by method
// and status code. skipMethods is the set of full method names to not log (e.g. health checks).
func TelemetryUnary(skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	requests, err := otel.Meter("phone-verification/server").Int64Counter("phoneverify.rpc.requests",
		metric.WithDescription("RPCs handled, by method and status code"))
	if err != nil {
		log.Printf("telemetry: creating rpc counter failed: %v", err)
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if skipMethods[info.FullMethod] {
			return resp, err
		}
		code := status.Code(err)
		if requests != nil {
			requests.Add(ctx, 1, metric.WithAttributes(
				attribute.String("rpc.method", info.FullMethod),
				attribute.String("rpc.code", code.String()),
			))
		}
		requestID, _ := GetRequestID(ctx)
		log.Printf("grpc: method=%s code=%s duration_ms=%d client_ip=%s request_id=%s",
			info.FullMethod, code, time.Since(start).Milliseconds(), ClientIP(ctx), requestID)
		return resp, err
	}
}
