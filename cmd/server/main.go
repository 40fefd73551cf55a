package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"phone-verification/internal/config"
	"phone-verification/internal/server"
	"phone-verification/internal/server/interceptors"
	"phone-verification/internal/telemetry"
	telemetryotel "phone-verification/internal/telemetry/otel"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx := context.Background()

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Config{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	app, err := build(ctx, cfg, providers)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer lis.Close()

	skip := map[string]bool{"/grpc.health.v1.Health/Check": true}
	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.RequestIDUnary(),
			interceptors.TelemetryUnary(skip),
		),
	)
	server.RegisterServices(s, app.deps)

	go func() {
		log.Printf("gRPC server listening on %s (backend=%s, transient store=%s)", cfg.GRPCAddr, cfg.VerificationBackend, cfg.TransientStore)
		if err := s.Serve(lis); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down gRPC server...")
	s.GracefulStop()
	// Let async flow event emits finish before the sinks go away.
	time.Sleep(telemetry.ShutdownDrainDuration)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	app.close()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry: shutdown: %v", err)
	}
	log.Println("gRPC server stopped")
}
