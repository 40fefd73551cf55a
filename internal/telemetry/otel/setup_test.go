package otel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewProviders_EmptyEndpoint(t *testing.T) {
	ctx := context.Background()
	for _, endpoint := range []string{"", "   "} {
		providers, err := NewProviders(ctx, Config{Endpoint: endpoint, ServiceName: "test-service"})
		if err != nil {
			t.Fatalf("NewProviders(%q): %v", endpoint, err)
		}
		if providers.TracerProvider == nil || providers.MeterProvider == nil || providers.LoggerProvider == nil {
			t.Errorf("NewProviders(%q) returned nil providers", endpoint)
		}
		if err := providers.Shutdown(ctx); err != nil {
			t.Errorf("shutdown should be a no-op, got %v", err)
		}
	}
}

func TestNewProviders_InvalidEndpoint(t *testing.T) {
	for _, endpoint := range []string{"://invalid", "http://[invalid", "http://"} {
		if _, err := NewProviders(context.Background(), Config{Endpoint: endpoint, ServiceName: "test-service"}); err == nil {
			t.Errorf("NewProviders(%q) should return error", endpoint)
		}
	}
}

func TestCollectorTarget(t *testing.T) {
	testCases := []struct {
		endpoint     string
		force        bool
		wantTarget   string
		wantInsecure bool
	}{
		{"localhost:4317", false, "localhost:4317", true},
		{"http://collector:4317", false, "collector:4317", true},
		{"https://collector:4317", false, "collector:4317", false},
		{"https://collector:4317", true, "collector:4317", true},
		{"http://collector:4317/v1/traces", false, "collector:4317", true},
	}
	for _, tc := range testCases {
		target, insecure, err := collectorTarget(tc.endpoint, tc.force)
		if err != nil {
			t.Errorf("collectorTarget(%q): %v", tc.endpoint, err)
			continue
		}
		if target != tc.wantTarget || insecure != tc.wantInsecure {
			t.Errorf("collectorTarget(%q, %v) = %q, %v; want %q, %v", tc.endpoint, tc.force, target, insecure, tc.wantTarget, tc.wantInsecure)
		}
	}
}

func TestSetGlobal_PartialProviders(t *testing.T) {
	ctx := context.Background()
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(ctx) }()

	oldTracerProvider := otel.GetTracerProvider()
	oldMeterProvider := otel.GetMeterProvider()
	defer func() {
		otel.SetTracerProvider(oldTracerProvider)
		otel.SetMeterProvider(oldMeterProvider)
	}()

	(&Providers{TracerProvider: tp}).SetGlobal()

	if otel.GetTracerProvider() == oldTracerProvider {
		t.Error("TracerProvider should be updated")
	}
	if otel.GetMeterProvider() != oldMeterProvider {
		t.Error("MeterProvider should not be updated when nil")
	}
}
