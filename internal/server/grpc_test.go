package server

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	devotphandler "phone-verification/internal/devotp/handler"
	journeyhandler "phone-verification/internal/journey/handler"
)

// mockServiceRegistrar implements grpc.ServiceRegistrar for testing.
type mockServiceRegistrar struct {
	services []string
}

func (m *mockServiceRegistrar) RegisterService(desc *grpc.ServiceDesc, impl interface{}) {
	m.services = append(m.services, desc.ServiceName)
}

func (m *mockServiceRegistrar) has(name string) bool {
	for _, s := range m.services {
		if s == name {
			return true
		}
	}
	return false
}

// mockFlowService implements journeyhandler.FlowServiceServer for testing.
type mockFlowService struct{}

func (mockFlowService) Start(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return &structpb.Struct{}, nil
}

func (mockFlowService) Continue(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return &structpb.Struct{}, nil
}

// mockDevService implements devotphandler.DevServiceServer for testing.
type mockDevService struct{}

func (mockDevService) GetOTP(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return &structpb.Struct{}, nil
}

func TestRegisterServices_AllServicesRegistered(t *testing.T) {
	mockReg := &mockServiceRegistrar{}
	RegisterServices(mockReg, Deps{Flow: mockFlowService{}, DevOTPHandler: mockDevService{}})

	for _, name := range []string{journeyhandler.FlowServiceName, devotphandler.DevServiceName, "grpc.health.v1.Health"} {
		if !mockReg.has(name) {
			t.Errorf("%s not registered; got %v", name, mockReg.services)
		}
	}
	if len(mockReg.services) != 3 {
		t.Errorf("registered %d services, want 3", len(mockReg.services))
	}
}

func TestRegisterServices_DevServiceNotRegisteredWhenNil(t *testing.T) {
	mockReg := &mockServiceRegistrar{}
	RegisterServices(mockReg, Deps{Flow: mockFlowService{}})

	if mockReg.has(devotphandler.DevServiceName) {
		t.Error("DevService registered without a handler")
	}
	if len(mockReg.services) != 2 {
		t.Errorf("registered %d services, want 2", len(mockReg.services))
	}
}

func TestRegisterServices_NilDependencies(t *testing.T) {
	mockReg := &mockServiceRegistrar{}
	RegisterServices(mockReg, Deps{})

	if len(mockReg.services) != 1 || mockReg.services[0] != "grpc.health.v1.Health" {
		t.Errorf("services = %v, want only health", mockReg.services)
	}
}
