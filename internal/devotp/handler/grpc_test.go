package handler

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

// mockStore implements devotp.Store for tests.
type mockStore struct {
	otps map[string]string
}

func (m *mockStore) Put(ctx context.Context, verificationID, otp string, expiresAt time.Time) {
	if m.otps == nil {
		m.otps = make(map[string]string)
	}
	m.otps[verificationID] = otp
}

func (m *mockStore) Get(ctx context.Context, verificationID string) (string, bool) {
	otp, ok := m.otps[verificationID]
	return otp, ok
}

func (m *mockStore) Delete(ctx context.Context, verificationID string) {
	delete(m.otps, verificationID)
}

func request(t *testing.T, id string) *structpb.Struct {
	t.Helper()
	req, err := structpb.NewStruct(map[string]interface{}{"verification_id": id})
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	return req
}

func TestGetOTP_Success(t *testing.T) {
	srv := NewServer(&mockStore{otps: map[string]string{"ver-1": "123456"}})

	resp, err := srv.GetOTP(context.Background(), request(t, "ver-1"))
	if err != nil {
		t.Fatalf("GetOTP: %v", err)
	}
	if got := resp.GetFields()["otp"].GetStringValue(); got != "123456" {
		t.Errorf("otp = %q, want %q", got, "123456")
	}
	if got := resp.GetFields()["note"].GetStringValue(); got != devOTPNote {
		t.Errorf("note = %q, want %q", got, devOTPNote)
	}
}

func TestGetOTP_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		store *mockStore
		id    string
		want  codes.Code
	}{
		{"missing id", &mockStore{}, "", codes.InvalidArgument},
		{"unknown id", &mockStore{otps: map[string]string{}}, "nope", codes.NotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewServer(tc.store).GetOTP(context.Background(), request(t, tc.id))
			if st, _ := status.FromError(err); st.Code() != tc.want {
				t.Errorf("code = %v, want %v", st.Code(), tc.want)
			}
		})
	}
}

func TestGetOTP_NilStore(t *testing.T) {
	_, err := NewServer(nil).GetOTP(context.Background(), request(t, "ver-1"))
	if st, _ := status.FromError(err); st.Code() != codes.NotFound {
		t.Errorf("code = %v, want NotFound", st.Code())
	}
}

func TestDevService_OverGRPC(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	RegisterDevServiceServer(s, NewServer(&mockStore{otps: map[string]string{"ver-1": "654321"}}))
	go s.Serve(lis)
	defer s.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer conn.Close()

	out := new(structpb.Struct)
	if err := conn.Invoke(context.Background(), GetOTPMethod, request(t, "ver-1"), out); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got := out.GetFields()["otp"].GetStringValue(); got != "654321" {
		t.Errorf("otp = %q, want 654321", got)
	}
}
