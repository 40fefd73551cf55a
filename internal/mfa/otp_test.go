package mfa

import (
	"testing"
)

func TestGenerateOTP_ReturnsSixDigits(t *testing.T) {
	otp, err := GenerateOTP()
	if err != nil {
		t.Fatalf("GenerateOTP: %v", err)
	}
	if len(otp) != otpDigits {
		t.Errorf("OTP length = %d, want %d", len(otp), otpDigits)
	}
	for _, c := range otp {
		if c < '0' || c > '9' {
			t.Errorf("OTP contains non-digit: %c", c)
		}
	}
}

func TestGenerateOTP_Varies(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		otp, err := GenerateOTP()
		if err != nil {
			t.Fatalf("GenerateOTP: %v", err)
		}
		seen[otp] = true
	}
	if len(seen) < 2 {
		t.Error("GenerateOTP returned the same code 20 times")
	}
}
