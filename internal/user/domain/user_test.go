package domain

import "testing"

func TestUser_Validate(t *testing.T) {
	u := &User{}
	if err := u.Validate(); err == nil {
		t.Error("Validate without username should fail")
	}
	u.Username = "alice"
	if err := u.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if u.Status != UserStatusActive {
		t.Errorf("status = %q, want active", u.Status)
	}
}
