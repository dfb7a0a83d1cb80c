package auth

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "correct horse battery" {
		t.Fatal("password stored in plaintext")
	}

	if err := VerifyPassword(hash, "correct horse battery"); err != nil {
		t.Errorf("VerifyPassword rejected the right password: %v", err)
	}

	if err := VerifyPassword(hash, "wrong password"); err != ErrPasswordMismatch {
		t.Errorf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestHashPasswordRejectsShort(t *testing.T) {
	if _, err := HashPassword("short"); err == nil {
		t.Error("expected an error for a password under the minimum length")
	}
}

func TestIsPasswordValid(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"", false},
		{"1234567", false},
		{"12345678", true},
		{"a much longer passphrase", true},
	}
	for _, tt := range tests {
		if got := IsPasswordValid(tt.password); got != tt.want {
			t.Errorf("IsPasswordValid(%q) = %v, want %v", tt.password, got, tt.want)
		}
	}
}
