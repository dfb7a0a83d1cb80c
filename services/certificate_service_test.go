package services

import (
	"strings"
	"testing"

	"github.com/learnloft/api/utils/crypto"
)

func TestGenerateCertificateNumberFormat(t *testing.T) {
	number, err := generateCertificateNumber()
	if err != nil {
		t.Fatalf("generateCertificateNumber failed: %v", err)
	}

	parts := strings.Split(number, "-")
	if len(parts) != 3 {
		t.Fatalf("expected 3 dash-separated parts, got %d (%s)", len(parts), number)
	}
	if parts[0] != "CERT" {
		t.Errorf("expected CERT prefix, got %s", parts[0])
	}
	if parts[1] == "" || parts[2] == "" {
		t.Errorf("timestamp and suffix must be non-empty: %s", number)
	}
	if number != strings.ToUpper(number) {
		t.Errorf("certificate number must be uppercase: %s", number)
	}
}

func TestGenerateCertificateNumberSuffixVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		number, err := generateCertificateNumber()
		if err != nil {
			t.Fatalf("generateCertificateNumber failed: %v", err)
		}
		seen[number] = true
	}
	// Same-second issuance shares the timestamp part, so uniqueness rides
	// on the random suffix
	if len(seen) < 45 {
		t.Errorf("expected near-unique numbers, got %d distinct out of 50", len(seen))
	}
}

func TestVerificationCodeFormat(t *testing.T) {
	code, err := crypto.GenerateVerificationCode()
	if err != nil {
		t.Fatalf("GenerateVerificationCode failed: %v", err)
	}
	if len(code) != 32 {
		t.Errorf("expected 32 hex characters, got %d (%s)", len(code), code)
	}
	for _, r := range code {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Errorf("unexpected character %q in verification code %s", r, code)
		}
	}
}

func TestVerifyCacheKey(t *testing.T) {
	if got := verifyCacheKey("abc123"); got != "certificate:verify:abc123" {
		t.Errorf("unexpected cache key: %s", got)
	}
}
