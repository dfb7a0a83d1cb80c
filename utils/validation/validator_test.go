package validation

import "testing"

func TestValidateStruct(t *testing.T) {
	type payload struct {
		Email string `validate:"required,email"`
		Score int    `validate:"min=0,max=100"`
	}

	v := NewValidator()

	if err := v.ValidateStruct(payload{Email: "a@example.com", Score: 70}); err != nil {
		t.Errorf("valid payload rejected: %v", err)
	}
	if err := v.ValidateStruct(payload{Email: "not-an-email", Score: 70}); err == nil {
		t.Error("invalid email accepted")
	}
	if err := v.ValidateStruct(payload{Email: "a@example.com", Score: 101}); err == nil {
		t.Error("out-of-range score accepted")
	}
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  plain  ", "plain"},
		{"with\x00null", "withnull"},
		{"\x00  \x00", ""},
		{"untouched", "untouched"},
	}
	for _, tt := range tests {
		if got := SanitizeString(tt.in); got != tt.want {
			t.Errorf("SanitizeString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
