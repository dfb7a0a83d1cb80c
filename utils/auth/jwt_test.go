package auth

import (
	"testing"
	"time"
)

func testManager(expiry time.Duration) *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret:        "test-secret",
		Expiry:        expiry,
		RefreshExpiry: 2 * expiry,
		Issuer:        "test-issuer",
	})
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	m := testManager(time.Hour)

	token, jti, err := m.GenerateAccessToken(42, "learner@example.com", "learner", 3)
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}
	if jti == "" {
		t.Fatal("expected a non-empty JTI")
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "learner@example.com" || claims.Role != "learner" {
		t.Errorf("claims round-trip mismatch: %+v", claims)
	}
	if claims.TokenType != TokenTypeAccess {
		t.Errorf("expected access token type, got %s", claims.TokenType)
	}
	if claims.TokenVersion != 3 {
		t.Errorf("expected token version 3, got %d", claims.TokenVersion)
	}
	if claims.ID != jti {
		t.Errorf("claims ID %s does not match returned JTI %s", claims.ID, jti)
	}
}

func TestRefreshTokenCarriesItsType(t *testing.T) {
	m := testManager(time.Hour)

	token, _, err := m.GenerateRefreshToken(7, "a@example.com", "learner", 0)
	if err != nil {
		t.Fatalf("GenerateRefreshToken failed: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.TokenType != TokenTypeRefresh {
		t.Errorf("expected refresh token type, got %s", claims.TokenType)
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	m := testManager(-time.Minute)

	token, _, err := m.GenerateAccessToken(1, "a@example.com", "learner", 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	if _, err := m.ValidateToken(token); err != ErrExpiredToken {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := testManager(time.Hour).GenerateAccessToken(1, "a@example.com", "learner", 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	other := NewJWTManager(JWTConfig{Secret: "different-secret", Expiry: time.Hour, Issuer: "test-issuer"})
	if _, err := other.ValidateToken(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestGetTokenExpiry(t *testing.T) {
	m := testManager(time.Hour)

	token, _, err := m.GenerateAccessToken(1, "a@example.com", "learner", 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	expiry, err := m.GetTokenExpiry(token)
	if err != nil {
		t.Fatalf("GetTokenExpiry failed: %v", err)
	}

	want := time.Now().Add(time.Hour)
	if expiry.Before(want.Add(-time.Minute)) || expiry.After(want.Add(time.Minute)) {
		t.Errorf("expiry %v not within a minute of %v", expiry, want)
	}
}
