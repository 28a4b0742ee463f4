package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSignAndVerify(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := SignJWT(Claims{
		Role:             RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := VerifyJWT(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("expected subject user-1, got %q", claims.Subject)
	}
	if !claims.IsAdmin() {
		t.Fatalf("expected admin role")
	}
}

func TestVerifyRejectsExpiredAndTampered(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("JWT_SECRET", "test-secret")

	expired, err := SignJWT(Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := VerifyJWT(expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}

	valid, err := SignJWT(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	t.Setenv("JWT_SECRET", "other-secret")
	if _, err := VerifyJWT(valid); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestSecretRequiredInProduction(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")
	if _, err := SignJWT(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}}); err == nil {
		t.Fatalf("expected error without secret in production")
	}
}

func TestKeysUseInjectedSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")

	keys, err := NewKeys("injected", "production")
	if err != nil {
		t.Fatalf("new keys: %v", err)
	}
	token, err := keys.Sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "admin-1"}, Role: RoleAdmin})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := keys.Verify(token)
	if err != nil || claims.Subject != "admin-1" || !claims.IsAdmin() {
		t.Fatalf("unexpected verify result %+v err=%v", claims, err)
	}
	if _, err := VerifyJWT(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("env secret must not verify injected-key tokens, got %v", err)
	}
	if _, err := NewKeys(" ", "prod"); err == nil {
		t.Fatal("expected error for empty secret in production")
	}
	if _, err := keys.Sign(Claims{}); err == nil {
		t.Fatal("expected error without subject")
	}
}
