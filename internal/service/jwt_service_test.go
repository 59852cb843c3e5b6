package service

import (
	"errors"
	"testing"
	"time"

	"mentor-chat/internal/domain"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)
	user := domain.User{
		ID:        "u1",
		Email:     "ana@test.com",
		Roles:     []string{domain.RoleNameStudent},
		StudentID: "st1",
	}

	token, err := svc.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u1" || claims.StudentID != "st1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.IsStudent() || claims.IsMentor() {
		t.Fatalf("expected student-only claims, got roles %v", claims.Roles)
	}
}

func TestJWTExpiredToken(t *testing.T) {
	svc := NewJWTService("secret", -time.Minute)
	// Negative TTL falls back to the default, so force expiry with a tiny one.
	svc.accessTTL = -time.Minute

	token, err := svc.GenerateAccessToken(domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.ParseAccessToken(token); !errors.Is(err, ErrJWTExpired) {
		t.Fatalf("expected ErrJWTExpired, got %v", err)
	}
}

func TestJWTWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", time.Hour).GenerateAccessToken(domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewJWTService("secret-b", time.Hour).ParseAccessToken(token); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid, got %v", err)
	}
}

func TestJWTGarbageToken(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)
	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := svc.ParseAccessToken(raw); !errors.Is(err, ErrJWTInvalid) {
			t.Fatalf("token %q: expected ErrJWTInvalid, got %v", raw, err)
		}
	}
}
