package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"clinic-management-api/internal/auth"
)

const secret = "test-secret-0123456789abcdef0123"

func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("testpass123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !auth.CheckPassword(hash, "testpass123") {
		t.Error("correct password rejected")
	}
	if auth.CheckPassword(hash, "wrongpass") {
		t.Error("wrong password accepted")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tok, err := auth.MakeToken("user-1", auth.RolePatient, secret)
	if err != nil {
		t.Fatalf("make token: %v", err)
	}
	claims, err := auth.ParseToken(tok, secret)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("uid: got %s", claims.UserID)
	}
	if claims.Role != auth.RolePatient {
		t.Errorf("role: got %s", claims.Role)
	}

	// expiry is ~15 min out
	diff := time.Until(claims.ExpiresAt.Time)
	if diff < 14*time.Minute || diff > 16*time.Minute {
		t.Errorf("expected ~15min expiry, got %v", diff)
	}
}

func TestTokenRejection(t *testing.T) {
	tok, _ := auth.MakeToken("user-1", auth.RoleDoctor, secret)

	if _, err := auth.ParseToken(tok, "wrong-secret"); err == nil {
		t.Error("wrong secret accepted")
	}
	if _, err := auth.ParseToken("not.a.token", secret); err == nil {
		t.Error("garbage token accepted")
	}
}

func TestRefreshTokenGeneration(t *testing.T) {
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(raw) != 64 { // 32 bytes hex
		t.Errorf("expected 64 char raw token, got %d", len(raw))
	}
	if auth.HashRefreshToken(raw) != hash {
		t.Error("hash mismatch")
	}
}

func TestRoles(t *testing.T) {
	for _, r := range []auth.Role{auth.RoleAdmin, auth.RoleDoctor, auth.RolePatient} {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
		if !r.CanActAs(r) {
			t.Errorf("%s should act as itself", r)
		}
	}
	if auth.Role("superuser").Valid() {
		t.Error("unknown role accepted")
	}
	if auth.RoleDoctor.CanActAs(auth.RolePatient) {
		t.Error("doctor must not act as patient")
	}
}

type staticDirectory struct {
	known map[string]auth.Role
	err   error
}

func (d *staticDirectory) PrincipalExists(_ context.Context, id string, role auth.Role) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	return d.known[id] == role, nil
}

func TestResolver(t *testing.T) {
	dir := &staticDirectory{known: map[string]auth.Role{"pat-1": auth.RolePatient}}
	r := auth.NewResolver(secret, dir)
	ctx := context.Background()

	tok, _ := auth.MakeToken("pat-1", auth.RolePatient, secret)
	p, err := r.Resolve(ctx, "Bearer "+tok)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.ID != "pat-1" || p.Role != auth.RolePatient {
		t.Errorf("principal: %+v", p)
	}

	// fails closed
	if _, err := r.Resolve(ctx, ""); err == nil {
		t.Error("empty credential accepted")
	}
	if _, err := r.Resolve(ctx, "Bearer junk"); err == nil {
		t.Error("junk credential accepted")
	}

	// principal whose master record is gone
	goneTok, _ := auth.MakeToken("deleted-user", auth.RolePatient, secret)
	if _, err := r.Resolve(ctx, "Bearer "+goneTok); err == nil {
		t.Error("deleted principal accepted")
	}

	// directory failure propagates, never resolves
	dir.err = errors.New("db down")
	if _, err := r.Resolve(ctx, "Bearer "+tok); err == nil {
		t.Error("resolver succeeded despite directory failure")
	}
}
