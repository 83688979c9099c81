package auth

import (
	"context"
	"fmt"
	"strings"
)

// Role is the closed set of caller kinds. It is resolved once at the
// credential boundary; nothing downstream re-parses role strings.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleDoctor || r == RolePatient
}

// CanActAs reports whether a caller holding this role may perform an
// action reserved for the target role.
func (r Role) CanActAs(target Role) bool {
	return r == target
}

// Principal is the identity resolved from a bearer credential. It is
// supplied per request and never persisted.
type Principal struct {
	ID    string
	Email string
	Role  Role
}

// Directory answers whether a principal's master record still exists.
// The store satisfies this.
type Directory interface {
	PrincipalExists(ctx context.Context, id string, role Role) (bool, error)
}

// Resolver turns an opaque bearer credential into a Principal. It fails
// closed: expired or malformed tokens, unknown roles, and principals
// whose record has since been removed all resolve to an error.
type Resolver struct {
	secret string
	dir    Directory
}

func NewResolver(secret string, dir Directory) *Resolver {
	return &Resolver{secret: secret, dir: dir}
}

func (r *Resolver) Resolve(ctx context.Context, credential string) (Principal, error) {
	raw := strings.TrimPrefix(credential, "Bearer ")
	if raw == "" {
		return Principal{}, ErrBadToken
	}
	claims, err := ParseToken(raw, r.secret)
	if err != nil {
		return Principal{}, err
	}
	if !claims.Role.Valid() {
		return Principal{}, ErrBadToken
	}
	exists, err := r.dir.PrincipalExists(ctx, claims.UserID, claims.Role)
	if err != nil {
		return Principal{}, fmt.Errorf("resolve principal: %w", err)
	}
	if !exists {
		return Principal{}, ErrBadToken
	}
	return Principal{ID: claims.UserID, Role: claims.Role}, nil
}
