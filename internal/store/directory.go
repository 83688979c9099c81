package store

import (
	"context"
	"fmt"

	"clinic-management-api/internal/auth"
)

// PrincipalExists implements auth.Directory: the identity resolver
// confirms the subject's master record still exists for its role.
func (s *Store) PrincipalExists(ctx context.Context, id string, role auth.Role) (bool, error) {
	var q string
	switch role {
	case auth.RoleAdmin:
		q = `SELECT EXISTS(SELECT 1 FROM admins WHERE id = $1)`
	case auth.RoleDoctor:
		q = `SELECT EXISTS(SELECT 1 FROM doctors WHERE id = $1)`
	case auth.RolePatient:
		q = `SELECT EXISTS(SELECT 1 FROM patients WHERE id = $1)`
	default:
		return false, fmt.Errorf("principal exists: unknown role %q", role)
	}
	var exists bool
	err := s.pool.QueryRow(ctx, q, id).Scan(&exists)
	return exists, mapErr("principal exists", err)
}
