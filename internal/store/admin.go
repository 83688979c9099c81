package store

import (
	"context"

	"clinic-management-api/internal/model"
)

func (s *Store) AdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	a := &model.Admin{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at FROM admins WHERE username = $1`,
		username,
	).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		return nil, mapErr("admin by username", err)
	}
	return a, nil
}
