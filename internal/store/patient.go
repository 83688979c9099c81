package store

import (
	"context"

	"clinic-management-api/internal/model"
)

func (s *Store) CreatePatient(ctx context.Context, p *model.Patient) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO patients (id, name, email, password_hash, phone, address)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.Name, p.Email, p.PasswordHash, p.Phone, p.Address,
	)
	return mapErr("create patient", err)
}

func (s *Store) GetPatient(ctx context.Context, id string) (*model.Patient, error) {
	p := &model.Patient{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, phone, address, created_at, updated_at
		 FROM patients WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.Phone, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapErr("get patient", err)
	}
	return p, nil
}

func (s *Store) PatientByEmail(ctx context.Context, email string) (*model.Patient, error) {
	p := &model.Patient{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, phone, address, created_at, updated_at
		 FROM patients WHERE email = $1`, email,
	).Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.Phone, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapErr("patient by email", err)
	}
	return p, nil
}

// PatientExists reports whether a patient is already registered under
// the given email or phone number.
func (s *Store) PatientExists(ctx context.Context, email, phone string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM patients WHERE email = $1 OR phone = $2)`,
		email, phone,
	).Scan(&exists)
	return exists, mapErr("patient exists", err)
}
