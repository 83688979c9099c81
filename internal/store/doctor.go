package store

import (
	"context"
	"strconv"

	"clinic-management-api/internal/model"
	"clinic-management-api/internal/schedule"
)

func (s *Store) CreateDoctor(ctx context.Context, d *model.Doctor) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return mapErr("create doctor", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO doctors (id, name, specialty, email, password_hash, phone)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		d.ID, d.Name, d.Specialty, d.Email, d.PasswordHash, d.Phone,
	)
	if err != nil {
		return mapErr("create doctor", err)
	}
	for _, slot := range d.AvailableTimes {
		_, err = tx.Exec(ctx,
			`INSERT INTO doctor_available_times (doctor_id, time_slot) VALUES ($1,$2)`,
			d.ID, slot,
		)
		if err != nil {
			return mapErr("create doctor", err)
		}
	}
	return mapErr("create doctor", tx.Commit(ctx))
}

func (s *Store) GetDoctor(ctx context.Context, id string) (*model.Doctor, error) {
	d := &model.Doctor{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, specialty, email, password_hash, phone, created_at, updated_at
		 FROM doctors WHERE id = $1`, id,
	).Scan(&d.ID, &d.Name, &d.Specialty, &d.Email, &d.PasswordHash, &d.Phone, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, mapErr("get doctor", err)
	}
	if err := s.loadAvailableTimes(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Store) DoctorByEmail(ctx context.Context, email string) (*model.Doctor, error) {
	d := &model.Doctor{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, specialty, email, password_hash, phone, created_at, updated_at
		 FROM doctors WHERE email = $1`, email,
	).Scan(&d.ID, &d.Name, &d.Specialty, &d.Email, &d.PasswordHash, &d.Phone, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, mapErr("doctor by email", err)
	}
	return d, nil
}

func (s *Store) loadAvailableTimes(ctx context.Context, d *model.Doctor) error {
	rows, err := s.pool.Query(ctx,
		`SELECT time_slot FROM doctor_available_times WHERE doctor_id = $1 ORDER BY time_slot`, d.ID)
	if err != nil {
		return mapErr("load available times", err)
	}
	defer rows.Close()

	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return mapErr("load available times", err)
		}
		d.AvailableTimes = append(d.AvailableTimes, slot)
	}
	return mapErr("load available times", rows.Err())
}

// FilterDoctors matches by optional case-insensitive name fragment,
// specialty, and declared slot window (exact "HH:MM-HH:MM" membership).
func (s *Store) FilterDoctors(ctx context.Context, name, specialty, slot string) ([]model.Doctor, error) {
	q := `SELECT id, name, specialty, email, password_hash, phone, created_at, updated_at
	      FROM doctors WHERE 1=1`
	var args []any
	if name != "" {
		args = append(args, "%"+name+"%")
		q += ` AND name ILIKE $1`
	}
	if specialty != "" {
		args = append(args, specialty)
		q += ` AND LOWER(specialty) = LOWER($` + strconv.Itoa(len(args)) + `)`
	}
	q += ` ORDER BY name`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, mapErr("filter doctors", err)
	}
	defer rows.Close()

	var out []model.Doctor
	for rows.Next() {
		var d model.Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Specialty, &d.Email, &d.PasswordHash, &d.Phone, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, mapErr("filter doctors", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("filter doctors", err)
	}

	for i := range out {
		if err := s.loadAvailableTimes(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	if slot == "" {
		return out, nil
	}
	filtered := out[:0]
	for _, d := range out {
		for _, w := range d.AvailableTimes {
			if w == slot {
				filtered = append(filtered, d)
				break
			}
		}
	}
	return filtered, nil
}

func (s *Store) UpdateDoctor(ctx context.Context, d *model.Doctor) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return mapErr("update doctor", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx,
		`UPDATE doctors SET name=$1, specialty=$2, email=$3, phone=$4, updated_at=NOW()
		 WHERE id=$5`,
		d.Name, d.Specialty, d.Email, d.Phone, d.ID,
	)
	if err != nil {
		return mapErr("update doctor", err)
	}
	if ct.RowsAffected() == 0 {
		return mapErr("update doctor", schedule.ErrNotFound)
	}

	// replace declared windows
	if _, err := tx.Exec(ctx, `DELETE FROM doctor_available_times WHERE doctor_id=$1`, d.ID); err != nil {
		return mapErr("update doctor", err)
	}
	for _, slot := range d.AvailableTimes {
		if _, err := tx.Exec(ctx,
			`INSERT INTO doctor_available_times (doctor_id, time_slot) VALUES ($1,$2)`,
			d.ID, slot,
		); err != nil {
			return mapErr("update doctor", err)
		}
	}
	return mapErr("update doctor", tx.Commit(ctx))
}

// DeleteDoctor removes the doctor and, through ON DELETE CASCADE, the
// doctor's appointments and declared windows.
func (s *Store) DeleteDoctor(ctx context.Context, id string) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM doctors WHERE id=$1`, id)
	if err != nil {
		return mapErr("delete doctor", err)
	}
	if ct.RowsAffected() == 0 {
		return mapErr("delete doctor", schedule.ErrNotFound)
	}
	return nil
}
