package store

import (
	"context"
	"strconv"
	"time"

	"clinic-management-api/internal/model"
	"clinic-management-api/internal/schedule"
)

func (s *Store) SaveAppointment(ctx context.Context, a *model.Appointment) error {
	// the partial unique index on (doctor_id, start_time) for scheduled
	// rows turns a racing insert into a conflict error
	_, err := s.pool.Exec(ctx,
		`INSERT INTO appointments (id, doctor_id, patient_id, start_time, status)
		 VALUES ($1,$2,$3,$4,$5)`,
		a.ID, a.DoctorID, a.PatientID, a.StartTime, a.Status,
	)
	return mapErr("save appointment", err)
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	a := &model.Appointment{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, doctor_id, patient_id, start_time, status, created_at, updated_at
		 FROM appointments WHERE id = $1`, id,
	).Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.StartTime, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapErr("get appointment", err)
	}
	return a, nil
}

func (s *Store) FindByDoctorAndTimeRange(ctx context.Context, doctorID string, start, end time.Time) ([]model.Appointment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, doctor_id, patient_id, start_time, status, created_at, updated_at
		 FROM appointments
		 WHERE doctor_id = $1 AND start_time >= $2 AND start_time < $3
		 ORDER BY start_time`, doctorID, start, end,
	)
	if err != nil {
		return nil, mapErr("find by doctor and range", err)
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.StartTime, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, mapErr("find by doctor and range", err)
		}
		out = append(out, a)
	}
	return out, mapErr("find by doctor and range", rows.Err())
}

func (s *Store) FindByPatient(ctx context.Context, patientID string) ([]model.Appointment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, doctor_id, patient_id, start_time, status, created_at, updated_at
		 FROM appointments
		 WHERE patient_id = $1
		 ORDER BY start_time`, patientID,
	)
	if err != nil {
		return nil, mapErr("find by patient", err)
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.StartTime, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, mapErr("find by patient", err)
		}
		out = append(out, a)
	}
	return out, mapErr("find by patient", rows.Err())
}

// FindByPatientFiltered lists a patient's appointments filtered by
// status and, optionally, by a case-insensitive doctor-name fragment.
func (s *Store) FindByPatientFiltered(ctx context.Context, patientID string, status *model.AppointmentStatus, doctorName string) ([]model.Appointment, error) {
	q := `SELECT a.id, a.doctor_id, a.patient_id, a.start_time, a.status, a.created_at, a.updated_at
	      FROM appointments a
	      JOIN doctors d ON d.id = a.doctor_id
	      WHERE a.patient_id = $1`
	args := []any{patientID}

	if status != nil {
		args = append(args, *status)
		q += ` AND a.status = $2`
	}
	if doctorName != "" {
		args = append(args, "%"+doctorName+"%")
		q += ` AND d.name ILIKE $` + strconv.Itoa(len(args))
	}
	q += ` ORDER BY a.start_time`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, mapErr("find by patient filtered", err)
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.StartTime, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, mapErr("find by patient filtered", err)
		}
		out = append(out, a)
	}
	return out, mapErr("find by patient filtered", rows.Err())
}

// FindByDoctorDay lists a doctor's appointments on a calendar day,
// optionally filtered by a case-insensitive patient-name fragment.
func (s *Store) FindByDoctorDay(ctx context.Context, doctorID string, dayStart, dayEnd time.Time, patientName string) ([]model.Appointment, error) {
	q := `SELECT a.id, a.doctor_id, a.patient_id, a.start_time, a.status, a.created_at, a.updated_at
	      FROM appointments a
	      JOIN patients p ON p.id = a.patient_id
	      WHERE a.doctor_id = $1 AND a.start_time >= $2 AND a.start_time < $3`
	args := []any{doctorID, dayStart, dayEnd}
	if patientName != "" {
		args = append(args, "%"+patientName+"%")
		q += ` AND p.name ILIKE $4`
	}
	q += ` ORDER BY a.start_time`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, mapErr("find by doctor day", err)
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.StartTime, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, mapErr("find by doctor day", err)
		}
		out = append(out, a)
	}
	return out, mapErr("find by doctor day", rows.Err())
}

func (s *Store) UpdateAppointment(ctx context.Context, a *model.Appointment) error {
	ct, err := s.pool.Exec(ctx,
		`UPDATE appointments
		 SET doctor_id=$1, patient_id=$2, start_time=$3, status=$4, updated_at=NOW()
		 WHERE id=$5`,
		a.DoctorID, a.PatientID, a.StartTime, a.Status, a.ID,
	)
	if err != nil {
		return mapErr("update appointment", err)
	}
	if ct.RowsAffected() == 0 {
		return mapErr("update appointment", schedule.ErrNotFound)
	}
	return nil
}

func (s *Store) UpdateAppointmentStatus(ctx context.Context, id string, status model.AppointmentStatus) error {
	ct, err := s.pool.Exec(ctx,
		`UPDATE appointments SET status=$1, updated_at=NOW() WHERE id=$2`,
		status, id,
	)
	if err != nil {
		return mapErr("update status", err)
	}
	if ct.RowsAffected() == 0 {
		return mapErr("update status", schedule.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM appointments WHERE id=$1`, id)
	if err != nil {
		return mapErr("delete appointment", err)
	}
	if ct.RowsAffected() == 0 {
		return mapErr("delete appointment", schedule.ErrNotFound)
	}
	return nil
}
