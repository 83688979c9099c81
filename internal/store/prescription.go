package store

import (
	"context"

	"clinic-management-api/internal/model"
)

func (s *Store) SavePrescription(ctx context.Context, p *model.Prescription) error {
	// unique index on appointment_id keeps one prescription per encounter
	_, err := s.pool.Exec(ctx,
		`INSERT INTO prescriptions (id, appointment_id, patient_name, medication, dosage, doctor_notes)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.AppointmentID, p.PatientName, p.Medication, p.Dosage, p.DoctorNotes,
	)
	return mapErr("save prescription", err)
}

func (s *Store) PrescriptionByAppointment(ctx context.Context, appointmentID string) (*model.Prescription, error) {
	p := &model.Prescription{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, appointment_id, patient_name, medication, dosage, doctor_notes, created_at
		 FROM prescriptions WHERE appointment_id = $1`, appointmentID,
	).Scan(&p.ID, &p.AppointmentID, &p.PatientName, &p.Medication, &p.Dosage, &p.DoctorNotes, &p.CreatedAt)
	if err != nil {
		return nil, mapErr("prescription by appointment", err)
	}
	return p, nil
}
