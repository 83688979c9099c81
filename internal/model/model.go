package model

import "time"

// SlotDuration is the fixed appointment length. End times are derived
// from it and never persisted.
const SlotDuration = 60 * time.Minute

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
)

func (s AppointmentStatus) Valid() bool {
	return s == StatusScheduled || s == StatusCompleted
}

type Admin struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

type Doctor struct {
	ID           string
	Name         string
	Specialty    string
	Email        string
	PasswordHash string
	Phone        string
	// AvailableTimes holds the declared recurring windows in their
	// external "HH:MM-HH:MM" form. Parsed at the schedule boundary.
	AvailableTimes []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Patient struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	Address      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Appointment struct {
	ID        string
	DoctorID  string
	PatientID string
	StartTime time.Time
	Status    AppointmentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *Appointment) EndTime() time.Time {
	return a.StartTime.Add(SlotDuration)
}

type Prescription struct {
	ID            string
	AppointmentID string
	PatientName   string
	Medication    string
	Dosage        string
	DoctorNotes   string
	CreatedAt     time.Time
}
