package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clinic-management-api/internal/auth"
	"clinic-management-api/internal/model"
)

// AppointmentStore is the durable keyed storage the scheduler works
// against. Implementations report a missing record as ErrNotFound and a
// uniqueness violation on insert/update as ErrConflict.
type AppointmentStore interface {
	FindByDoctorAndTimeRange(ctx context.Context, doctorID string, start, end time.Time) ([]model.Appointment, error)
	FindByPatient(ctx context.Context, patientID string) ([]model.Appointment, error)
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	SaveAppointment(ctx context.Context, a *model.Appointment) error
	UpdateAppointment(ctx context.Context, a *model.Appointment) error
	DeleteAppointment(ctx context.Context, id string) error
	UpdateAppointmentStatus(ctx context.Context, id string, status model.AppointmentStatus) error
}

// DoctorCatalog resolves doctor records and their declared availability
// windows. Implementations report a missing doctor as ErrNotFound.
type DoctorCatalog interface {
	GetDoctor(ctx context.Context, id string) (*model.Doctor, error)
}

// Scheduler owns the appointment lifecycle: availability computation,
// conflict-guarded booking, ownership-gated reschedule/cancel, and
// externally triggered completion.
//
// Booking and rescheduling are check-then-act sequences; the scheduler
// serializes them per doctor, and the store's uniqueness constraint on
// (doctor_id, start_time) backstops anything that slips past.
type Scheduler struct {
	appts   AppointmentStore
	doctors DoctorCatalog
	locks   *doctorLocks
	log     zerolog.Logger
	now     func() time.Time
}

func New(appts AppointmentStore, doctors DoctorCatalog, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		appts:   appts,
		doctors: doctors,
		locks:   newDoctorLocks(),
		log:     log,
		now:     time.Now,
	}
}

// Availability returns the bookable slot start times for a doctor on a
// calendar date: the declared window starts minus the starts already
// reserved by scheduled appointments, deduplicated and sorted.
func (s *Scheduler) Availability(ctx context.Context, doctorID string, date time.Time) ([]TimeOfDay, error) {
	doc, err := s.doctors.GetDoctor(ctx, doctorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("doctor %s: %w", doctorID, ErrNotFound)
		}
		return nil, fmt.Errorf("%w: load doctor: %v", ErrInternal, err)
	}

	windows := ParseWindows(doc.AvailableTimes)
	if len(windows) == 0 {
		return []TimeOfDay{}, nil
	}

	y, m, d := date.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	appts, err := s.appts.FindByDoctorAndTimeRange(ctx, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: load reservations: %v", ErrInternal, err)
	}

	booked := make(map[TimeOfDay]bool, len(appts))
	for i := range appts {
		if appts[i].Status != model.StatusScheduled {
			continue
		}
		st := appts[i].StartTime
		booked[TimeOfDay(st.Hour()*60+st.Minute())] = true
	}

	// windows are sorted and deduped, so the result is too
	slots := make([]TimeOfDay, 0, len(windows))
	for _, w := range windows {
		if booked[w.Start] {
			continue
		}
		if n := len(slots); n > 0 && slots[n-1] == w.Start {
			continue
		}
		slots = append(slots, w.Start)
	}
	return slots, nil
}

// slotFree reports whether [start, end) is free for the doctor,
// ignoring excludeID. True interval-overlap math, so the fixed slot
// duration is not load-bearing here.
func (s *Scheduler) slotFree(ctx context.Context, doctorID string, start, end time.Time, excludeID string) (bool, error) {
	appts, err := s.appts.FindByDoctorAndTimeRange(ctx, doctorID, start.Add(-model.SlotDuration), end)
	if err != nil {
		return false, fmt.Errorf("%w: load reservations: %v", ErrInternal, err)
	}
	for i := range appts {
		a := &appts[i]
		if a.ID == excludeID || a.Status != model.StatusScheduled {
			continue
		}
		if a.StartTime.Before(end) && a.EndTime().After(start) {
			return false, nil
		}
	}
	return true, nil
}

// Book creates a scheduled appointment for the calling patient.
func (s *Scheduler) Book(ctx context.Context, p auth.Principal, doctorID string, start time.Time) (string, error) {
	if !p.Role.CanActAs(auth.RolePatient) {
		return "", fmt.Errorf("booking requires a patient: %w", ErrForbidden)
	}
	start = start.Truncate(time.Minute)
	if start.IsZero() || !start.After(s.now()) {
		return "", fmt.Errorf("%w: start time must be in the future", ErrInvalidInput)
	}
	if _, err := s.doctors.GetDoctor(ctx, doctorID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("doctor %s: %w", doctorID, ErrNotFound)
		}
		return "", fmt.Errorf("%w: load doctor: %v", ErrInternal, err)
	}

	l := s.locks.lock(doctorID)
	defer l.Unlock()

	free, err := s.slotFree(ctx, doctorID, start, start.Add(model.SlotDuration), "")
	if err != nil {
		return "", err
	}
	if !free {
		return "", ErrConflict
	}

	a := &model.Appointment{
		ID:        uuid.New().String(),
		DoctorID:  doctorID,
		PatientID: p.ID,
		StartTime: start,
		Status:    model.StatusScheduled,
	}
	if err := s.appts.SaveAppointment(ctx, a); err != nil {
		if errors.Is(err, ErrConflict) {
			// store constraint caught a racing writer
			return "", ErrConflict
		}
		return "", fmt.Errorf("%w: save appointment: %v", ErrInternal, err)
	}

	s.log.Info().Str("appointment_id", a.ID).Str("doctor_id", doctorID).
		Time("start", start).Msg("appointment booked")
	return a.ID, nil
}

// Reschedule moves an appointment to a new doctor, start time and/or
// status. Unsupplied fields keep their current values, so rescheduling
// to the same slot is an idempotent success.
func (s *Scheduler) Reschedule(ctx context.Context, p auth.Principal, apptID string, newDoctorID *string, newStart *time.Time, newStatus *model.AppointmentStatus) error {
	if !p.Role.CanActAs(auth.RolePatient) {
		return fmt.Errorf("rescheduling requires a patient: %w", ErrForbidden)
	}
	a, err := s.appts.GetAppointment(ctx, apptID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("appointment %s: %w", apptID, ErrNotFound)
		}
		return fmt.Errorf("%w: load appointment: %v", ErrInternal, err)
	}
	if a.PatientID != p.ID {
		return fmt.Errorf("appointment %s is not owned by caller: %w", apptID, ErrForbidden)
	}
	if newStatus != nil && !newStatus.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalidInput, *newStatus)
	}

	targetDoctor := a.DoctorID
	if newDoctorID != nil {
		targetDoctor = *newDoctorID
		if _, err := s.doctors.GetDoctor(ctx, targetDoctor); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("doctor %s: %w", targetDoctor, ErrNotFound)
			}
			return fmt.Errorf("%w: load doctor: %v", ErrInternal, err)
		}
	}
	targetStart := a.StartTime
	if newStart != nil {
		targetStart = newStart.Truncate(time.Minute)
	}
	if targetStart.IsZero() {
		return fmt.Errorf("%w: appointment time is required", ErrInvalidInput)
	}

	l := s.locks.lock(targetDoctor)
	defer l.Unlock()

	free, err := s.slotFree(ctx, targetDoctor, targetStart, targetStart.Add(model.SlotDuration), a.ID)
	if err != nil {
		return err
	}
	if !free {
		return ErrConflict
	}

	a.DoctorID = targetDoctor
	a.StartTime = targetStart
	if newStatus != nil {
		a.Status = *newStatus
	}
	if err := s.appts.UpdateAppointment(ctx, a); err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrConflict
		}
		return fmt.Errorf("%w: update appointment: %v", ErrInternal, err)
	}

	s.log.Info().Str("appointment_id", a.ID).Str("doctor_id", targetDoctor).
		Time("start", targetStart).Msg("appointment rescheduled")
	return nil
}

// Cancel removes an appointment owned by the calling patient.
func (s *Scheduler) Cancel(ctx context.Context, p auth.Principal, apptID string) error {
	if !p.Role.CanActAs(auth.RolePatient) {
		return fmt.Errorf("cancellation requires a patient: %w", ErrForbidden)
	}
	a, err := s.appts.GetAppointment(ctx, apptID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("appointment %s: %w", apptID, ErrNotFound)
		}
		return fmt.Errorf("%w: load appointment: %v", ErrInternal, err)
	}
	if a.PatientID != p.ID {
		return fmt.Errorf("appointment %s is not owned by caller: %w", apptID, ErrForbidden)
	}
	if err := s.appts.DeleteAppointment(ctx, apptID); err != nil {
		return fmt.Errorf("%w: delete appointment: %v", ErrInternal, err)
	}
	s.log.Info().Str("appointment_id", apptID).Msg("appointment cancelled")
	return nil
}

// Complete marks an appointment completed. Invoked by the encounter
// workflow when a clinical artifact (a prescription) is finalized, so
// there is no ownership gate. Re-invoking is a no-op in effect.
func (s *Scheduler) Complete(ctx context.Context, apptID string) error {
	if err := s.appts.UpdateAppointmentStatus(ctx, apptID, model.StatusCompleted); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("appointment %s: %w", apptID, ErrNotFound)
		}
		return fmt.Errorf("%w: update status: %v", ErrInternal, err)
	}
	return nil
}
