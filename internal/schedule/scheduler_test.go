package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clinic-management-api/internal/auth"
	"clinic-management-api/internal/model"
)

// fakeStore is an in-memory AppointmentStore that honours the same
// contract as the postgres store, including the uniqueness constraint
// on (doctor, start) for scheduled rows.
type fakeStore struct {
	mu    sync.Mutex
	appts map[string]model.Appointment
	err   error // injected failure for every call
}

func newFakeStore() *fakeStore {
	return &fakeStore{appts: make(map[string]model.Appointment)}
}

func (f *fakeStore) FindByDoctorAndTimeRange(_ context.Context, doctorID string, start, end time.Time) ([]model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Appointment
	for _, a := range f.appts {
		if a.DoctorID == doctorID && !a.StartTime.Before(start) && a.StartTime.Before(end) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) FindByPatient(_ context.Context, patientID string) ([]model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Appointment
	for _, a := range f.appts {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) GetAppointment(_ context.Context, id string) (*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (f *fakeStore) SaveAppointment(_ context.Context, a *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, other := range f.appts {
		if other.DoctorID == a.DoctorID && other.StartTime.Equal(a.StartTime) &&
			other.Status == model.StatusScheduled && a.Status == model.StatusScheduled {
			return fmt.Errorf("save appointment: %w", ErrConflict)
		}
	}
	f.appts[a.ID] = *a
	return nil
}

func (f *fakeStore) UpdateAppointment(_ context.Context, a *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.appts[a.ID]; !ok {
		return ErrNotFound
	}
	f.appts[a.ID] = *a
	return nil
}

func (f *fakeStore) DeleteAppointment(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.appts[id]; !ok {
		return ErrNotFound
	}
	delete(f.appts, id)
	return nil
}

func (f *fakeStore) UpdateAppointmentStatus(_ context.Context, id string, status model.AppointmentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	a, ok := f.appts[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	f.appts[id] = a
	return nil
}

func (f *fakeStore) get(id string) (model.Appointment, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	return a, ok
}

type fakeCatalog struct {
	doctors map[string]*model.Doctor
}

func (f *fakeCatalog) GetDoctor(_ context.Context, id string) (*model.Doctor, error) {
	d, ok := f.doctors[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

var (
	testNow  = time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	testDate = time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	patientP = auth.Principal{ID: "patient-p", Role: auth.RolePatient}
	patientQ = auth.Principal{ID: "patient-q", Role: auth.RolePatient}
	doctorD  = auth.Principal{ID: "doc-1", Role: auth.RoleDoctor}
)

func newTestScheduler(windows ...string) (*Scheduler, *fakeStore) {
	st := newFakeStore()
	cat := &fakeCatalog{doctors: map[string]*model.Doctor{
		"doc-1": {ID: "doc-1", Name: "Dr. Adams", AvailableTimes: windows},
		"doc-2": {ID: "doc-2", Name: "Dr. Baker", AvailableTimes: windows},
	}}
	s := New(st, cat, zerolog.Nop())
	s.now = func() time.Time { return testNow }
	return s, st
}

func slotStrings(slots []TimeOfDay) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.String()
	}
	return out
}

func at(hour int) time.Time {
	return time.Date(2025, 9, 1, hour, 0, 0, 0, time.UTC)
}

// ----- availability -----

func TestAvailabilityNoReservations(t *testing.T) {
	s, _ := newTestScheduler("09:00-10:00", "10:00-11:00")

	slots, err := s.Availability(context.Background(), "doc-1", testDate)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	got := slotStrings(slots)
	if len(got) != 2 || got[0] != "09:00" || got[1] != "10:00" {
		t.Errorf("got %v, want [09:00 10:00]", got)
	}
}

func TestAvailabilityUnknownDoctor(t *testing.T) {
	s, _ := newTestScheduler("09:00-10:00")

	_, err := s.Availability(context.Background(), "nobody", testDate)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAvailabilityEmptyCatalog(t *testing.T) {
	s, _ := newTestScheduler()

	slots, err := s.Availability(context.Background(), "doc-1", testDate)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("expected empty slot list, got %v", slots)
	}
}

func TestAvailabilitySkipsMalformedWindows(t *testing.T) {
	s, _ := newTestScheduler("garbage", "10:00-11:00", "", "09:00-10:00")

	slots, err := s.Availability(context.Background(), "doc-1", testDate)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	got := slotStrings(slots)
	if len(got) != 2 || got[0] != "09:00" || got[1] != "10:00" {
		t.Errorf("got %v, want [09:00 10:00]", got)
	}
}

func TestAvailabilityDedupesOverlappingWindows(t *testing.T) {
	s, _ := newTestScheduler("09:00-10:00", "09:00-11:00")

	slots, err := s.Availability(context.Background(), "doc-1", testDate)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	got := slotStrings(slots)
	if len(got) != 1 || got[0] != "09:00" {
		t.Errorf("got %v, want [09:00]", got)
	}
}

func TestAvailabilityExcludesBookedSlot(t *testing.T) {
	s, _ := newTestScheduler("09:00-10:00", "10:00-11:00")

	if _, err := s.Book(context.Background(), patientP, "doc-1", at(9)); err != nil {
		t.Fatalf("book: %v", err)
	}
	slots, err := s.Availability(context.Background(), "doc-1", testDate)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	got := slotStrings(slots)
	if len(got) != 1 || got[0] != "10:00" {
		t.Errorf("got %v, want [10:00]", got)
	}
}

func TestAvailabilityIgnoresCompleted(t *testing.T) {
	s, st := newTestScheduler("09:00-10:00")

	id, err := s.Book(context.Background(), patientP, "doc-1", at(9))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if err := s.Complete(context.Background(), id); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if a, _ := st.get(id); a.Status != model.StatusCompleted {
		t.Fatalf("expected completed, got %s", a.Status)
	}

	slots, err := s.Availability(context.Background(), "doc-1", testDate)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	got := slotStrings(slots)
	if len(got) != 1 || got[0] != "09:00" {
		t.Errorf("completed appointment should not block: got %v", got)
	}
}

func TestAvailabilityStoreFailure(t *testing.T) {
	s, st := newTestScheduler("09:00-10:00")
	st.err = errors.New("connection reset")

	_, err := s.Availability(context.Background(), "doc-1", testDate)
	if !errors.Is(err, ErrInternal) {
		t.Errorf("expected ErrInternal, got %v", err)
	}
}

// ----- booking -----

func TestBook(t *testing.T) {
	s, st := newTestScheduler("09:00-10:00")

	id, err := s.Book(context.Background(), patientP, "doc-1", at(9))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	a, ok := st.get(id)
	if !ok {
		t.Fatal("appointment not stored")
	}
	if a.PatientID != patientP.ID || a.DoctorID != "doc-1" || a.Status != model.StatusScheduled {
		t.Errorf("unexpected record: %+v", a)
	}
	if !a.EndTime().Equal(at(10)) {
		t.Errorf("derived end: got %v, want %v", a.EndTime(), at(10))
	}
}

func TestBookValidation(t *testing.T) {
	s, _ := newTestScheduler("09:00-10:00")

	tests := []struct {
		name    string
		p       auth.Principal
		doctor  string
		start   time.Time
		wantErr error
	}{
		{"non-patient principal", doctorD, "doc-1", at(9), ErrForbidden},
		{"admin principal", auth.Principal{ID: "a", Role: auth.RoleAdmin}, "doc-1", at(9), ErrForbidden},
		{"zero time", patientP, "doc-1", time.Time{}, ErrInvalidInput},
		{"past time", patientP, "doc-1", testNow.Add(-time.Hour), ErrInvalidInput},
		{"time equal to now", patientP, "doc-1", testNow, ErrInvalidInput},
		{"unknown doctor", patientP, "nobody", at(9), ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Book(context.Background(), tt.p, tt.doctor, tt.start)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBookConflict(t *testing.T) {
	s, _ := newTestScheduler("09:00-10:00")

	if _, err := s.Book(context.Background(), patientP, "doc-1", at(9)); err != nil {
		t.Fatalf("first book: %v", err)
	}
	_, err := s.Book(context.Background(), patientQ, "doc-1", at(9))
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	// overlapping but not identical start also conflicts
	_, err = s.Book(context.Background(), patientQ, "doc-1", at(9).Add(30*time.Minute))
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for partial overlap, got %v", err)
	}

	// adjacent slot is free (end exclusive)
	if _, err := s.Book(context.Background(), patientQ, "doc-1", at(10)); err != nil {
		t.Errorf("adjacent slot should not conflict: %v", err)
	}
}

func TestBookDifferentDoctorsNoConflict(t *testing.T) {
	s, _ := newTestScheduler("09:00-10:00")

	if _, err := s.Book(context.Background(), patientP, "doc-1", at(9)); err != nil {
		t.Fatalf("doc-1 book: %v", err)
	}
	if _, err := s.Book(context.Background(), patientQ, "doc-2", at(9)); err != nil {
		t.Errorf("same slot on another doctor should succeed: %v", err)
	}
}

func TestConcurrentBooking(t *testing.T) {
	s, _ := newTestScheduler("09:00-10:00")

	const n = 10
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := auth.Principal{ID: uuid.New().String(), Role: auth.RolePatient}
			_, err := s.Book(context.Background(), p, "doc-1", at(9))
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	successes, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("expected exactly 1 success, got %d", successes)
	}
	if conflicts != n-1 {
		t.Errorf("expected %d conflicts, got %d", n-1, conflicts)
	}
}

// ----- reschedule -----

func TestRescheduleToOwnSlotIsIdempotent(t *testing.T) {
	s, _ := newTestScheduler("09:00-10:00", "10:00-11:00")

	id, err := s.Book(context.Background(), patientP, "doc-1", at(9))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	start := at(9)
	doc := "doc-1"
	if err := s.Reschedule(context.Background(), patientP, id, &doc, &start, nil); err != nil {
		t.Errorf("rescheduling to own slot must not conflict: %v", err)
	}
}

func TestRescheduleMovesSlot(t *testing.T) {
	s, st := newTestScheduler("09:00-10:00", "10:00-11:00")

	id, err := s.Book(context.Background(), patientP, "doc-1", at(9))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	start := at(10)
	if err := s.Reschedule(context.Background(), patientP, id, nil, &start, nil); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	a, _ := st.get(id)
	if !a.StartTime.Equal(at(10)) {
		t.Errorf("start not moved: %v", a.StartTime)
	}
	if a.DoctorID != "doc-1" {
		t.Errorf("doctor changed unexpectedly: %s", a.DoctorID)
	}

	slots, _ := s.Availability(context.Background(), "doc-1", testDate)
	got := slotStrings(slots)
	if len(got) != 1 || got[0] != "09:00" {
		t.Errorf("after move, availability got %v, want [09:00]", got)
	}
}

func TestRescheduleConflict(t *testing.T) {
	s, st := newTestScheduler("09:00-10:00", "10:00-11:00")

	id, err := s.Book(context.Background(), patientP, "doc-1", at(9))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := s.Book(context.Background(), patientQ, "doc-1", at(10)); err != nil {
		t.Fatalf("second book: %v", err)
	}

	start := at(10)
	err = s.Reschedule(context.Background(), patientP, id, nil, &start, nil)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
	a, _ := st.get(id)
	if !a.StartTime.Equal(at(9)) {
		t.Errorf("record mutated on conflict: %v", a.StartTime)
	}
}

func TestRescheduleToOtherDoctor(t *testing.T) {
	s, st := newTestScheduler("09:00-10:00")

	id, err := s.Book(context.Background(), patientP, "doc-1", at(9))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	doc := "doc-2"
	if err := s.Reschedule(context.Background(), patientP, id, &doc, nil, nil); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	a, _ := st.get(id)
	if a.DoctorID != "doc-2" {
		t.Errorf("doctor not changed: %s", a.DoctorID)
	}
	if !a.StartTime.Equal(at(9)) {
		t.Errorf("start changed unexpectedly: %v", a.StartTime)
	}
}

func TestRescheduleUnknownTargetDoctor(t *testing.T) {
	s, _ := newTestScheduler("09:00-10:00")

	id, err := s.Book(context.Background(), patientP, "doc-1", at(9))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	doc := "nobody"
	err = s.Reschedule(context.Background(), patientP, id, &doc, nil, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRescheduleMissingAppointment(t *testing.T) {
	s, _ := newTestScheduler("09:00-10:00")

	err := s.Reschedule(context.Background(), patientP, uuid.New().String(), nil, nil, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRescheduleOwnership(t *testing.T) {
	s, st := newTestScheduler("09:00-10:00", "10:00-11:00")

	id, err := s.Book(context.Background(), patientP, "doc-1", at(9))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	start := at(10)
	err = s.Reschedule(context.Background(), patientQ, id, nil, &start, nil)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	a, _ := st.get(id)
	if !a.StartTime.Equal(at(9)) {
		t.Errorf("record mutated by non-owner: %v", a.StartTime)
	}
}

func TestRescheduleInvalidStatus(t *testing.T) {
	s, _ := newTestScheduler("09:00-10:00")

	id, err := s.Book(context.Background(), patientP, "doc-1", at(9))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	bad := model.AppointmentStatus("cancelled")
	err = s.Reschedule(context.Background(), patientP, id, nil, nil, &bad)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

// ----- cancel -----

func TestCancel(t *testing.T) {
	s, st := newTestScheduler("09:00-10:00")

	id, err := s.Book(context.Background(), patientP, "doc-1", at(9))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if err := s.Cancel(context.Background(), patientP, id); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, ok := st.get(id); ok {
		t.Error("record still present after cancel")
	}

	// slot is bookable again
	if _, err := s.Book(context.Background(), patientQ, "doc-1", at(9)); err != nil {
		t.Errorf("slot should be free after cancel: %v", err)
	}
}

func TestCancelOwnership(t *testing.T) {
	s, st := newTestScheduler("09:00-10:00")

	id, err := s.Book(context.Background(), patientP, "doc-1", at(9))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	err = s.Cancel(context.Background(), patientQ, id)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if _, ok := st.get(id); !ok {
		t.Error("record deleted by non-owner")
	}
}

func TestCancelMissing(t *testing.T) {
	s, _ := newTestScheduler("09:00-10:00")

	err := s.Cancel(context.Background(), patientP, uuid.New().String())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// ----- complete -----

func TestCompleteIdempotent(t *testing.T) {
	s, st := newTestScheduler("09:00-10:00")

	id, err := s.Book(context.Background(), patientP, "doc-1", at(9))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if err := s.Complete(context.Background(), id); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := s.Complete(context.Background(), id); err != nil {
		t.Fatalf("re-complete should be a no-op: %v", err)
	}
	a, _ := st.get(id)
	if a.Status != model.StatusCompleted {
		t.Errorf("status: got %s", a.Status)
	}
}

func TestCompleteMissing(t *testing.T) {
	s, _ := newTestScheduler("09:00-10:00")

	err := s.Complete(context.Background(), uuid.New().String())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// ----- the documented end-to-end scenario -----

func TestExampleScenario(t *testing.T) {
	s, _ := newTestScheduler("09:00-10:00", "10:00-11:00")
	ctx := context.Background()

	slots, err := s.Availability(ctx, "doc-1", testDate)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if got := slotStrings(slots); len(got) != 2 || got[0] != "09:00" || got[1] != "10:00" {
		t.Fatalf("initial availability: %v", got)
	}

	id, err := s.Book(ctx, patientP, "doc-1", at(9))
	if err != nil {
		t.Fatalf("book 09:00: %v", err)
	}

	slots, _ = s.Availability(ctx, "doc-1", testDate)
	if got := slotStrings(slots); len(got) != 1 || got[0] != "10:00" {
		t.Fatalf("availability after booking: %v", got)
	}

	start := at(10)
	if err := s.Reschedule(ctx, patientP, id, nil, &start, nil); err != nil {
		t.Fatalf("reschedule to 10:00: %v", err)
	}

	_, err = s.Book(ctx, patientQ, "doc-1", at(10))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Q booking 10:00: expected ErrConflict, got %v", err)
	}
}
