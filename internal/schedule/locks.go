package schedule

import "sync"

// doctorLocks serializes check-then-act booking sequences per doctor.
// Reads (availability, listings) never take these locks.
type doctorLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newDoctorLocks() *doctorLocks {
	return &doctorLocks{locks: make(map[string]*sync.Mutex)}
}

func (d *doctorLocks) lock(doctorID string) *sync.Mutex {
	d.mu.Lock()
	l, ok := d.locks[doctorID]
	if !ok {
		l = &sync.Mutex{}
		d.locks[doctorID] = l
	}
	d.mu.Unlock()
	l.Lock()
	return l
}
