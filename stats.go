package rwlock

import "fmt"

// Stats is a snapshot of a lock's bookkeeping. It is stale as soon as it is
// returned and is meant for diagnostics and tests, not for deciding whether
// to acquire.
type Stats struct {
	// State is 0 when free, the number of read acquisitions when positive
	// and minus the write nesting depth when negative.
	State        int
	Acquisitions int // outstanding acquisitions over all owners
	Holders      int // distinct owners
	ReadWaiters  int
	WriteWaiters int
	Preference   Preference
}

// Mode returns the mode the lock is held in, or ModeUnset when it is free.
func (s Stats) Mode() Mode {
	switch {
	case s.State > 0:
		return Read
	case s.State < 0:
		return Write
	}
	return ModeUnset
}

func (s Stats) String() string {
	return fmt.Sprintf("<RWLock read_waiters: %d, write_waiters: %d, state: %d, preference: %s>",
		s.ReadWaiters, s.WriteWaiters, s.State, s.Preference)
}

// Stats returns a snapshot of rw.
func (rw *RWLock) Stats() Stats {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	s := Stats{
		State:        rw.state,
		Holders:      len(rw.owners),
		ReadWaiters:  rw.readWaiters,
		WriteWaiters: rw.writeWaiters,
		Preference:   rw.pref,
	}
	for _, n := range rw.owners {
		s.Acquisitions += n
	}
	return s
}

func (rw *RWLock) String() string {
	return rw.Stats().String()
}
