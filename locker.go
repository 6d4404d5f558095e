package rwlock

import "sync"

// Locker is the sync.RWMutex-shaped surface of RWLock. All methods act for
// the calling goroutine and panic with a UsageError on misuse.
type Locker interface {
	RLock()
	RUnlock()
	TryRLock() bool

	Lock()
	Unlock()
	TryLock() bool

	RLocker() sync.Locker
}

var _ Locker = (*RWLock)(nil)

// RLock locks rw for reading.
func (rw *RWLock) RLock() {
	rw.mustAcquire(rw.acquireRead, true)
}

// TryRLock tries to lock rw for reading and reports whether it succeeded.
func (rw *RWLock) TryRLock() bool {
	return rw.mustAcquire(rw.acquireRead, false)
}

// RUnlock undoes a single RLock call. It is the same as Unlock; both exist
// so RWLock can stand in for sync.RWMutex.
func (rw *RWLock) RUnlock() {
	rw.mustRelease()
}

// Lock locks rw for writing. It panics if the calling goroutine holds a
// read lock.
func (rw *RWLock) Lock() {
	rw.mustAcquire(rw.acquireWrite, true)
}

// TryLock tries to lock rw for writing and reports whether it succeeded.
func (rw *RWLock) TryLock() bool {
	return rw.mustAcquire(rw.acquireWrite, false)
}

// Unlock undoes a single Lock call.
func (rw *RWLock) Unlock() {
	rw.mustRelease()
}

func (rw *RWLock) mustAcquire(acquire func(Owner, bool) (bool, error), blocking bool) bool {
	ok, err := acquire(CurrentGoroutine(), blocking)
	if err != nil {
		panic(err)
	}
	return ok
}

func (rw *RWLock) mustRelease() {
	if err := rw.release(CurrentGoroutine()); err != nil {
		panic(err)
	}
}

// RLocker returns a Locker interface that implements
// the Lock and Unlock methods by calling rw.RLock and rw.RUnlock.
func (rw *RWLock) RLocker() sync.Locker {
	return (*rlocker)(rw)
}

type rlocker RWLock

func (r *rlocker) Lock()   { (*RWLock)(r).RLock() }
func (r *rlocker) Unlock() { (*RWLock)(r).RUnlock() }
