package rwlock

import (
	"sync"

	"github.com/pkg/errors"
)

// Mode selects read or write access for scoped acquisition.
type Mode int

const (
	// ModeUnset is the zero Mode. Scoped acquisition rejects it.
	ModeUnset Mode = iota
	Read
	Write
)

func (m Mode) String() string {
	switch m {
	case Read:
		return "read"
	case Write:
		return "write"
	}
	return "unset"
}

// Guard is a held acquisition returned by Acquire. It remembers its owner,
// so it may be released from any goroutine.
type Guard struct {
	rw    *RWLock
	owner Owner
	mode  Mode

	once sync.Once
	err  error
}

// Mode reports how the guard holds the lock.
func (g *Guard) Mode() Mode { return g.mode }

// Release gives the acquisition back. Only the first call releases; later
// calls return the first call's result.
func (g *Guard) Release() error {
	g.once.Do(func() { g.err = g.rw.release(g.owner) })
	return g.err
}

// Acquire blocks until the calling goroutine holds rw in the given mode and
// returns a guard that releases it. The mode is per call: concurrent callers
// may ask for different modes on the same lock.
func (rw *RWLock) Acquire(mode Mode) (*Guard, error) {
	return rw.acquire(CurrentGoroutine(), mode)
}

// Do runs fn while the calling goroutine holds rw in the given mode. The
// lock is released however fn exits, including by panic. fn's error is
// returned; a release error is returned only if fn succeeded.
func (rw *RWLock) Do(mode Mode, fn func() error) error {
	return rw.do(CurrentGoroutine(), mode, fn)
}

func (rw *RWLock) acquire(me Owner, mode Mode) (*Guard, error) {
	var acquire func(Owner, bool) (bool, error)
	switch mode {
	case Read:
		acquire = rw.acquireRead
	case Write:
		acquire = rw.acquireWrite
	default:
		return nil, errors.WithStack(ErrInvalidMode)
	}
	if _, err := acquire(me, true); err != nil {
		return nil, err
	}
	return &Guard{rw: rw, owner: me, mode: mode}, nil
}

func (rw *RWLock) do(me Owner, mode Mode, fn func() error) (err error) {
	g, err := rw.acquire(me, mode)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := g.Release(); err == nil {
			err = rerr
		}
	}()
	return fn()
}

// Handle performs lock operations on behalf of a fixed Owner instead of the
// calling goroutine.
type Handle struct {
	rw    *RWLock
	owner Owner
}

// As returns a Handle acting for o.
func (rw *RWLock) As(o Owner) Handle {
	return Handle{rw: rw, owner: o}
}

// Owner returns the owner h acts for.
func (h Handle) Owner() Owner { return h.owner }

// AcquireRead is RWLock.AcquireRead for h's owner.
func (h Handle) AcquireRead(blocking bool) (bool, error) {
	return h.rw.acquireRead(h.owner, blocking)
}

// AcquireWrite is RWLock.AcquireWrite for h's owner.
func (h Handle) AcquireWrite(blocking bool) (bool, error) {
	return h.rw.acquireWrite(h.owner, blocking)
}

// Release is RWLock.Release for h's owner.
func (h Handle) Release() error {
	return h.rw.release(h.owner)
}

// Acquire is RWLock.Acquire for h's owner.
func (h Handle) Acquire(mode Mode) (*Guard, error) {
	return h.rw.acquire(h.owner, mode)
}

// Do is RWLock.Do for h's owner.
func (h Handle) Do(mode Mode, fn func() error) error {
	return h.rw.do(h.owner, mode, fn)
}
