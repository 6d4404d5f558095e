// Package rwlock implements a reentrant reader/writer lock.
//
// The lock can be held by an arbitrary number of readers or a single writer.
// Unlike sync.RWMutex it remembers who holds it: an execution context (a
// goroutine, or an explicit Owner token) that already holds the lock may
// acquire it again in the same mode without deadlocking itself. Acquiring the
// write lock while holding a read lock is rejected with ErrRecursiveWrite;
// there is no upgrade path.
//
// Arbitration between waiting readers and writers is fixed at construction
// by a Preference. With WriterPreferred (the default) a queued writer keeps
// new readers out, except readers that already hold the lock. With
// ReaderPreferred new readers never wait for queued writers, so a steady
// stream of readers can starve writers.
package rwlock

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/thetarby/rwlock/internal/syncutil"
)

// RWLock is a reentrant reader/writer lock. Create it with New; the zero
// value is not usable.
type RWLock struct {
	mu         syncutil.Mutex
	readerCond *sync.Cond
	writerCond *sync.Cond

	// state is 0 when free, the number of held read acquisitions when
	// positive, and minus the write nesting depth when negative.
	state        int
	owners       map[Owner]int // one count per outstanding acquisition
	readWaiters  int
	writeWaiters int

	pref Preference
	log  *zap.Logger
}

// New returns a free lock. Without options it prefers writers.
func New(opts ...Option) *RWLock {
	cfg := newConfig(opts)
	rw := &RWLock{
		owners: make(map[Owner]int),
		pref:   cfg.preference,
		log:    cfg.logger,
	}
	if cfg.name != "" {
		rw.log = rw.log.With(zap.String("lock", cfg.name))
	}
	rw.readerCond = sync.NewCond(&rw.mu)
	rw.writerCond = sync.NewCond(&rw.mu)
	return rw
}

// AcquireRead locks rw for reading on behalf of the calling goroutine.
//
// Reading is not possible while a writer holds the lock, including when the
// writer is the calling goroutine. If blocking is false and the lock cannot be
// taken right away, AcquireRead returns false and leaves rw untouched.
// The error is always nil; it is there so that both acquire methods share a
// signature.
func (rw *RWLock) AcquireRead(blocking bool) (bool, error) {
	return rw.acquireRead(CurrentGoroutine(), blocking)
}

// AcquireWrite locks rw for writing on behalf of the calling goroutine.
//
// A goroutine already holding the write lock acquires it again immediately.
// A goroutine holding a read lock gets ErrRecursiveWrite and rw is left
// unchanged. If blocking is false and the lock cannot be taken right away,
// AcquireWrite returns false and leaves rw untouched.
func (rw *RWLock) AcquireWrite(blocking bool) (bool, error) {
	return rw.acquireWrite(CurrentGoroutine(), blocking)
}

// Release undoes one acquisition made by the calling goroutine.
//
// Release takes no mode: the lock is never read-held and write-held at the
// same time, so the sign of its state tells which kind of acquisition is
// being undone. Calling Release without a matching acquisition returns
// ErrNotHeld and leaves rw unchanged.
func (rw *RWLock) Release() error {
	return rw.release(CurrentGoroutine())
}

func (rw *RWLock) acquireRead(me Owner, blocking bool) (bool, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	for !rw.tryRead(me) {
		if !blocking {
			return false, nil
		}
		rw.readWaiters++
		rw.debug("waiting for read lock", me)
		rw.readerCond.Wait()
		rw.readWaiters--
	}
	return true, nil
}

func (rw *RWLock) tryRead(me Owner) bool {
	if rw.state < 0 {
		return false
	}
	// An owner may re-enter while writers queue, otherwise it would wait on
	// a writer that waits on it.
	ok := rw.writeWaiters == 0 || rw.owners[me] > 0
	if !ok && rw.pref != ReaderPreferred {
		return false
	}
	rw.state++
	rw.owners[me]++
	return true
}

func (rw *RWLock) acquireWrite(me Owner, blocking bool) (bool, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	for {
		ok, err := rw.tryWrite(me)
		if err != nil {
			rw.log.Warn("recursive write on read-locked lock", rw.fields(me)...)
			return false, err
		}
		if ok {
			return true, nil
		}
		if !blocking {
			return false, nil
		}
		rw.writeWaiters++
		rw.debug("waiting for write lock", me)
		rw.writerCond.Wait()
		rw.writeWaiters--
	}
}

func (rw *RWLock) tryWrite(me Owner) (bool, error) {
	held := rw.owners[me] > 0
	switch {
	case rw.state == 0, rw.state < 0 && held:
		rw.state--
		rw.owners[me]++
		return true, nil
	case rw.state > 0 && held:
		return false, errors.WithStack(ErrRecursiveWrite)
	}
	return false, nil
}

func (rw *RWLock) release(me Owner) error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	n := rw.owners[me]
	if n == 0 {
		rw.log.Warn("release without acquisition", rw.fields(me)...)
		return errors.WithStack(ErrNotHeld)
	}
	if n == 1 {
		delete(rw.owners, me)
	} else {
		rw.owners[me] = n - 1
	}

	if rw.state > 0 {
		rw.state--
	} else {
		rw.state++
	}
	if rw.state == 0 {
		rw.wake()
	}
	return nil
}

// wake hands a free lock to waiters. Callers must hold rw.mu.
func (rw *RWLock) wake() {
	switch {
	case rw.writeWaiters > 0 && rw.pref == WriterPreferred:
		rw.debug("waking writer", Owner{})
		rw.writerCond.Signal()
	case rw.readWaiters > 0:
		rw.debug("waking readers", Owner{})
		rw.readerCond.Broadcast()
	case rw.writeWaiters > 0:
		rw.debug("waking writer", Owner{})
		rw.writerCond.Signal()
	}
}

func (rw *RWLock) debug(msg string, me Owner) {
	if ce := rw.log.Check(zap.DebugLevel, msg); ce != nil {
		ce.Write(rw.fields(me)...)
	}
}

func (rw *RWLock) fields(me Owner) []zap.Field {
	fs := make([]zap.Field, 0, 4)
	if !me.IsZero() {
		fs = append(fs, zap.Stringer("owner", me))
	}
	return append(fs,
		zap.Int("state", rw.state),
		zap.Int("read_waiters", rw.readWaiters),
		zap.Int("write_waiters", rw.writeWaiters),
	)
}
