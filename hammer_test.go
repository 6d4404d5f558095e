package rwlock

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

// activity holds the number of active readers plus 10000 times the number of
// active writers.

func reader(rw *RWLock, iterations int, activity *atomic.Int32) error {
	for i := 0; i < iterations; i++ {
		rw.RLock()
		n := activity.Inc()
		if n < 1 || n >= 10000 {
			rw.RUnlock()
			return fmt.Errorf("rlock(%d)", n)
		}
		// Re-entering must not deadlock even if a writer queued meanwhile.
		rw.RLock()
		for i := 0; i < 100; i++ {
		}
		rw.RUnlock()
		activity.Dec()
		rw.RUnlock()
	}
	return nil
}

func writer(rw *RWLock, iterations int, activity *atomic.Int32) error {
	for i := 0; i < iterations; i++ {
		rw.Lock()
		n := activity.Add(10000)
		if n != 10000 {
			rw.Unlock()
			return fmt.Errorf("wlock(%d)", n)
		}
		for i := 0; i < 100; i++ {
		}
		activity.Sub(10000)
		rw.Unlock()
	}
	return nil
}

func recursiveWriter(rw *RWLock, iterations, depth int, activity *atomic.Int32) error {
	for i := 0; i < iterations; i++ {
		err := rw.Do(Write, func() error {
			n := activity.Add(10000)
			defer activity.Sub(10000)
			if n != 10000 {
				return fmt.Errorf("wlock(%d)", n)
			}
			for d := 1; d < depth; d++ {
				if ok, err := rw.AcquireWrite(false); !ok || err != nil {
					return fmt.Errorf("recursive write %d: ok=%v err=%v", d, ok, err)
				}
			}
			if s := rw.Stats(); s.State != -depth || s.Holders != 1 {
				return fmt.Errorf("write held with %s and %d holders", s, s.Holders)
			}
			for d := 1; d < depth; d++ {
				if err := rw.Release(); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func hammerRWLock(t *testing.T, pref Preference, gomaxprocs, numReaders, iterations int) {
	runtime.GOMAXPROCS(gomaxprocs)
	var activity atomic.Int32
	rw := New(WithPreference(pref))

	var g errgroup.Group
	g.Go(func() error { return writer(rw, iterations, &activity) })
	var i int
	for i = 0; i < numReaders/2; i++ {
		g.Go(func() error { return reader(rw, iterations, &activity) })
	}
	g.Go(func() error { return recursiveWriter(rw, iterations, 3, &activity) })
	for ; i < numReaders; i++ {
		g.Go(func() error { return reader(rw, iterations, &activity) })
	}
	require.NoError(t, g.Wait())

	s := rw.Stats()
	require.Zero(t, s.State)
	require.Zero(t, s.Acquisitions)
	require.Zero(t, s.ReadWaiters)
	require.Zero(t, s.WriteWaiters)
}

func TestRWLockHammer(t *testing.T) {
	defer runtime.GOMAXPROCS(runtime.GOMAXPROCS(-1))
	n := 1000
	if testing.Short() {
		n = 5
	}
	for _, pref := range []Preference{WriterPreferred, ReaderPreferred} {
		t.Run(pref.String(), func(t *testing.T) {
			hammerRWLock(t, pref, 1, 1, n)
			hammerRWLock(t, pref, 1, 3, n)
			hammerRWLock(t, pref, 1, 10, n)
			hammerRWLock(t, pref, 4, 1, n)
			hammerRWLock(t, pref, 4, 3, n)
			hammerRWLock(t, pref, 4, 10, n)
			hammerRWLock(t, pref, 10, 1, n)
			hammerRWLock(t, pref, 10, 3, n)
			hammerRWLock(t, pref, 10, 10, n)
			hammerRWLock(t, pref, 10, 5, n)
		})
	}
}
