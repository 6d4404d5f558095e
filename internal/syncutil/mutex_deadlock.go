//go:build deadlock

// Package syncutil provides the mutex guarding lock state, with optional
// deadlock detection. Build with -tags=deadlock to enable it.
package syncutil

import (
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

// DeadlockEnabled is true if the deadlock detector is enabled.
const DeadlockEnabled = true

func init() {
	deadlock.Opts.DeadlockTimeout = 5 * time.Second
}

// A Mutex is a mutual exclusion lock that reports lock-order inversions and
// holds longer than deadlock.Opts.DeadlockTimeout.
type Mutex struct {
	deadlock.Mutex
}
