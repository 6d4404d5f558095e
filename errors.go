package rwlock

import "github.com/pkg/errors"

// ErrUsage is matched by every error caused by misusing a lock. Such errors
// are never transient and the failed call leaves the lock unchanged.
var ErrUsage = errors.New("rwlock: usage error")

var (
	// ErrRecursiveWrite is returned when an owner holding a read lock asks
	// for the write lock.
	ErrRecursiveWrite = &UsageError{msg: "cannot recursively write-lock a read-locked lock"}
	// ErrNotHeld is returned when an owner releases a lock it does not hold.
	ErrNotHeld = &UsageError{msg: "cannot release un-acquired lock"}
	// ErrInvalidMode is returned by scoped acquisition without a Read or Write mode.
	ErrInvalidMode = &UsageError{msg: "invalid lock mode"}
)

// UsageError describes a programming error in the use of a lock.
type UsageError struct {
	msg string
}

func (e *UsageError) Error() string { return "rwlock: " + e.msg }

// Is makes every UsageError match ErrUsage.
func (e *UsageError) Is(target error) bool { return target == ErrUsage }
