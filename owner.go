package rwlock

import (
	"strconv"

	"github.com/petermattis/goid"
	"go.uber.org/atomic"
)

// Owner identifies the execution context an acquisition belongs to.
// Owners are comparable; two Owners are equal only if they name the same
// goroutine or the same token.
type Owner struct {
	token bool
	id    int64
}

var lastToken atomic.Int64

// CurrentGoroutine returns the Owner of the calling goroutine. It is the
// identity used by every RWLock method that does not take an explicit Owner.
func CurrentGoroutine() Owner {
	return Owner{id: goid.Get()}
}

// NewOwner returns a fresh Owner that is not tied to any goroutine. Use it
// with RWLock.As when one logical task acquires and releases a lock from
// different goroutines.
func NewOwner() Owner {
	return Owner{token: true, id: lastToken.Inc()}
}

// IsZero reports whether o is the zero Owner, which names no context.
func (o Owner) IsZero() bool {
	return o == Owner{}
}

func (o Owner) String() string {
	if o.token {
		return "token-" + strconv.FormatInt(o.id, 10)
	}
	return "goroutine-" + strconv.FormatInt(o.id, 10)
}
