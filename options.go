package rwlock

import (
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Preference decides who goes first when readers and writers both wait.
type Preference int

const (
	// WriterPreferred makes queued writers block new readers that do not
	// already hold the lock.
	WriterPreferred Preference = iota
	// ReaderPreferred lets new readers in regardless of queued writers.
	// Writers may starve.
	ReaderPreferred
)

func (p Preference) String() string {
	switch p {
	case WriterPreferred:
		return "writer"
	case ReaderPreferred:
		return "reader"
	}
	return "Preference(" + strconv.Itoa(int(p)) + ")"
}

// ParsePreference maps "writer" and "reader" to their Preference.
func ParsePreference(s string) (Preference, error) {
	switch s {
	case "writer":
		return WriterPreferred, nil
	case "reader":
		return ReaderPreferred, nil
	}
	return 0, errors.Errorf("rwlock: unknown preference %q", s)
}

// Option configures a lock created by New.
type Option func(*config)

type config struct {
	preference Preference
	logger     *zap.Logger
	name       string
}

func newConfig(opts []Option) config {
	cfg := config{
		preference: WriterPreferred,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithPreference sets the arbitration policy.
func WithPreference(p Preference) Option {
	return func(c *config) { c.preference = p }
}

// WithLogger makes the lock log waits and wakeups at debug level and misuse
// at warn level. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithName attaches a name to the lock's log entries.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}
