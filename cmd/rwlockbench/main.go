// Command rwlockbench hammers an rwlock.RWLock with readers and writers for a
// while and reports how many acquisitions each side got. Running it with both
// preferences shows writer starvation under the reader-preferred policy.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/thetarby/rwlock"
)

type benchConfig struct {
	readers    int
	writers    int
	duration   time.Duration
	hold       time.Duration
	recursion  int
	preference string
	verbose    bool
}

type result struct {
	preference rwlock.Preference
	reads      uint64
	writes     uint64
}

func (r result) writeShare() float64 {
	total := r.reads + r.writes
	if total == 0 {
		return 0
	}
	return 100 * float64(r.writes) / float64(total)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg benchConfig
	cmd := &cobra.Command{
		Use:          "rwlockbench",
		Short:        "Compare reader and writer throughput of rwlock preferences",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(cfg.verbose)
			if err != nil {
				return errors.Wrap(err, "create logger")
			}
			defer func() { _ = logger.Sync() }()
			return runAll(cmd.OutOrStdout(), cfg, logger)
		},
	}

	f := cmd.Flags()
	f.IntVar(&cfg.readers, "readers", 100, "number of reading goroutines")
	f.IntVar(&cfg.writers, "writers", 2, "number of writing goroutines")
	f.DurationVar(&cfg.duration, "duration", 10*time.Second, "how long each preference is hammered")
	f.DurationVar(&cfg.hold, "hold", 10*time.Millisecond, "how long each acquisition is held")
	f.IntVar(&cfg.recursion, "recursion", 1, "nesting depth of every acquisition")
	f.StringVar(&cfg.preference, "preference", "both", "writer, reader or both")
	f.BoolVarP(&cfg.verbose, "verbose", "v", false, "log lock waits and wakeups")
	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func preferences(s string) ([]rwlock.Preference, error) {
	if s == "both" {
		return []rwlock.Preference{rwlock.WriterPreferred, rwlock.ReaderPreferred}, nil
	}
	p, err := rwlock.ParsePreference(s)
	if err != nil {
		return nil, err
	}
	return []rwlock.Preference{p}, nil
}

func runAll(out io.Writer, cfg benchConfig, logger *zap.Logger) error {
	if cfg.readers < 0 || cfg.writers < 0 || cfg.recursion < 1 {
		return errors.New("readers and writers must be >= 0 and recursion >= 1")
	}
	prefs, err := preferences(cfg.preference)
	if err != nil {
		return err
	}
	for _, p := range prefs {
		logger.Info("hammering lock",
			zap.Stringer("preference", p),
			zap.Int("readers", cfg.readers),
			zap.Int("writers", cfg.writers),
			zap.Duration("duration", cfg.duration))
		res, err := run(cfg, p, logger)
		if err != nil {
			return errors.Wrapf(err, "%s-preferred", p)
		}
		fmt.Fprintf(out, "%s-preferred:\t%d reads,\t%d writes\t(%.3f %% writes)\n",
			res.preference, res.reads, res.writes, res.writeShare())
	}
	return nil
}

func run(cfg benchConfig, pref rwlock.Preference, logger *zap.Logger) (result, error) {
	rw := rwlock.New(
		rwlock.WithPreference(pref),
		rwlock.WithLogger(logger),
		rwlock.WithName(pref.String()),
	)

	var (
		stop          atomic.Bool
		activity      atomic.Int32 // active readers + 10000 * active writers
		reads, writes atomic.Uint64
		g             errgroup.Group
	)

	read := func() error {
		n := activity.Inc()
		defer activity.Dec()
		if n < 1 || n >= 10000 {
			return errors.Errorf("reader saw activity %d", n)
		}
		time.Sleep(cfg.hold)
		return nil
	}
	write := func() error {
		n := activity.Add(10000)
		defer activity.Sub(10000)
		if n != 10000 {
			return errors.Errorf("writer saw activity %d", n)
		}
		time.Sleep(cfg.hold)
		return nil
	}

	worker := func(mode rwlock.Mode, fn func() error, counter *atomic.Uint64) func() error {
		return func() error {
			for !stop.Load() {
				if err := nested(rw, mode, cfg.recursion, fn); err != nil {
					return err
				}
				counter.Inc()
			}
			return nil
		}
	}
	for i := 0; i < cfg.readers; i++ {
		g.Go(worker(rwlock.Read, read, &reads))
	}
	for i := 0; i < cfg.writers; i++ {
		g.Go(worker(rwlock.Write, write, &writes))
	}

	time.Sleep(cfg.duration)
	stop.Store(true)
	if err := g.Wait(); err != nil {
		return result{}, err
	}
	return result{preference: pref, reads: reads.Load(), writes: writes.Load()}, nil
}

// nested runs fn holding rw in mode depth times over.
func nested(rw *rwlock.RWLock, mode rwlock.Mode, depth int, fn func() error) error {
	if depth <= 1 {
		return rw.Do(mode, fn)
	}
	return rw.Do(mode, func() error { return nested(rw, mode, depth-1, fn) })
}
