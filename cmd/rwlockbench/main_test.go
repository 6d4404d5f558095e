package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/thetarby/rwlock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunCountsBothSides(t *testing.T) {
	cfg := benchConfig{readers: 4, writers: 2, duration: 50 * time.Millisecond, hold: 0, recursion: 3}
	for _, pref := range []rwlock.Preference{rwlock.WriterPreferred, rwlock.ReaderPreferred} {
		res, err := run(cfg, pref, zap.NewNop())
		require.NoError(t, err)
		require.Equal(t, pref, res.preference)
		require.NotZero(t, res.reads+res.writes)
	}
}

func TestRootCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--readers=3", "--writers=1", "--duration=20ms", "--hold=0s", "--preference=writer"})
	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "writer-preferred:")
	require.NotContains(t, out.String(), "reader-preferred:")
}

func TestRootCommandRejectsBadFlags(t *testing.T) {
	for _, args := range [][]string{
		{"--preference=fifo", "--duration=0s"},
		{"--recursion=0", "--duration=0s"},
	} {
		cmd := newRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		require.Error(t, cmd.Execute())
	}
}

func TestWriteShare(t *testing.T) {
	require.Zero(t, result{}.writeShare())
	require.InDelta(t, 25.0, result{reads: 3, writes: 1}.writeShare(), 1e-9)
}
