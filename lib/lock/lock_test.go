package lock

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestLockIsExclusive(t *testing.T) {
	dir := t.TempDir()
	first := NewFileLock(dir, discard)
	second := NewFileLock(dir, discard)
	ctx := context.Background()

	require.NoError(t, first.TryLock(ctx, "watchlist", time.Second))

	err := second.TryLock(ctx, "watchlist", 150*time.Millisecond)
	assert.ErrorIs(t, err, ErrHeld)

	require.NoError(t, first.Unlock("watchlist"))
	require.NoError(t, second.TryLock(ctx, "watchlist", time.Second))
	require.NoError(t, second.Unlock("watchlist"))
}

func TestStaleLockIsTakenOver(t *testing.T) {
	dir := t.TempDir()
	fl := NewFileLock(dir, discard)

	require.NoError(t, os.MkdirAll(fl.dir, 0750))
	require.NoError(t, os.WriteFile(fl.path("watchlist"), []byte("not-a-pid\n"), 0600))

	require.NoError(t, fl.TryLock(context.Background(), "watchlist", time.Second))
	require.NoError(t, fl.Unlock("watchlist"))
}

func TestUnlockMissingIsNoop(t *testing.T) {
	fl := NewFileLock(t.TempDir(), discard)
	assert.NoError(t, fl.Unlock("nothing"))
}

func TestTryLockHonoursContext(t *testing.T) {
	dir := t.TempDir()
	holder := NewFileLock(dir, discard)
	require.NoError(t, holder.TryLock(context.Background(), "k", time.Second))
	defer holder.Unlock("k")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewFileLock(dir, discard).TryLock(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}
