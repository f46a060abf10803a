package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/icco/marquee/lib/config"
	"github.com/icco/marquee/lib/watchlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppCloseReleasesStorage(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.TMDB.APIKey = "test-key"
	cfg.Storage.DBPath = filepath.Join(dir, "marquee.db")
	cfg.Storage.LockDir = dir

	ctx := context.Background()
	app, err := NewApp(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	probe := app.storage.probe
	require.NotNil(t, probe)
	require.NoError(t, probe(ctx))

	app.Close()
	assert.Error(t, probe(ctx), "database is closed after shutdown")
	assert.NoError(t, app.lock.TryLock(ctx, watchlist.StorageKey, time.Second))
	assert.NoError(t, app.lock.Unlock(watchlist.StorageKey))
}

func TestFileBackendHasNothingToClose(t *testing.T) {
	cfg := config.Default().Storage
	cfg.Backend = config.BackendFile
	cfg.Dir = t.TempDir()

	b, err := openStorage(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.NotNil(t, b.store)
	assert.Nil(t, b.probe)
	assert.Nil(t, b.close)
}
