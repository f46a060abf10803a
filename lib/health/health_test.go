package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckOK(t *testing.T) {
	handler := Check("file", nil, func() int { return 3 })

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var h Health
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "file", h.Storage.Backend)
	assert.Equal(t, 3, h.Watchlist.Count)
}

func TestCheckDegraded(t *testing.T) {
	probe := func(ctx context.Context) error { return errors.New("database is locked") }
	handler := Check("sqlite", probe, nil)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var h Health
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&h))
	assert.Equal(t, "degraded", h.Status)
	assert.Equal(t, "error", h.Storage.Status)
}
