package health

import (
	"context"
	"net/http"
	"time"

	"github.com/icco/marquee/lib/validation"
	"gorm.io/gorm"
)

// Health is the health check response.
type Health struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Storage   struct {
		Backend string `json:"backend"`
		Status  string `json:"status"`
		Message string `json:"message,omitempty"`
	} `json:"storage"`
	Watchlist struct {
		Count int `json:"count"`
	} `json:"watchlist"`
}

// Probe checks one dependency.
type Probe func(ctx context.Context) error

// PingDB returns a Probe that pings the database behind db.
func PingDB(db *gorm.DB) Probe {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// Check returns an HTTP handler reporting storage health and the size of
// the watchlist. A nil probe reports the storage as ok.
func Check(backend string, probe Probe, watchlistLen func() int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := Health{
			Status:    "ok",
			Timestamp: time.Now(),
		}
		health.Storage.Backend = backend
		health.Storage.Status = "ok"
		if watchlistLen != nil {
			health.Watchlist.Count = watchlistLen()
		}

		if probe != nil {
			if err := probe(ctx); err != nil {
				health.Status = "degraded"
				health.Storage.Status = "error"
				health.Storage.Message = "Storage ping failed"
				validation.WriteJSON(w, health, http.StatusServiceUnavailable)
				return
			}
		}

		validation.WriteJSON(w, health, http.StatusOK)
	}
}
