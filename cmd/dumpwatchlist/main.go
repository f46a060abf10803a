// Command dumpwatchlist logs the contents of a marquee sqlite database.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/icco/marquee/lib/config"
	"github.com/icco/marquee/lib/db"
	"github.com/icco/marquee/lib/logging"
	"github.com/icco/marquee/lib/watchlist"
)

func main() {
	logger := logging.NewWithWriter(os.Stdout, "debug")
	slog.SetDefault(logger)

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = config.Default().Storage.DBPath
	}

	logger.Info("Connecting to database", slog.String("path", dbPath))
	gormDB, err := db.Open(dbPath, logger)
	if err != nil {
		logger.Error("Failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}

	ctx := context.Background()
	store := db.NewRecordStore(gormDB)

	records, err := store.List(ctx)
	if err != nil {
		logger.Error("Failed to list records", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Records in database", slog.Int("count", len(records)))

	for _, rec := range records {
		logger.Info("Record",
			slog.String("key", rec.Key),
			slog.Int("bytes", len(rec.Value)),
			slog.Time("updated_at", rec.UpdatedAt))

		if rec.Key != watchlist.StorageKey {
			continue
		}

		entries, err := watchlist.Decode([]byte(rec.Value))
		if err != nil {
			logger.Warn("Watchlist record is invalid", slog.Any("error", err))
			continue
		}
		for _, m := range entries {
			logger.Info("Watchlist entry",
				slog.Int("id", m.ID),
				slog.String("title", m.Title),
				slog.String("release_date", m.ReleaseDate.String()),
				slog.Float64("vote_average", m.VoteAverage))
		}
		logger.Info("Watchlist summary", slog.Int("entries", len(entries)))
	}
}
