package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/icco/marquee/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open connects to the SQLite file at path and runs migrations.
func Open(path string, logger *slog.Logger) (*gorm.DB, error) {
	gormDB, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: NewGormLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := RunMigrations(gormDB, logger); err != nil {
		_ = Close(gormDB)
		return nil, err
	}
	return gormDB, nil
}

// Close releases the connection pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// RunMigrations runs all database migrations
func RunMigrations(db *gorm.DB, logger *slog.Logger) error {
	ctx := context.Background()

	enableSQLiteOptimizations(ctx, db, logger)

	if err := db.WithContext(ctx).AutoMigrate(&models.StorageRecord{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

// enableSQLiteOptimizations applies pragmas; failures are logged and ignored.
func enableSQLiteOptimizations(ctx context.Context, db *gorm.DB, logger *slog.Logger) {
	optimizations := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range optimizations {
		if err := db.WithContext(ctx).Exec(pragma).Error; err != nil {
			logger.Warn("Failed to execute pragma", slog.String("pragma", pragma), slog.Any("error", err))
		} else {
			logger.Debug("Executed pragma", slog.String("pragma", pragma))
		}
	}
}
