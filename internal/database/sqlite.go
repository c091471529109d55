// Package database opens the embedded SQLite store and keeps its schema
// current.
package database

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/mpetrov/glucolog/internal/config"
	"github.com/mpetrov/glucolog/internal/database/migrations"
	"github.com/mpetrov/glucolog/internal/domain"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// RangesSettingKey is the app_settings key holding the threshold JSON.
const RangesSettingKey = "blood_glucose_ranges"

func init() {
	// Seed default thresholds so first launch always has a settings row.
	migrations.Register("202406100001_seed_default_ranges", func(db *gorm.DB) error {
		data, err := json.Marshal(domain.DefaultRanges())
		if err != nil {
			return err
		}
		setting := domain.AppSetting{Key: RangesSettingKey, Value: string(data)}
		return db.Where(domain.AppSetting{Key: RangesSettingKey}).
			Attrs(domain.AppSetting{Value: setting.Value}).
			FirstOrCreate(&setting).Error
	}, nil)
}

// NewSQLiteDB opens (creating if needed) the database file and runs all
// migrations. Initialization is idempotent.
func NewSQLiteDB(cfg config.DBConfig) (*gorm.DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer; the file store gets no benefit from a pool.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access underlying connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&domain.Reading{}, &domain.AppSetting{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	if err := migrations.RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// NewMemoryDB opens an in-memory database for tests.
func NewMemoryDB() (*gorm.DB, error) {
	return NewSQLiteDB(config.DBConfig{Path: ":memory:"})
}
