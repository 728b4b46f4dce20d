// Package localstore provides the offline-first SQLite store used by field
// deployments. Records written here are queued for upload to the central
// store by the sync engine.
package localstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrNotFound indicates the record does not exist in the local store.
var ErrNotFound = errors.New("record not found in local store")

// Store is a SQLite-backed offline store.
type Store struct {
	db     *gorm.DB
	path   string
	logger *slog.Logger
}

// Open opens (or creates) the local database at path and migrates its schema.
// Use ":memory:" for an in-memory database.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create local store directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	if err := db.AutoMigrate(
		&patientRow{},
		&assessmentRow{},
		&syncRow{},
		&resourceRow{},
	); err != nil {
		return nil, fmt.Errorf("migrate local store: %w", err)
	}

	return &Store{
		db:     db,
		path:   path,
		logger: logger.With("component", "localstore"),
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// FileSizeBytes returns the size of the database file on disk.
// Returns 0 for in-memory databases.
func (s *Store) FileSizeBytes() (int64, error) {
	if s.path == ":memory:" {
		return 0, nil
	}
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("stat local store: %w", err)
	}
	return info.Size(), nil
}
