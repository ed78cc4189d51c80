package main

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a throwaway SQLite database with the same settings as
// main: error translation on, full schema migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(
		sqlite.Open(filepath.Join(t.TempDir(), "test.db")),
		&gorm.Config{TranslateError: true, Logger: logger.Discard},
	)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	err = db.AutoMigrate(&User{}, &LedgerEntry{}, &VehicleEvent{}, &ExcludedPlate{}, &SyncState{})
	if err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}
