package model

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens a private in-memory SQLite database named after the
// caller and migrates models into it.
func setupTestDB(t *testing.T, name string, models ...interface{}) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			t.Fatalf("failed to auto-migrate models: %v", err)
		}
	}

	return db
}
