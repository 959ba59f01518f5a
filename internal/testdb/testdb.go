// Package testdb gives tests an isolated in-memory SQLite database wired into storage.DB.
package testdb

import (
	"fmt"
	"testing"

	"rccafe/internal/clock"
	"rccafe/internal/config"
	"rccafe/internal/storage"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open creates a fresh migrated database, installs it as storage.DB and a test
// configuration, and restores both when t finishes.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: clock.Now,
	})
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	prevDB, prevCfg := storage.DB, config.Get()
	storage.DB = db
	config.Set(Config())

	t.Cleanup(func() {
		storage.DB = prevDB
		config.Set(prevCfg)
		_ = sqlDB.Close()
	})
	return db
}

// Config is the default configuration with fixed JWT secrets.
func Config() *config.Config {
	cfg := config.Default()
	cfg.JWT.AccessSecret = []byte("test-access-secret")
	cfg.JWT.RefreshSecret = []byte("test-refresh-secret")
	cfg.DeleteAdminEmail = "owner@rccafe.test"
	cfg.BookingsEnabled = true
	return cfg
}
