// Package testing 测试辅助：内存数据库、临时日志与默认配置
package testing

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"tolk-server-go/internal/platform/config"
	"tolk-server-go/internal/platform/logging"
	"tolk-server-go/internal/platform/storage"
)

// SetupTestConfig returns the default config pointed at a temp log dir and an in-memory database.
func SetupTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Server.IP = "127.0.0.1"
	cfg.Server.StaticDir = ""
	cfg.Log.Level = "debug"
	cfg.Log.Dir = filepath.Join(t.TempDir(), "logs")
	cfg.Log.File = "test.log"
	cfg.Database.DSN = ":memory:"
	cfg.Audio.TempDir = t.TempDir()
	return cfg
}

// SetupTestLogger 写入临时目录的日志，测试结束时关闭
func SetupTestLogger(t *testing.T) *logging.Logger {
	t.Helper()

	cfg := SetupTestConfig(t)
	logger, err := logging.NewWithConsole(logging.Config{
		Level:    cfg.Log.Level,
		Dir:      cfg.Log.Dir,
		Filename: cfg.Log.File,
	}, nil)
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	t.Cleanup(func() { _ = logger.Close() })
	return logger
}

// OpenTestDB opens a migrated in-memory sqlite database closed on cleanup.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = storage.Close(db) })
	return db
}
