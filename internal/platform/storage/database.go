package storage

import (
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tolk-server-go/internal/platform/errors"
	"tolk-server-go/internal/platform/storage/migrations"
)

// Open opens the sqlite database at dsn and applies all migrations.
// ":memory:" and "file:" DSNs are passed through untouched.
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "data/tolk.db"
	}
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrap(errors.KindStorage, "storage.open", "failed to create data directory", err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(withForeignKeys(dsn)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.open", "failed to open database", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.open", "failed to access sql handle", err)
	}
	// sqlite 只允许单写；内存库在多连接下彼此不可见
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.open", "failed to enable foreign keys", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate registers and runs every schema migration.
func Migrate(db *gorm.DB) error {
	_, err := NewMigrator(db, schema()...).Apply()
	return err
}

func schema() []Migration {
	return []Migration{&migrations.Migration001Initial{}}
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func withForeignKeys(dsn string) string {
	if dsn == ":memory:" || strings.Contains(dsn, "_foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}
