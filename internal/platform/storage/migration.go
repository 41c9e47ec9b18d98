package storage

import (
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"tolk-server-go/internal/platform/errors"
)

// Migration is one versioned schema change.
type Migration interface {
	Version() string
	Description() string
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

// SchemaVersion 已应用的迁移
type SchemaVersion struct {
	Version     string    `gorm:"primaryKey;size:64"`
	Description string    `gorm:"not null"`
	AppliedAt   time.Time `gorm:"not null"`
}

func (SchemaVersion) TableName() string { return "schema_versions" }

// Migrator applies migrations in version order, each inside its own transaction.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

func NewMigrator(db *gorm.DB, migrations ...Migration) *Migrator {
	sorted := append([]Migration(nil), migrations...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Version() < sorted[j].Version() })
	return &Migrator{db: db, migrations: sorted}
}

// Apply 执行尚未应用的迁移，返回本次应用的版本
func (m *Migrator) Apply() ([]string, error) {
	if err := m.db.AutoMigrate(&SchemaVersion{}); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.migrate", "failed to create schema_versions", err)
	}
	applied, err := m.appliedSet()
	if err != nil {
		return nil, err
	}

	var done []string
	for _, mig := range m.migrations {
		if applied[mig.Version()] {
			continue
		}
		err := m.db.Transaction(func(tx *gorm.DB) error {
			if err := mig.Up(tx); err != nil {
				return err
			}
			return tx.Create(&SchemaVersion{
				Version:     mig.Version(),
				Description: mig.Description(),
				AppliedAt:   time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return done, errors.Wrap(errors.KindStorage, "storage.migrate",
				fmt.Sprintf("migration %s failed", mig.Version()), err)
		}
		done = append(done, mig.Version())
	}
	return done, nil
}

// Revert 回滚最近一次应用的迁移
func (m *Migrator) Revert() (string, error) {
	var last SchemaVersion
	res := m.db.Order("version DESC").Limit(1).Find(&last)
	if res.Error != nil {
		return "", errors.Wrap(errors.KindStorage, "storage.revert", "failed to read schema_versions", res.Error)
	}
	if res.RowsAffected == 0 {
		return "", nil
	}

	var target Migration
	for _, mig := range m.migrations {
		if mig.Version() == last.Version {
			target = mig
		}
	}
	if target == nil {
		return "", errors.New(errors.KindStorage, "storage.revert",
			fmt.Sprintf("migration %s is not registered", last.Version))
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		if err := target.Down(tx); err != nil {
			return err
		}
		return tx.Delete(&SchemaVersion{}, "version = ?", last.Version).Error
	})
	if err != nil {
		return "", errors.Wrap(errors.KindStorage, "storage.revert",
			fmt.Sprintf("rollback of %s failed", last.Version), err)
	}
	return last.Version, nil
}

// History 按版本顺序列出已应用的迁移
func (m *Migrator) History() ([]SchemaVersion, error) {
	var rows []SchemaVersion
	if err := m.db.Order("version ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.history", "failed to read schema_versions", err)
	}
	return rows, nil
}

func (m *Migrator) appliedSet() (map[string]bool, error) {
	var versions []string
	if err := m.db.Model(&SchemaVersion{}).Pluck("version", &versions).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.migrate", "failed to read schema_versions", err)
	}
	set := make(map[string]bool, len(versions))
	for _, v := range versions {
		set[v] = true
	}
	return set, nil
}
