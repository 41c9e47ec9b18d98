package migrations

import (
	"gorm.io/gorm"
)

// Migration001Initial 初始迁移 - 会话、翻译、语言设置与领域事件
type Migration001Initial struct{}

func (m *Migration001Initial) Version() string {
	return "001_initial"
}

func (m *Migration001Initial) Description() string {
	return "Create sessions, translations, language settings and domain events"
}

func (m *Migration001Initial) Up(db *gorm.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id VARCHAR(36) PRIMARY KEY,
			status VARCHAR(50) NOT NULL DEFAULT 'created',
			language_a VARCHAR(16),
			language_b VARCHAR(16),
			model_a JSON,
			model_b JSON,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS translations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id VARCHAR(36) NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			from_lang VARCHAR(16),
			to_lang VARCHAR(16),
			original TEXT,
			translated TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS language_settings (
			id VARCHAR(36) PRIMARY KEY,
			code VARCHAR(16) NOT NULL UNIQUE,
			enabled BOOLEAN NOT NULL DEFAULT 0,
			voice VARCHAR(64),
			transcribe_model VARCHAR(32),
			translation_model VARCHAR(32),
			summary_model VARCHAR(32)
		)`,
		`CREATE TABLE IF NOT EXISTS domain_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_type VARCHAR(255) NOT NULL,
			session_id VARCHAR(255),
			data JSON NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_translations_session_id ON translations(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_translations_created_at ON translations(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_language_settings_enabled ON language_settings(enabled)`,
		`CREATE INDEX IF NOT EXISTS idx_domain_events_event_type ON domain_events(event_type)`,
		`CREATE INDEX IF NOT EXISTS idx_domain_events_session_id ON domain_events(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_domain_events_created_at ON domain_events(created_at)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

func (m *Migration001Initial) Down(db *gorm.DB) error {
	for _, table := range []string{"domain_events", "translations", "language_settings", "sessions"} {
		if err := db.Exec(`DROP TABLE IF EXISTS ` + table).Error; err != nil {
			return err
		}
	}
	return nil
}
