package storage

import (
	"time"

	"gorm.io/datatypes"
)

var timeNow = time.Now

// SessionModel 会话表
type SessionModel struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)"`
	Status    string         `gorm:"type:varchar(50);not null;default:created"`
	LanguageA string         `gorm:"type:varchar(16)"`
	LanguageB string         `gorm:"type:varchar(16)"`
	ModelA    datatypes.JSON `gorm:"column:model_a"`
	ModelB    datatypes.JSON `gorm:"column:model_b"`
	CreatedAt time.Time      `gorm:"index"`

	Translations []TranslationModel `gorm:"foreignKey:SessionID;references:ID"`
}

func (SessionModel) TableName() string { return "sessions" }

// TranslationModel 翻译记录表，只追加
type TranslationModel struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	SessionID    string    `gorm:"type:varchar(36);index;not null"`
	FromLanguage string    `gorm:"column:from_lang;type:varchar(16)"`
	ToLanguage   string    `gorm:"column:to_lang;type:varchar(16)"`
	Original     string    `gorm:"type:text"`
	Translated   string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"index"`
}

func (TranslationModel) TableName() string { return "translations" }

// LanguageSettingModel 语言设置表
type LanguageSettingModel struct {
	ID               string `gorm:"primaryKey;type:varchar(36)"`
	Code             string `gorm:"type:varchar(16);uniqueIndex;not null"`
	Enabled          bool   `gorm:"default:false"`
	Voice            string `gorm:"type:varchar(64)"`
	TranscribeModel  string `gorm:"type:varchar(32)"`
	TranslationModel string `gorm:"type:varchar(32)"`
	SummaryModel     string `gorm:"type:varchar(32)"`
}

func (LanguageSettingModel) TableName() string { return "language_settings" }

// DomainEvent 领域事件存储模型
type DomainEvent struct {
	ID        uint           `gorm:"primaryKey"`
	EventType string         `gorm:"index;not null"` // 事件类型
	SessionID string         `gorm:"index"`          // 会话ID
	Data      datatypes.JSON `gorm:"not null"`       // 事件数据
	CreatedAt time.Time      `gorm:"index"`          // 创建时间
}
