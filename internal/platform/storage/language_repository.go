package storage

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tolk-server-go/internal/domain/language"
	"tolk-server-go/internal/platform/errors"
)

// languageRepository 语言设置仓库实现
type languageRepository struct {
	db *gorm.DB
}

// NewLanguageRepository 创建语言设置仓库实例
func NewLanguageRepository(db *gorm.DB) language.Repository {
	return &languageRepository{db: db}
}

// FindByCode 根据语言代码查找设置
func (r *languageRepository) FindByCode(ctx context.Context, code string) (*language.Setting, error) {
	return findSetting(r.db.WithContext(ctx), code)
}

func findSetting(db *gorm.DB, code string) (*language.Setting, error) {
	var model LanguageSettingModel
	if err := db.Where("code = ?", code).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil // 没有设置行
		}
		return nil, errors.Wrap(errors.KindStorage, "language.find_by_code", "failed to find language setting", err)
	}
	return settingFromModel(&model), nil
}

// List 列出所有语言设置
func (r *languageRepository) List(ctx context.Context) ([]*language.Setting, error) {
	return r.list(ctx, "language.list", r.db.WithContext(ctx))
}

// ListEnabled 列出已启用的语言设置
func (r *languageRepository) ListEnabled(ctx context.Context) ([]*language.Setting, error) {
	return r.list(ctx, "language.list_enabled", r.db.WithContext(ctx).Where("enabled = ?", true))
}

func (r *languageRepository) list(_ context.Context, op string, db *gorm.DB) ([]*language.Setting, error) {
	var models []LanguageSettingModel
	if err := db.Order("code ASC").Find(&models).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, op, "failed to list language settings", err)
	}
	settings := make([]*language.Setting, len(models))
	for i := range models {
		settings[i] = settingFromModel(&models[i])
	}
	return settings, nil
}

// Create 新建语言设置
func (r *languageRepository) Create(ctx context.Context, setting *language.Setting) error {
	if setting.ID == "" {
		setting.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(settingToModel(setting)).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "language.create", "failed to save language setting", err)
	}
	return nil
}

// Update 保存语言设置
func (r *languageRepository) Update(ctx context.Context, setting *language.Setting) error {
	if err := saveSetting(r.db.WithContext(ctx), setting); err != nil {
		return errors.Wrap(errors.KindStorage, "language.update", "failed to update language setting", err)
	}
	return nil
}

func saveSetting(db *gorm.DB, setting *language.Setting) error {
	if setting.ID == "" {
		setting.ID = uuid.NewString()
	}
	// Save 会写入零值字段，主键不存在时插入
	return db.Save(settingToModel(setting)).Error
}

// ApplyPatches 在一个事务中批量更新，不存在的行会被创建
func (r *languageRepository) ApplyPatches(ctx context.Context, patches []language.SettingPatch) ([]*language.Setting, error) {
	out := make([]*language.Setting, 0, len(patches))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, patch := range patches {
			setting, err := findSetting(tx, patch.Code)
			if err != nil {
				return err
			}
			if setting == nil {
				setting = &language.Setting{Code: patch.Code}
			}
			patch.Apply(setting)
			if err := saveSetting(tx, setting); err != nil {
				return err
			}
			out = append(out, setting)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "language.apply_patches", "failed to apply language settings", err)
	}
	return out, nil
}

func settingToModel(s *language.Setting) *LanguageSettingModel {
	return &LanguageSettingModel{
		ID:               s.ID,
		Code:             s.Code,
		Enabled:          s.Enabled,
		Voice:            s.Voice,
		TranscribeModel:  s.TranscribeModel,
		TranslationModel: s.TranslationModel,
		SummaryModel:     s.SummaryModel,
	}
}

func settingFromModel(m *LanguageSettingModel) *language.Setting {
	return &language.Setting{
		ID:               m.ID,
		Code:             m.Code,
		Enabled:          m.Enabled,
		Voice:            m.Voice,
		TranscribeModel:  m.TranscribeModel,
		TranslationModel: m.TranslationModel,
		SummaryModel:     m.SummaryModel,
	}
}
