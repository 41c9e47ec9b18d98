package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"gorm.io/gorm"

	"tolk-server-go/internal/domain/language"
	"tolk-server-go/internal/domain/session/aggregate"
	"tolk-server-go/internal/domain/session/repository"
	"tolk-server-go/internal/platform/errors"
)

// sessionRepository 会话仓库实现
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建会话仓库实例
func NewSessionRepository(db *gorm.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

// Create 保存新会话
func (r *sessionRepository) Create(ctx context.Context, session *aggregate.Session) error {
	model, err := r.toModel(session)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "session.create", "failed to save session", err)
	}
	return nil
}

// FindByID 根据ID查找会话
func (r *sessionRepository) FindByID(ctx context.Context, id string) (*aggregate.Session, error) {
	return r.find(r.db.WithContext(ctx), id)
}

func (r *sessionRepository) find(db *gorm.DB, id string) (*aggregate.Session, error) {
	var model SessionModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil // 会话不存在
		}
		return nil, errors.Wrap(errors.KindStorage, "session.find_by_id", "failed to find session", err)
	}
	return r.fromModel(&model)
}

// List 按创建时间倒序列出会话，limit 为 0 时不限制条数
func (r *sessionRepository) List(ctx context.Context, limit, offset int) ([]*aggregate.Session, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	switch {
	case limit > 0:
		query = query.Limit(limit)
	case offset > 0:
		// sqlite 的 OFFSET 必须跟在 LIMIT 之后
		query = query.Limit(math.MaxInt32)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var models []SessionModel
	if err := query.Find(&models).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "session.list", "failed to list sessions", err)
	}

	sessions := make([]*aggregate.Session, 0, len(models))
	for i := range models {
		session, err := r.fromModel(&models[i])
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// Transition 在事务内重新读取会话、执行 mutate 并写回
// mutate 返回 false 时不写库。状态只能前进，只写发生变化的列
func (r *sessionRepository) Transition(ctx context.Context, id string, mutate func(*aggregate.Session) (bool, error)) (*aggregate.Session, error) {
	const op = "session.transition"

	var current *aggregate.Session
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := r.find(tx, id)
		if err != nil {
			return err
		}
		if session == nil {
			return errors.SessionNotFound(op, id)
		}

		before := *session
		changed, err := mutate(session)
		if err != nil {
			return err
		}
		current = session
		if !changed {
			return nil
		}
		if !before.CanAdvanceTo(session.Status) {
			return errors.Validation(op, fmt.Sprintf("session %s cannot move from %s to %s", id, before.Status, session.Status))
		}

		updates := map[string]interface{}{"status": string(session.Status)}
		if session.LanguageA != before.LanguageA || session.ModelA != before.ModelA || session.ModelB != before.ModelB {
			model, err := r.toModel(session)
			if err != nil {
				return err
			}
			updates["language_a"] = model.LanguageA
			updates["language_b"] = model.LanguageB
			updates["model_a"] = model.ModelA
			updates["model_b"] = model.ModelB
		}

		result := tx.Model(&SessionModel{}).
			Where("id = ? AND status = ?", id, string(before.Status)).
			Updates(updates)
		if result.Error != nil {
			return errors.Wrap(errors.KindStorage, op, "failed to update session", result.Error)
		}
		if result.RowsAffected == 0 {
			return errors.Validation(op, fmt.Sprintf("session %s changed concurrently", id))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, op, "transaction failed", err)
	}
	return current, nil
}

// AppendTranslation 事务内校验会话并追加翻译记录
func (r *sessionRepository) AppendTranslation(ctx context.Context, translation *aggregate.Translation) (*aggregate.Session, error) {
	var updated *aggregate.Session
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := r.find(tx, translation.SessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return errors.SessionNotFound("session.append_translation", translation.SessionID)
		}
		if err := session.RecordTurn(*translation); err != nil {
			return err
		}

		model := &TranslationModel{
			SessionID:    session.ID,
			FromLanguage: translation.FromLanguage,
			ToLanguage:   translation.ToLanguage,
			Original:     translation.Original,
			Translated:   translation.Translated,
			CreatedAt:    translation.CreatedAt,
		}
		if model.CreatedAt.IsZero() {
			model.CreatedAt = timeNow()
		}
		if err := tx.Create(model).Error; err != nil {
			return errors.Wrap(errors.KindStorage, "session.append_translation", "failed to save translation", err)
		}
		if err := tx.Model(&SessionModel{}).Where("id = ?", session.ID).
			Update("status", string(session.Status)).Error; err != nil {
			return errors.Wrap(errors.KindStorage, "session.append_translation", "failed to advance session", err)
		}

		translation.ID = model.ID
		translation.SessionID = session.ID
		translation.CreatedAt = model.CreatedAt
		session.Translations = nil
		updated = session
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "session.append_translation", "transaction failed", err)
	}
	return updated, nil
}

// ListTranslations 按时间顺序返回翻译记录
func (r *sessionRepository) ListTranslations(ctx context.Context, sessionID string) ([]aggregate.Translation, error) {
	var models []TranslationModel
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).
		Order("created_at ASC").Order("id ASC").Find(&models).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "session.list_translations", "failed to list translations", err)
	}

	translations := make([]aggregate.Translation, len(models))
	for i, m := range models {
		translations[i] = aggregate.Translation{
			ID:           m.ID,
			SessionID:    m.SessionID,
			FromLanguage: m.FromLanguage,
			ToLanguage:   m.ToLanguage,
			Original:     m.Original,
			Translated:   m.Translated,
			CreatedAt:    m.CreatedAt,
		}
	}
	return translations, nil
}

func (r *sessionRepository) toModel(session *aggregate.Session) (*SessionModel, error) {
	modelA, err := marshalConfig(session.ModelA)
	if err != nil {
		return nil, err
	}
	modelB, err := marshalConfig(session.ModelB)
	if err != nil {
		return nil, err
	}
	return &SessionModel{
		ID:        session.ID,
		Status:    string(session.Status),
		LanguageA: session.LanguageA,
		LanguageB: session.LanguageB,
		ModelA:    modelA,
		ModelB:    modelB,
		CreatedAt: session.CreatedAt,
	}, nil
}

func (r *sessionRepository) fromModel(model *SessionModel) (*aggregate.Session, error) {
	modelA, err := unmarshalConfig(model.ModelA)
	if err != nil {
		return nil, err
	}
	modelB, err := unmarshalConfig(model.ModelB)
	if err != nil {
		return nil, err
	}
	return &aggregate.Session{
		ID:        model.ID,
		Status:    aggregate.Status(model.Status),
		LanguageA: model.LanguageA,
		LanguageB: model.LanguageB,
		ModelA:    modelA,
		ModelB:    modelB,
		CreatedAt: model.CreatedAt,
	}, nil
}

func marshalConfig(cfg *language.ProviderConfig) ([]byte, error) {
	if cfg == nil {
		return nil, nil
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "session.encode_models", "failed to encode model snapshot", err)
	}
	return data, nil
}

func unmarshalConfig(data []byte) (*language.ProviderConfig, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var cfg language.ProviderConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "session.decode_models", "failed to decode model snapshot", err)
	}
	return &cfg, nil
}
