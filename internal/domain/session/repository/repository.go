package repository

import (
	"context"

	"tolk-server-go/internal/domain/session/aggregate"
)

// SessionRepository 会话仓库接口
type SessionRepository interface {
	// Create 保存新会话
	Create(ctx context.Context, session *aggregate.Session) error

	// FindByID returns nil, nil when the session does not exist. Translations are not loaded.
	FindByID(ctx context.Context, id string) (*aggregate.Session, error)

	// List 按创建时间倒序列出会话，limit 为 0 时不限制条数
	List(ctx context.Context, limit, offset int) ([]*aggregate.Session, error)

	// Transition re-reads the session inside one transaction and applies mutate to the
	// stored copy. When mutate reports a change the status must not move backward, and
	// only the changed columns are written. Returns the session as stored afterwards.
	Transition(ctx context.Context, id string, mutate func(*aggregate.Session) (bool, error)) (*aggregate.Session, error)

	// AppendTranslation checks the session inside one transaction, inserts the
	// record and advances the status to ongoing. Returns the updated session.
	AppendTranslation(ctx context.Context, translation *aggregate.Translation) (*aggregate.Session, error)

	// ListTranslations 按时间顺序返回会话的翻译记录
	ListTranslations(ctx context.Context, sessionID string) ([]aggregate.Translation, error)
}
