package service

import (
	"context"
	"time"

	"tolk-server-go/internal/domain/eventbus"
	"tolk-server-go/internal/domain/language"
	"tolk-server-go/internal/domain/session/aggregate"
	"tolk-server-go/internal/domain/session/repository"
	"tolk-server-go/internal/platform/errors"
	"tolk-server-go/internal/platform/logging"
	"tolk-server-go/internal/platform/observability"
)

// ConfigResolver resolves the full model triple for a language code.
type ConfigResolver interface {
	ResolveConfig(ctx context.Context, code string) (language.ProviderConfig, error)
}

// SessionService 会话生命周期领域服务
type SessionService struct {
	repo      repository.SessionRepository
	resolver  ConfigResolver
	hostCode  string
	publisher eventbus.Publisher
	logger    *logging.Logger
}

// NewSessionService 创建会话服务
func NewSessionService(
	repo repository.SessionRepository,
	resolver ConfigResolver,
	hostCode string,
	publisher eventbus.Publisher,
	logger *logging.Logger,
) *SessionService {
	if publisher == nil {
		publisher = eventbus.Nop{}
	}
	return &SessionService{
		repo:      repo,
		resolver:  resolver,
		hostCode:  hostCode,
		publisher: publisher,
		logger:    logger,
	}
}

// HostCode 返回主持方语言
func (s *SessionService) HostCode() string {
	return s.hostCode
}

// Start 创建新会话
func (s *SessionService) Start(ctx context.Context) (*aggregate.Session, error) {
	session := aggregate.NewSession(s.hostCode)
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}
	s.logger.InfoTag("会话", "创建会话 %s", session.ID)
	s.transitioned(eventbus.EventSessionStarted, session)
	return session, nil
}

// SelectLanguage 选择访客语言并快照双方的模型配置
func (s *SessionService) SelectLanguage(ctx context.Context, id, code string) (*aggregate.Session, error) {
	const op = "session.select_language"

	if _, err := s.Require(ctx, id); err != nil {
		return nil, err
	}
	if code == "" {
		return nil, errors.Validation(op, "language code is required")
	}

	// 先解析再修改，失败时状态保持不变
	visitor, err := s.resolver.ResolveConfig(ctx, code)
	if err != nil {
		return nil, err
	}
	host, err := s.resolver.ResolveConfig(ctx, s.hostCode)
	if err != nil {
		return nil, err
	}

	// 解析期间会话可能已被结束或开始翻译，在事务内基于最新状态校验
	session, err := s.repo.Transition(ctx, id, func(current *aggregate.Session) (bool, error) {
		return true, current.SelectLanguage(code, visitor, host)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoTag("会话", "会话 %s 选择语言 %s (%s -> %s)", id, code, visitor.TranslationModel, host.TranslationModel)
	s.transitioned(eventbus.EventLanguageSelected, session)
	return session, nil
}

// AppendTurn 持久化一轮翻译并推进到 ongoing
func (s *SessionService) AppendTurn(ctx context.Context, t *aggregate.Translation) (*aggregate.Session, error) {
	session, err := s.repo.AppendTranslation(ctx, t)
	if err != nil {
		return nil, err
	}
	observability.RecordSessionTransition(string(session.Status))
	return session, nil
}

// Finish 结束会话，重复调用直接返回当前状态
func (s *SessionService) Finish(ctx context.Context, id string) (*aggregate.Session, error) {
	changed := false
	session, err := s.repo.Transition(ctx, id, func(current *aggregate.Session) (bool, error) {
		changed = current.Finish()
		return changed, nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.logger.InfoTag("会话", "会话 %s 已结束", id)
		s.transitioned(eventbus.EventSessionFinished, session)
	}
	return session, nil
}

// Get 获取会话及其全部翻译
func (s *SessionService) Get(ctx context.Context, id string) (*aggregate.Session, error) {
	session, err := s.Require(ctx, id)
	if err != nil {
		return nil, err
	}
	translations, err := s.repo.ListTranslations(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Translations = translations
	return session, nil
}

// MaxListLimit 单次列出会话的上限
const MaxListLimit = 200

// List 按创建时间倒序列出会话。limit 为 0 时返回全部，超过 MaxListLimit 时截断到上限
func (s *SessionService) List(ctx context.Context, limit, offset int) ([]*aggregate.Session, error) {
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

// Require loads a session without translations, failing with SessionNotFound.
func (s *SessionService) Require(ctx context.Context, id string) (*aggregate.Session, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errors.SessionNotFound("session.get", id)
	}
	return session, nil
}

// Translations 返回会话的有序翻译记录
func (s *SessionService) Translations(ctx context.Context, id string) ([]aggregate.Translation, error) {
	return s.repo.ListTranslations(ctx, id)
}

// SessionLanguages returns the visitor and host codes of a session.
func (s *SessionService) SessionLanguages(ctx context.Context, id string) (string, string, error) {
	session, err := s.Require(ctx, id)
	if err != nil {
		return "", "", err
	}
	return session.LanguageA, session.LanguageB, nil
}

func (s *SessionService) transitioned(event string, session *aggregate.Session) {
	observability.RecordSessionTransition(string(session.Status))
	s.publisher.Publish(event, eventbus.SessionEventData{
		SessionID: session.ID,
		Status:    string(session.Status),
		LanguageA: session.LanguageA,
		LanguageB: session.LanguageB,
		At:        time.Now(),
	})
}
