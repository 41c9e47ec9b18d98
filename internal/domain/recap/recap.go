package recap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tolk-server-go/internal/domain/eventbus"
	"tolk-server-go/internal/domain/language"
	"tolk-server-go/internal/domain/provider"
	"tolk-server-go/internal/domain/session/aggregate"
	"tolk-server-go/internal/platform/logging"
)

const (
	// NoDataSummary 会话没有任何翻译时返回的摘要
	NoDataSummary = "No conversation data available."
	// DefaultFallbackLanguage 会话尚未选择访客语言时用于解析摘要模型
	DefaultFallbackLanguage = "en"

	timestampLayout = "2006-01-02 15:04:05"
)

// Sessions 摘要所需的会话读取接口
type Sessions interface {
	Require(ctx context.Context, id string) (*aggregate.Session, error)
	Translations(ctx context.Context, id string) ([]aggregate.Translation, error)
}

// ModelResolver 解析摘要模型
type ModelResolver interface {
	Resolve(ctx context.Context, code string, capability language.Capability) (string, error)
}

// Recap 会话摘要
type Recap struct {
	SessionID    string                  `json:"session_id"`
	Summary      string                  `json:"summary"`
	Translations []aggregate.Translation `json:"translations"`
}

// Aggregator renders a session transcript and asks the summary model for a recap.
type Aggregator struct {
	sessions  Sessions
	resolver  ModelResolver
	invoker   provider.Invoker
	fallback  string
	publisher eventbus.Publisher
	logger    *logging.Logger
}

// NewAggregator 创建摘要聚合器
func NewAggregator(
	sessions Sessions,
	resolver ModelResolver,
	invoker provider.Invoker,
	fallback string,
	publisher eventbus.Publisher,
	logger *logging.Logger,
) *Aggregator {
	if fallback == "" {
		fallback = DefaultFallbackLanguage
	}
	if publisher == nil {
		publisher = eventbus.Nop{}
	}
	return &Aggregator{
		sessions:  sessions,
		resolver:  resolver,
		invoker:   invoker,
		fallback:  fallback,
		publisher: publisher,
		logger:    logger,
	}
}

// Recap 生成会话摘要，没有翻译记录时不调用任何供应商
func (a *Aggregator) Recap(ctx context.Context, sessionID string) (*Recap, error) {
	session, err := a.sessions.Require(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	code := session.LanguageA
	if code == "" {
		code = a.fallback
	}
	model, err := a.resolver.Resolve(ctx, code, language.CapabilitySummarize)
	if err != nil {
		return nil, err
	}

	translations, err := a.sessions.Translations(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(translations) == 0 {
		return &Recap{
			SessionID:    sessionID,
			Summary:      NoDataSummary,
			Translations: []aggregate.Translation{},
		}, nil
	}

	summary, err := provider.Summarize(ctx, a.invoker, model, Transcript(translations))
	if err != nil {
		a.logger.WarnTag("LLM", "会话 %s 摘要失败: %v", sessionID, err)
		return nil, err
	}

	a.logger.InfoTag("会话", "会话 %s 摘要完成，共 %d 轮", sessionID, len(translations))
	a.publisher.Publish(eventbus.EventRecapGenerated, eventbus.RecapEventData{
		SessionID: sessionID,
		Turns:     len(translations),
		Model:     model,
		At:        time.Now(),
	})
	return &Recap{SessionID: sessionID, Summary: summary, Translations: translations}, nil
}

// Transcript renders turns oldest first, one original/translated pair per turn.
func Transcript(translations []aggregate.Translation) string {
	blocks := make([]string, 0, len(translations))
	for _, t := range translations {
		ts := t.CreatedAt.Format(timestampLayout)
		blocks = append(blocks, fmt.Sprintf("[%s] %s: %s\n[%s] %s: %s",
			ts, strings.ToUpper(t.FromLanguage), t.Original,
			ts, strings.ToUpper(t.ToLanguage), t.Translated))
	}
	return strings.Join(blocks, "\n\n")
}
