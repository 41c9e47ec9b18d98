package turn

import (
	"context"
	"strings"
	"time"

	"tolk-server-go/internal/domain/eventbus"
	"tolk-server-go/internal/domain/language"
	"tolk-server-go/internal/domain/provider"
	"tolk-server-go/internal/domain/session/aggregate"
	"tolk-server-go/internal/platform/errors"
	"tolk-server-go/internal/platform/logging"
	"tolk-server-go/internal/platform/observability"
)

// Sessions is the part of the session service a turn needs.
type Sessions interface {
	Require(ctx context.Context, id string) (*aggregate.Session, error)
	AppendTurn(ctx context.Context, t *aggregate.Translation) (*aggregate.Session, error)
}

// ModelResolver 按语言和能力解析模型键
type ModelResolver interface {
	Resolve(ctx context.Context, code string, capability language.Capability) (string, error)
}

// AudioInput 上传的音频
type AudioInput struct {
	Filename string
	Data     []byte
}

// Request 一轮翻译请求，Audio 与 Text 二选一
type Request struct {
	SessionID string
	From      string
	To        string
	Audio     *AudioInput
	Text      string
}

// Result 一轮翻译结果
type Result struct {
	SessionID   string `json:"session_id"`
	From        string `json:"from"`
	To          string `json:"to"`
	Original    string `json:"original"`
	Translated  string `json:"translated"`
	Transcribed bool   `json:"-"`
}

// Pipeline runs transcribe (optional), translate and persist for one turn.
type Pipeline struct {
	sessions   Sessions
	resolver   ModelResolver
	invoker    provider.Invoker
	normalizer *Normalizer
	publisher  eventbus.Publisher
	logger     *logging.Logger
}

// NewPipeline 创建翻译流水线
func NewPipeline(
	sessions Sessions,
	resolver ModelResolver,
	invoker provider.Invoker,
	normalizer *Normalizer,
	publisher eventbus.Publisher,
	logger *logging.Logger,
) *Pipeline {
	if publisher == nil {
		publisher = eventbus.Nop{}
	}
	return &Pipeline{
		sessions:   sessions,
		resolver:   resolver,
		invoker:    invoker,
		normalizer: normalizer,
		publisher:  publisher,
		logger:     logger,
	}
}

// Execute 执行一轮翻译；任何失败都不会写入记录
// 音频识别结果为空白时按校验错误 (KindValidation) 拒绝，不视为提供方错误
func (p *Pipeline) Execute(ctx context.Context, req Request) (*Result, error) {
	const op = "turn.execute"
	start := time.Now()
	ctx = observability.WithSession(ctx, req.SessionID)

	result, err := p.execute(ctx, op, req)
	status := "ok"
	if err != nil {
		status = string(errors.KindOf(err))
		p.logger.WarnTag("翻译", "会话 %s 翻译失败 (%s -> %s): %v", req.SessionID, req.From, req.To, err)
	} else {
		p.logger.InfoTag("翻译", "会话 %s %s -> %s 完成，耗时 %s", req.SessionID, req.From, req.To, time.Since(start))
	}
	observability.RecordTurn(req.From, req.To, status)
	return result, err
}

func (p *Pipeline) execute(ctx context.Context, op string, req Request) (*Result, error) {
	if strings.TrimSpace(req.From) == "" || strings.TrimSpace(req.To) == "" {
		return nil, errors.Validation(op, "both 'from' and 'to' languages are required")
	}

	// 先校验会话，再调用任何供应商
	session, err := p.sessions.Require(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if err := session.AcceptsTurn(); err != nil {
		return nil, err
	}

	transcribeModel, err := p.resolver.Resolve(ctx, req.From, language.CapabilityTranscribe)
	if err != nil {
		return nil, err
	}
	translationModel, err := p.resolver.Resolve(ctx, req.From, language.CapabilityTranslate)
	if err != nil {
		return nil, err
	}

	original := req.Text
	transcribed := false
	hasAudio := req.Audio != nil && len(req.Audio.Data) > 0
	if hasAudio || strings.TrimSpace(req.Text) == "" {
		if !hasAudio {
			return nil, errors.Validation(op, "either audio or text is required")
		}
		original, err = p.transcribe(ctx, req.SessionID, transcribeModel, req.From, *req.Audio)
		if err != nil {
			return nil, err
		}
		transcribed = true
	}

	translated, err := provider.Translate(ctx, p.invoker, translationModel, original, req.From, req.To)
	if err != nil {
		p.providerFailed(req.SessionID, provider.CapabilityTranslate, translationModel, err)
		return nil, err
	}

	record := &aggregate.Translation{
		SessionID:    req.SessionID,
		FromLanguage: req.From,
		ToLanguage:   req.To,
		Original:     original,
		Translated:   translated,
		CreatedAt:    time.Now(),
	}
	if _, err := p.sessions.AppendTurn(ctx, record); err != nil {
		return nil, err
	}

	p.publisher.Publish(eventbus.EventTurnRecorded, eventbus.TurnEventData{
		SessionID:     req.SessionID,
		TranslationID: record.ID,
		From:          req.From,
		To:            req.To,
		Transcribed:   transcribed,
		At:            record.CreatedAt,
	})

	return &Result{
		SessionID:   req.SessionID,
		From:        req.From,
		To:          req.To,
		Original:    original,
		Translated:  translated,
		Transcribed: transcribed,
	}, nil
}

// TranscribeOnly transcribes audio without a session and persists nothing.
func (p *Pipeline) TranscribeOnly(ctx context.Context, from string, audio AudioInput) (string, error) {
	const op = "turn.transcribe_only"
	if strings.TrimSpace(from) == "" {
		return "", errors.Validation(op, "language is required")
	}
	if len(audio.Data) == 0 {
		return "", errors.Validation(op, "audio file is required")
	}
	model, err := p.resolver.Resolve(ctx, from, language.CapabilityTranscribe)
	if err != nil {
		return "", err
	}
	return p.transcribe(ctx, "", model, from, audio)
}

func (p *Pipeline) transcribe(ctx context.Context, sessionID, model, from string, audio AudioInput) (string, error) {
	workdir, cleanup, err := p.normalizer.Workspace()
	if err != nil {
		return "", err
	}
	defer cleanup()

	wav, err := p.normalizer.Normalize(ctx, workdir, audio.Filename, audio.Data)
	if err != nil {
		return "", err
	}

	text, err := provider.Transcribe(ctx, p.invoker, model, wav, "audio.wav", from)
	if err != nil {
		p.providerFailed(sessionID, provider.CapabilityTranscribe, model, err)
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.Validation("turn.transcribe", "no speech recognized in audio")
	}
	p.logger.DebugTag("ASR", "识别结果 (%s): %s", from, text)
	return text, nil
}

func (p *Pipeline) providerFailed(sessionID string, capability provider.Capability, model string, err error) {
	p.publisher.Publish(eventbus.EventProviderError, eventbus.ProviderErrorData{
		SessionID:  sessionID,
		Capability: string(capability),
		Model:      model,
		Message:    err.Error(),
		At:         time.Now(),
	})
}
