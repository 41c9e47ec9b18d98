package speech

import (
	"context"
	"strings"

	"tolk-server-go/internal/domain/language"
	"tolk-server-go/internal/domain/provider"
	"tolk-server-go/internal/platform/errors"
	"tolk-server-go/internal/platform/logging"
)

// VoiceResolver 音色解析接口
type VoiceResolver interface {
	Resolve(ctx context.Context, q language.VoiceQuery) (string, error)
}

// Request 合成请求
type Request struct {
	Text      string `json:"text"`
	Voice     string `json:"voice,omitempty"`
	Lang      string `json:"lang,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Audio 合成结果
type Audio struct {
	Voice       string
	ContentType string
	Data        []byte
}

// Synthesizer resolves a voice and hands the text to the synthesis model.
type Synthesizer struct {
	voices   VoiceResolver
	invoker  provider.Invoker
	modelKey string
	logger   *logging.Logger
}

// NewSynthesizer 创建语音合成服务
func NewSynthesizer(voices VoiceResolver, invoker provider.Invoker, modelKey string, logger *logging.Logger) *Synthesizer {
	return &Synthesizer{voices: voices, invoker: invoker, modelKey: modelKey, logger: logger}
}

// Synthesize 解析音色并合成语音
func (s *Synthesizer) Synthesize(ctx context.Context, req Request) (*Audio, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, errors.Validation("speech.synthesize", "text is required")
	}

	voice, err := s.voices.Resolve(ctx, language.VoiceQuery{
		Voice:     req.Voice,
		Language:  req.Lang,
		SessionID: req.SessionID,
		Text:      text,
	})
	if err != nil {
		return nil, err
	}

	resp, err := provider.Synthesize(ctx, s.invoker, s.modelKey, text, voice)
	if err != nil {
		return nil, err
	}
	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	s.logger.DebugTag("TTS", "合成 %d 字节，音色 %s", len(resp.Audio), voice)
	return &Audio{Voice: voice, ContentType: contentType, Data: resp.Audio}, nil
}
