package openai

import (
	"bytes"
	"context"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"tolk-server-go/internal/domain/provider"
	"tolk-server-go/internal/platform/errors"
)

// WhisperAdapter transcribes through an OpenAI-compatible /audio/transcriptions endpoint.
type WhisperAdapter struct {
	clients *clientFactory
}

func NewWhisperAdapter() *WhisperAdapter {
	return &WhisperAdapter{clients: newClientFactory(nil)}
}

// Invoke 上传音频文件与语言代码
func (a *WhisperAdapter) Invoke(ctx context.Context, ep provider.Endpoint, req provider.Request) (*provider.Response, error) {
	const op = "openai.whisper"

	client, err := a.clients.get(ep)
	if err != nil {
		return nil, err
	}

	model := ep.Model
	if model == "" {
		model = goopenai.Whisper1
	}
	filename := req.AudioFilename
	if filename == "" {
		filename = "audio.wav"
	}

	ctx, capture := withCapture(ctx)
	resp, err := client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    model,
		FilePath: filename,
		Reader:   bytes.NewReader(req.Audio),
		Language: req.Language,
		Format:   goopenai.AudioResponseFormatJSON,
	})
	if err != nil {
		return nil, errors.Provider(op, "transcription failed", capture.get(), err)
	}
	return &provider.Response{Text: strings.TrimSpace(resp.Text)}, nil
}
