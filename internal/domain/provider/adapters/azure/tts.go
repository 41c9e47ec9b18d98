package azure

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	"tolk-server-go/internal/domain/provider"
	"tolk-server-go/internal/platform/errors"
)

// DefaultOutputFormat RIFF 封装的 24kHz 16bit 单声道 PCM
const DefaultOutputFormat = "riff-24khz-16bit-mono-pcm"

// TTSAdapter calls the Azure text-to-speech REST endpoint with SSML.
type TTSAdapter struct {
	Client       *http.Client
	OutputFormat string
}

// Invoke 合成语音，返回 WAV 音频
func (a *TTSAdapter) Invoke(ctx context.Context, ep provider.Endpoint, req provider.Request) (*provider.Response, error) {
	const op = "azure.tts"

	format := a.OutputFormat
	if format == "" {
		format = DefaultOutputFormat
	}

	ssml, err := buildSSML(req.Text, req.Voice)
	if err != nil {
		return nil, errors.Wrap(errors.KindValidation, op, "failed to build ssml", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, ep.URL, bytes.NewReader(ssml))
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, op, "failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/ssml+xml")
	httpReq.Header.Set("X-Microsoft-OutputFormat", format)
	httpReq.Header.Set("User-Agent", "tolk-server")
	if err := (provider.HeaderAuthorizer{Header: "Ocp-Apim-Subscription-Key", Value: ep.APIKey}).Apply(ctx, httpReq); err != nil {
		return nil, err
	}

	audio, _, err := do(ctx, a.Client, op, httpReq)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, errors.Provider(op, "empty audio response", "", nil)
	}
	return &provider.Response{Audio: audio, ContentType: contentTypeFor(format)}, nil
}

// buildSSML wraps text in a single voice element. The xml:lang is taken from the voice name.
func buildSSML(text, voice string) ([]byte, error) {
	var escaped bytes.Buffer
	if err := xml.EscapeText(&escaped, []byte(text)); err != nil {
		return nil, err
	}
	lang := "en-US"
	if parts := strings.SplitN(voice, "-", 3); len(parts) == 3 {
		lang = parts[0] + "-" + parts[1]
	}
	var voiceAttr bytes.Buffer
	if err := xml.EscapeText(&voiceAttr, []byte(voice)); err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf(
		`<speak version="1.0" xml:lang="%s"><voice name="%s">%s</voice></speak>`,
		lang, voiceAttr.String(), escaped.String(),
	)), nil
}

func contentTypeFor(format string) string {
	switch {
	case strings.HasPrefix(format, "riff-"):
		return "audio/wav"
	case strings.Contains(format, "mp3"):
		return "audio/mpeg"
	case strings.Contains(format, "opus"):
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}
