package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"tolk-server-go/internal/domain/provider"
	"tolk-server-go/internal/platform/errors"
)

// SpeechAdapter calls the Azure short-audio recognition REST endpoint.
type SpeechAdapter struct {
	Client *http.Client
}

type recognitionResult struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
}

// Invoke 上传 16kHz 单声道 WAV，返回识别文本
func (a *SpeechAdapter) Invoke(ctx context.Context, ep provider.Endpoint, req provider.Request) (*provider.Response, error) {
	const op = "azure.speech"

	u, err := url.Parse(ep.URL)
	if err != nil {
		return nil, errors.Wrap(errors.KindConfig, op, "invalid endpoint url", err)
	}
	q := u.Query()
	q.Set("language", req.Language)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequest(http.MethodPost, u.String(), bytes.NewReader(req.Audio))
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, op, "failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "audio/wav")
	httpReq.Header.Set("Accept", "application/json")
	if err := (provider.HeaderAuthorizer{Header: "Ocp-Apim-Subscription-Key", Value: ep.APIKey}).Apply(ctx, httpReq); err != nil {
		return nil, err
	}

	body, _, err := do(ctx, a.Client, op, httpReq)
	if err != nil {
		return nil, err
	}

	var result recognitionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.Provider(op, "invalid recognition response", string(body), err)
	}
	return &provider.Response{Text: strings.TrimSpace(result.DisplayText)}, nil
}
