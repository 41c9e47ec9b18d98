package azure

import (
	"context"
	"encoding/json"
	"net/http"

	"tolk-server-go/internal/domain/provider"
	"tolk-server-go/internal/platform/errors"
)

// VoiceLister fetches the regional voices/list catalog.
type VoiceLister struct {
	Client *http.Client
	URL    string
	Key    string
}

type voiceEntry struct {
	Name        string `json:"Name"`
	DisplayName string `json:"DisplayName"`
	LocalName   string `json:"LocalName"`
	ShortName   string `json:"ShortName"`
	Gender      string `json:"Gender"`
	Locale      string `json:"Locale"`
	LocaleName  string `json:"LocaleName"`
	VoiceType   string `json:"VoiceType"`
}

// ListVoices 拉取 Azure 音色列表
func (l *VoiceLister) ListVoices(ctx context.Context) ([]provider.Voice, error) {
	const op = "azure.voices"
	if l.URL == "" {
		return nil, errors.New(errors.KindConfig, op, "voice catalog url is not configured")
	}

	req, err := http.NewRequest(http.MethodGet, l.URL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, op, "failed to build request", err)
	}
	if err := (provider.HeaderAuthorizer{Header: "Ocp-Apim-Subscription-Key", Value: l.Key}).Apply(ctx, req); err != nil {
		return nil, err
	}

	body, _, err := do(ctx, l.Client, op, req)
	if err != nil {
		return nil, err
	}

	var entries []voiceEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, errors.Provider(op, "invalid voices response", string(body), err)
	}

	voices := make([]provider.Voice, 0, len(entries))
	for _, e := range entries {
		voices = append(voices, provider.Voice{
			Name:        e.Name,
			ShortName:   e.ShortName,
			DisplayName: e.DisplayName,
			LocalName:   e.LocalName,
			Locale:      e.Locale,
			LocaleName:  e.LocaleName,
			Gender:      e.Gender,
			VoiceType:   e.VoiceType,
		})
	}
	return voices, nil
}
