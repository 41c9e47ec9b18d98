package provider

import (
	"context"
	"net/http"
	"time"
)

// Capability 供应商能力类别
type Capability string

const (
	CapabilityTranscribe Capability = "transcribe"
	CapabilityTranslate  Capability = "translate"
	CapabilitySummarize  Capability = "summarize"
	CapabilitySynthesize Capability = "synthesize"
)

// Vendor 端点所属的供应商变体，决定请求/响应的具体形状
type Vendor string

const (
	VendorAzureSpeech   Vendor = "azure_speech"
	VendorOpenAIWhisper Vendor = "openai_whisper"
	VendorAzureOpenAI   Vendor = "azure_openai"
	VendorOpenAIChat    Vendor = "openai_chat"
	VendorAzureTTS      Vendor = "azure_tts"
	VendorEdgeTTS       Vendor = "edge_tts"
)

// RequiresURL reports whether endpoints of this vendor need a configured URL.
func (v Vendor) RequiresURL() bool {
	return v != VendorEdgeTTS
}

// Endpoint 模型键对应的可调用端点
type Endpoint struct {
	Key          string
	Vendor       Vendor
	URL          string
	APIKey       string
	Model        string
	Deployment   string
	APIVersion   string
	Temperature  *float32
	Timeout      time.Duration
	Capabilities []Capability
}

// Supports 判断端点是否具备指定能力
func (e Endpoint) Supports(c Capability) bool {
	for _, capability := range e.Capabilities {
		if capability == c {
			return true
		}
	}
	return false
}

// Request 统一的供应商调用请求，不同能力使用不同字段
type Request struct {
	Capability Capability
	ModelKey   string

	// transcribe
	Audio         []byte
	AudioFilename string
	Language      string

	// translate / summarize / synthesize
	Text         string
	From         string
	To           string
	SystemPrompt string
	Voice        string
	Temperature  *float32
}

// Response 统一的供应商调用结果
type Response struct {
	Text        string
	Audio       []byte
	ContentType string
}

// Invoker dispatches a request to the endpoint registered for its model key.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (*Response, error)
}

// Adapter is one vendor variant. The endpoint has already been resolved and checked.
type Adapter interface {
	Invoke(ctx context.Context, endpoint Endpoint, req Request) (*Response, error)
}

// Authorizer decorates an outbound request with credentials.
type Authorizer interface {
	Apply(ctx context.Context, req *http.Request) error
}

// HeaderAuthorizer sets a fixed header, e.g. api-key or Ocp-Apim-Subscription-Key.
type HeaderAuthorizer struct {
	Header string
	Value  string
}

func (a HeaderAuthorizer) Apply(_ context.Context, req *http.Request) error {
	if a.Value != "" {
		req.Header.Set(a.Header, a.Value)
	}
	return nil
}

// BearerAuthorizer sets a static bearer token.
type BearerAuthorizer struct {
	Token string
}

func (a BearerAuthorizer) Apply(_ context.Context, req *http.Request) error {
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}
	return nil
}

// Voice 语音目录中的一条音色
type Voice struct {
	Name        string `json:"name"`
	ShortName   string `json:"short_name"`
	DisplayName string `json:"display_name,omitempty"`
	LocalName   string `json:"local_name"`
	Locale      string `json:"locale"`
	LocaleName  string `json:"locale_name,omitempty"`
	Gender      string `json:"gender"`
	VoiceType   string `json:"voice_type"`
}

// VoiceLister fetches the provider's voice catalog.
type VoiceLister interface {
	ListVoices(ctx context.Context) ([]Voice, error)
}
