package language

import "context"

// Capability 可按语言配置的模型能力
type Capability string

const (
	CapabilityTranscribe Capability = "transcribe"
	CapabilityTranslate  Capability = "translate"
	CapabilitySummarize  Capability = "summarize"
)

// ProviderConfig 一种语言的三元模型配置，会话创建语言时快照保存
type ProviderConfig struct {
	TranscribeModel  string `json:"transcribeModel"`
	TranslationModel string `json:"translationModel"`
	SummaryModel     string `json:"summaryModel"`
}

// Model returns the model key for a capability.
func (p ProviderConfig) Model(c Capability) string {
	switch c {
	case CapabilityTranscribe:
		return p.TranscribeModel
	case CapabilityTranslate:
		return p.TranslationModel
	case CapabilitySummarize:
		return p.SummaryModel
	}
	return ""
}

// Setting 可在运行时修改的语言设置，缺失的行是合法状态
type Setting struct {
	ID               string `json:"id"`
	Code             string `json:"code"`
	Enabled          bool   `json:"enabled"`
	Voice            string `json:"voice"`
	TranscribeModel  string `json:"transcribe_model"`
	TranslationModel string `json:"translation_model"`
	SummaryModel     string `json:"summary_model"`
}

// Model returns the configured key for a capability, possibly empty.
func (s *Setting) Model(c Capability) string {
	if s == nil {
		return ""
	}
	return ProviderConfig{
		TranscribeModel:  s.TranscribeModel,
		TranslationModel: s.TranslationModel,
		SummaryModel:     s.SummaryModel,
	}.Model(c)
}

// SettingPatch 部分更新，nil 字段保持不变
type SettingPatch struct {
	Code             string  `json:"code"`
	Enabled          *bool   `json:"enabled,omitempty"`
	Voice            *string `json:"voice,omitempty"`
	TranscribeModel  *string `json:"transcribe_model,omitempty"`
	TranslationModel *string `json:"translation_model,omitempty"`
	SummaryModel     *string `json:"summary_model,omitempty"`
}

// Apply copies the present fields onto s.
func (p SettingPatch) Apply(s *Setting) {
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.Voice != nil {
		s.Voice = *p.Voice
	}
	if p.TranscribeModel != nil {
		s.TranscribeModel = *p.TranscribeModel
	}
	if p.TranslationModel != nil {
		s.TranslationModel = *p.TranslationModel
	}
	if p.SummaryModel != nil {
		s.SummaryModel = *p.SummaryModel
	}
}

// Repository 语言设置数据访问接口
type Repository interface {
	// FindByCode returns nil, nil when no row exists.
	FindByCode(ctx context.Context, code string) (*Setting, error)
	List(ctx context.Context) ([]*Setting, error)
	// ListEnabled returns enabled rows ordered by code.
	ListEnabled(ctx context.Context) ([]*Setting, error)
	Create(ctx context.Context, setting *Setting) error
	Update(ctx context.Context, setting *Setting) error
	// ApplyPatches upserts all patches in one transaction and returns the resulting rows.
	ApplyPatches(ctx context.Context, patches []SettingPatch) ([]*Setting, error)
}
