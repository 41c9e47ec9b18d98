package language

import (
	"context"
	"strings"

	"tolk-server-go/internal/platform/errors"
)

// Resolver picks the model key for a language and capability.
// A non-empty setting field wins over the catalog default. Nothing is cached.
type Resolver struct {
	settings Repository
	catalog  *Catalog
}

// NewResolver 创建模型解析器
func NewResolver(settings Repository, catalog *Catalog) *Resolver {
	return &Resolver{settings: settings, catalog: catalog}
}

// Catalog exposes the static tier.
func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}

// Resolve 按能力解析模型键
func (r *Resolver) Resolve(ctx context.Context, code string, capability Capability) (string, error) {
	setting, err := r.settings.FindByCode(ctx, code)
	if err != nil {
		return "", err
	}
	if key := strings.TrimSpace(setting.Model(capability)); key != "" {
		return key, nil
	}
	if e, ok := r.catalog.Lookup(code); ok {
		if key := e.Models.Model(capability); key != "" {
			return key, nil
		}
	}
	return "", errors.UnsupportedLanguage("language.resolve", code, string(capability))
}

// ResolveConfig resolves all three capabilities. Each falls back independently.
func (r *Resolver) ResolveConfig(ctx context.Context, code string) (ProviderConfig, error) {
	var cfg ProviderConfig
	var err error
	if cfg.TranscribeModel, err = r.Resolve(ctx, code, CapabilityTranscribe); err != nil {
		return ProviderConfig{}, err
	}
	if cfg.TranslationModel, err = r.Resolve(ctx, code, CapabilityTranslate); err != nil {
		return ProviderConfig{}, err
	}
	if cfg.SummaryModel, err = r.Resolve(ctx, code, CapabilitySummarize); err != nil {
		return ProviderConfig{}, err
	}
	return cfg, nil
}

// Voice returns the setting voice, then the catalog voice. Empty when neither exists.
func (r *Resolver) Voice(ctx context.Context, code string) (string, error) {
	setting, err := r.settings.FindByCode(ctx, code)
	if err != nil {
		return "", err
	}
	if setting != nil && strings.TrimSpace(setting.Voice) != "" {
		return setting.Voice, nil
	}
	if e, ok := r.catalog.Lookup(code); ok {
		return e.Voice, nil
	}
	return "", nil
}
