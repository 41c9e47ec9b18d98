package language

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tolk-server-go/internal/domain/eventbus"
	"tolk-server-go/internal/platform/errors"
	"tolk-server-go/internal/platform/logging"
)

// Defaults 初始化语言设置时使用的默认值
type Defaults struct {
	HostCode         string
	Enabled          []string
	TranscribeModel  string
	TranslationModel string
	SummaryModel     string
}

// BulkResult 批量更新结果
type BulkResult struct {
	Updated   int        `json:"updated"`
	Languages []*Setting `json:"languages"`
}

// SeedResult 从音色目录初始化的统计
type SeedResult struct {
	Created          int `json:"created"`
	EnabledByDefault int `json:"enabled_by_default"`
	TotalLocales     int `json:"total_locales"`
}

// AvailableLanguage 前端可选的访客语言
type AvailableLanguage struct {
	Code        string `json:"code"`
	EnglishName string `json:"english_name"`
	NativeName  string `json:"native_name"`
	Voice       string `json:"voice,omitempty"`
	Region      string `json:"region,omitempty"`
}

// Service 语言设置管理
type Service struct {
	repo      Repository
	catalog   *Catalog
	voices    *VoiceCatalog
	defaults  Defaults
	publisher eventbus.Publisher
	logger    *logging.Logger
}

// NewService 创建语言设置服务
func NewService(repo Repository, catalog *Catalog, voices *VoiceCatalog, defaults Defaults, logger *logging.Logger) *Service {
	return &Service{
		repo:      repo,
		catalog:   catalog,
		voices:    voices,
		defaults:  defaults,
		publisher: eventbus.Nop{},
		logger:    logger,
	}
}

// WithPublisher 设置语言设置变更事件的发布者
func (s *Service) WithPublisher(p eventbus.Publisher) *Service {
	if p != nil {
		s.publisher = p
	}
	return s
}

func (s *Service) changed(action string, codes ...string) {
	if len(codes) == 0 {
		return
	}
	s.publisher.Publish(eventbus.EventLanguageSettingsChanged, eventbus.LanguageEventData{
		Codes:  codes,
		Action: action,
		At:     time.Now(),
	})
}

// List 返回全部语言设置（按代码排序）
func (s *Service) List(ctx context.Context) ([]*Setting, error) {
	return s.repo.List(ctx)
}

// Get 返回单个语言设置，不存在时返回 KindNotFound
func (s *Service) Get(ctx context.Context, code string) (*Setting, error) {
	setting, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, errors.New(errors.KindNotFound, "language.get", fmt.Sprintf("Language '%s' not found", code))
	}
	return setting, nil
}

// Update applies a partial update to an existing row.
func (s *Service) Update(ctx context.Context, code string, patch SettingPatch) (*Setting, error) {
	setting, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, errors.New(errors.KindNotFound, "language.update", fmt.Sprintf("Language '%s' not found", code))
	}
	patch.Apply(setting)
	if err := s.repo.Update(ctx, setting); err != nil {
		return nil, err
	}
	s.logger.InfoTag("语言", "更新语言设置 %s", code)
	s.changed("update", code)
	return setting, nil
}

// BulkUpdate upserts every patch that carries a code. Items without a code are skipped.
func (s *Service) BulkUpdate(ctx context.Context, patches []SettingPatch) (*BulkResult, error) {
	valid := make([]SettingPatch, 0, len(patches))
	for _, p := range patches {
		p.Code = strings.TrimSpace(p.Code)
		if p.Code == "" {
			continue
		}
		valid = append(valid, p)
	}
	settings, err := s.repo.ApplyPatches(ctx, valid)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		settings = []*Setting{}
	}
	s.logger.InfoTag("语言", "批量更新语言设置 %d 项", len(settings))
	codes := make([]string, len(settings))
	for i, setting := range settings {
		codes[i] = setting.Code
	}
	s.changed("bulk_update", codes...)
	return &BulkResult{Updated: len(settings), Languages: settings}, nil
}

// Enabled 返回已启用的语言（按代码排序）
func (s *Service) Enabled(ctx context.Context) ([]*Setting, error) {
	return s.repo.ListEnabled(ctx)
}

// Seed creates one setting per voice-catalog locale that has no row yet.
// refresh forces the voice catalog to be refetched first.
func (s *Service) Seed(ctx context.Context, refresh bool) (*SeedResult, error) {
	var (
		voices []VoiceInfo
		err    error
	)
	if s.voices == nil {
		return nil, errors.New(errors.KindConfig, "language.seed", "voice catalog is not configured")
	}
	if refresh {
		voices, err = s.voices.Refresh(ctx)
	} else {
		voices, err = s.voices.Get(ctx)
	}
	if err != nil {
		return nil, err
	}

	enabled := make(map[string]bool, len(s.defaults.Enabled))
	for _, code := range s.defaults.Enabled {
		enabled[code] = true
	}

	seen := make(map[string]bool)
	var created []string
	result := &SeedResult{}
	for _, voice := range voices {
		code := voice.Locale
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true

		existing, err := s.repo.FindByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}

		setting := &Setting{
			Code:             code,
			Enabled:          enabled[code],
			Voice:            voice.ShortName,
			TranscribeModel:  s.defaults.TranscribeModel,
			TranslationModel: s.defaults.TranslationModel,
			SummaryModel:     s.defaults.SummaryModel,
		}
		if err := s.repo.Create(ctx, setting); err != nil {
			return nil, err
		}
		result.Created++
		created = append(created, code)
		if setting.Enabled {
			result.EnabledByDefault++
		}
	}
	result.TotalLocales = len(seen)

	s.logger.InfoTag("语言", "初始化语言设置: 新建 %d, 默认启用 %d, 共 %d 个语言区域",
		result.Created, result.EnabledByDefault, result.TotalLocales)
	s.changed("seed", created...)
	return result, nil
}

// Available lists the visitor languages offered to clients. Enabled settings other than
// the host win; without any, the static catalog minus the host is returned.
func (s *Service) Available(ctx context.Context) ([]AvailableLanguage, error) {
	enabled, err := s.repo.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]AvailableLanguage, 0, len(enabled))
	if len(enabled) > 0 {
		codes := make([]string, 0, len(enabled))
		for _, setting := range enabled {
			codes = append(codes, setting.Code)
		}
		names := s.localeNames(ctx, codes)
		for _, setting := range enabled {
			if setting.Code == s.defaults.HostCode {
				continue
			}
			english, native := setting.Code, setting.Code
			if n, ok := names[setting.Code]; ok {
				english, native = n[0], n[1]
			}
			out = append(out, AvailableLanguage{
				Code:        setting.Code,
				EnglishName: english,
				NativeName:  native,
				Voice:       setting.Voice,
			})
		}
		if len(out) > 0 {
			return out, nil
		}
	}

	for _, e := range s.catalog.Entries() {
		if e.Code == s.defaults.HostCode {
			continue
		}
		out = append(out, AvailableLanguage{
			Code:        e.Code,
			EnglishName: e.EnglishName,
			NativeName:  e.NativeName,
			Region:      e.Region,
		})
	}
	return out, nil
}

// localeNames maps locale to display names via the voice catalog.
// When the catalog is unavailable the names are computed locally.
func (s *Service) localeNames(ctx context.Context, codes []string) map[string][2]string {
	names := make(map[string][2]string, len(codes))
	var voices []VoiceInfo
	var err error
	if s.voices != nil {
		voices, err = s.voices.Get(ctx)
	}
	if s.voices == nil || err != nil {
		if err != nil {
			s.logger.WarnTag("语言", "获取音色目录失败，使用本地语言名称: %v", err)
		}
		for _, code := range codes {
			english, native := DisplayNames(code)
			names[code] = [2]string{english, native}
		}
		return names
	}
	for _, v := range voices {
		if _, ok := names[v.Locale]; !ok {
			names[v.Locale] = [2]string{v.LocaleEnglishName, v.LocaleNativeName}
		}
	}
	return names
}

// Voices 返回缓存的音色目录
func (s *Service) Voices(ctx context.Context) ([]VoiceInfo, error) {
	if s.voices == nil {
		return nil, errors.New(errors.KindConfig, "language.voices", "voice catalog is not configured")
	}
	return s.voices.Get(ctx)
}
