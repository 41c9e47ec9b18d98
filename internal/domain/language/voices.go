package language

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/singleflight"

	"tolk-server-go/internal/domain/provider"
	"tolk-server-go/internal/platform/cache"
	"tolk-server-go/internal/platform/errors"
)

const voiceCatalogKey = "catalog"

// VoiceInfo 对外返回的音色信息
type VoiceInfo struct {
	Name              string `json:"name"`
	ShortName         string `json:"short_name"`
	Locale            string `json:"locale"`
	LocalName         string `json:"local_name"`
	LocaleEnglishName string `json:"locale_english_name"`
	LocaleNativeName  string `json:"locale_native_name"`
	Gender            string `json:"gender"`
	VoiceType         string `json:"voice_type"`
}

// VoiceCatalog caches the provider's voice list. The first successful fetch populates it
// and only Refresh replaces it.
type VoiceCatalog struct {
	lister provider.VoiceLister
	store  cache.Store
	ttl    time.Duration
	group  singleflight.Group

	namesMu sync.Mutex
	names   map[string][2]string
}

// NewVoiceCatalog 创建音色目录缓存
func NewVoiceCatalog(lister provider.VoiceLister, store cache.Store, ttl time.Duration) *VoiceCatalog {
	if store == nil {
		store = cache.NewMemory()
	}
	return &VoiceCatalog{
		lister: lister,
		store:  store,
		ttl:    ttl,
		names:  make(map[string][2]string),
	}
}

// Get returns the cached catalog, fetching it on first use.
func (c *VoiceCatalog) Get(ctx context.Context) ([]VoiceInfo, error) {
	raw, ok, err := c.store.Get(ctx, voiceCatalogKey)
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "voices.cache_get", "failed to read voice cache", err)
	}
	if ok {
		var voices []VoiceInfo
		if err := sonic.Unmarshal(raw, &voices); err == nil {
			return voices, nil
		}
	}
	return c.fetch(ctx)
}

// Refresh 强制重新拉取音色目录
func (c *VoiceCatalog) Refresh(ctx context.Context) ([]VoiceInfo, error) {
	return c.fetch(ctx)
}

func (c *VoiceCatalog) fetch(ctx context.Context) ([]VoiceInfo, error) {
	v, err, _ := c.group.Do(voiceCatalogKey, func() (interface{}, error) {
		if c.lister == nil {
			return nil, errors.New(errors.KindConfig, "voices.fetch", "no voice catalog provider configured")
		}
		voices, err := c.lister.ListVoices(ctx)
		if err != nil {
			return nil, err
		}
		infos := make([]VoiceInfo, 0, len(voices))
		for _, voice := range voices {
			english, native := c.localeNames(voice.Locale)
			infos = append(infos, VoiceInfo{
				Name:              voice.Name,
				ShortName:         voice.ShortName,
				Locale:            voice.Locale,
				LocalName:         voice.LocalName,
				LocaleEnglishName: english,
				LocaleNativeName:  native,
				Gender:            voice.Gender,
				VoiceType:         voice.VoiceType,
			})
		}
		raw, err := sonic.Marshal(infos)
		if err != nil {
			return nil, errors.Wrap(errors.KindStorage, "voices.encode", "failed to encode voice catalog", err)
		}
		if err := c.store.Set(ctx, voiceCatalogKey, raw, c.ttl); err != nil {
			return nil, errors.Wrap(errors.KindStorage, "voices.cache_set", "failed to write voice cache", err)
		}
		return infos, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]VoiceInfo), nil
}

func (c *VoiceCatalog) localeNames(locale string) (string, string) {
	c.namesMu.Lock()
	defer c.namesMu.Unlock()
	if n, ok := c.names[locale]; ok {
		return n[0], n[1]
	}
	english, native := DisplayNames(locale)
	c.names[locale] = [2]string{english, native}
	return english, native
}
