package language

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tolk-server-go/internal/domain/provider"
	"tolk-server-go/internal/platform/cache"
	"tolk-server-go/internal/platform/errors"
	"tolk-server-go/internal/platform/logging"
)

func testDefaults() Defaults {
	return Defaults{
		HostCode:         "da-DK",
		Enabled:          []string{"da-DK", "en-GB", "fr-FR"},
		TranscribeModel:  DefaultTranscribeModel,
		TranslationModel: DefaultTranslationModel,
		SummaryModel:     DefaultSummaryModel,
	}
}

func sampleVoices() []provider.Voice {
	return []provider.Voice{
		{Name: "Microsoft Server Speech Text to Speech Voice (da-DK, ChristelNeural)", ShortName: "da-DK-ChristelNeural", Locale: "da-DK", LocalName: "Christel", Gender: "Female", VoiceType: "Neural"},
		{Name: "Microsoft Server Speech Text to Speech Voice (da-DK, JeppeNeural)", ShortName: "da-DK-JeppeNeural", Locale: "da-DK", LocalName: "Jeppe", Gender: "Male", VoiceType: "Neural"},
		{Name: "Microsoft Server Speech Text to Speech Voice (fr-FR, DeniseNeural)", ShortName: "fr-FR-DeniseNeural", Locale: "fr-FR", LocalName: "Denise", Gender: "Female", VoiceType: "Neural"},
		{Name: "Microsoft Server Speech Text to Speech Voice (nl-NL, FennaNeural)", ShortName: "nl-NL-FennaNeural", Locale: "nl-NL", LocalName: "Fenna", Gender: "Female", VoiceType: "Neural"},
	}
}

func newTestService(repo Repository, lister provider.VoiceLister) *Service {
	voices := NewVoiceCatalog(lister, cache.NewMemory(), 0)
	return NewService(repo, DefaultCatalog(), voices, testDefaults(), logging.Nop())
}

func TestServiceGetAndUpdate(t *testing.T) {
	repo := newMemRepo(Setting{Code: "fr-FR", Voice: "fr-FR-DeniseNeural", TranslationModel: "gpt4o-mini"})
	svc := newTestService(repo, nil)
	ctx := context.Background()

	_, err := svc.Get(ctx, "nl-NL")
	assert.True(t, errors.IsKind(err, errors.KindNotFound))

	_, err = svc.Update(ctx, "nl-NL", SettingPatch{Enabled: boolPtr(true)})
	assert.True(t, errors.IsKind(err, errors.KindNotFound))

	updated, err := svc.Update(ctx, "fr-FR", SettingPatch{Enabled: boolPtr(true), Voice: strPtr("fr-FR-HenriNeural")})
	require.NoError(t, err)
	assert.True(t, updated.Enabled)
	assert.Equal(t, "fr-FR-HenriNeural", updated.Voice)
	// 未提供的字段保持不变
	assert.Equal(t, "gpt4o-mini", updated.TranslationModel)
}

func TestServiceBulkUpdate(t *testing.T) {
	repo := newMemRepo(Setting{Code: "fr-FR", Voice: "fr-FR-DeniseNeural"})
	svc := newTestService(repo, nil)
	ctx := context.Background()

	result, err := svc.BulkUpdate(ctx, []SettingPatch{
		{Code: "fr-FR", Enabled: boolPtr(true)},
		{Code: "", Enabled: boolPtr(true)},
		{Code: "nl-NL", TranslationModel: strPtr("promte_4o")},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Updated)
	require.Len(t, result.Languages, 2)

	fr, err := svc.Get(ctx, "fr-FR")
	require.NoError(t, err)
	assert.True(t, fr.Enabled)
	assert.Equal(t, "fr-FR-DeniseNeural", fr.Voice)

	nl, err := svc.Get(ctx, "nl-NL")
	require.NoError(t, err)
	assert.False(t, nl.Enabled)
	assert.Equal(t, "promte_4o", nl.TranslationModel)
	assert.NotEmpty(t, nl.ID)
}

func TestServiceSeed(t *testing.T) {
	repo := newMemRepo(Setting{Code: "nl-NL", Voice: "custom"})
	lister := &mockLister{}
	lister.On("ListVoices", mock.Anything).Return(sampleVoices(), nil).Once()
	svc := newTestService(repo, lister)
	ctx := context.Background()

	result, err := svc.Seed(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, &SeedResult{Created: 2, EnabledByDefault: 2, TotalLocales: 3}, result)

	da, err := svc.Get(ctx, "da-DK")
	require.NoError(t, err)
	assert.Equal(t, "da-DK-ChristelNeural", da.Voice)
	assert.Equal(t, DefaultTranscribeModel, da.TranscribeModel)

	nl, err := svc.Get(ctx, "nl-NL")
	require.NoError(t, err)
	assert.Equal(t, "custom", nl.Voice)

	again, err := svc.Seed(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	lister.AssertNumberOfCalls(t, "ListVoices", 1)
}

func TestServiceSeedRefresh(t *testing.T) {
	lister := &mockLister{}
	lister.On("ListVoices", mock.Anything).Return(sampleVoices(), nil)
	svc := newTestService(newMemRepo(), lister)
	ctx := context.Background()

	_, err := svc.Seed(ctx, false)
	require.NoError(t, err)
	_, err = svc.Seed(ctx, true)
	require.NoError(t, err)
	lister.AssertNumberOfCalls(t, "ListVoices", 2)
}

func TestServiceAvailable(t *testing.T) {
	ctx := context.Background()

	t.Run("falls back to catalog", func(t *testing.T) {
		svc := newTestService(newMemRepo(Setting{Code: "da-DK", Enabled: true}), nil)
		langs, err := svc.Available(ctx)
		require.NoError(t, err)
		assert.Len(t, langs, 14)
		for _, l := range langs {
			assert.NotEqual(t, "da-DK", l.Code)
			assert.NotEmpty(t, l.Region)
		}
	})

	t.Run("enabled settings", func(t *testing.T) {
		lister := &mockLister{}
		lister.On("ListVoices", mock.Anything).Return(sampleVoices(), nil)
		repo := newMemRepo(
			Setting{Code: "da-DK", Enabled: true},
			Setting{Code: "nl-NL", Enabled: true, Voice: "nl-NL-FennaNeural"},
			Setting{Code: "fr-FR", Enabled: true, Voice: "fr-FR-DeniseNeural"},
			Setting{Code: "tr-TR", Enabled: false},
		)
		svc := newTestService(repo, lister)
		langs, err := svc.Available(ctx)
		require.NoError(t, err)
		require.Len(t, langs, 2)
		assert.Equal(t, "fr-FR", langs[0].Code)
		assert.Equal(t, "nl-NL", langs[1].Code)
		assert.Equal(t, "nl-NL-FennaNeural", langs[1].Voice)
		assert.NotEmpty(t, langs[0].EnglishName)
		assert.Empty(t, langs[0].Region)
	})

	t.Run("voice catalog failure uses local names", func(t *testing.T) {
		lister := &mockLister{}
		lister.On("ListVoices", mock.Anything).Return(nil, stderrors.New("boom"))
		svc := newTestService(newMemRepo(Setting{Code: "fr-FR", Enabled: true}), lister)
		langs, err := svc.Available(ctx)
		require.NoError(t, err)
		require.Len(t, langs, 1)
		assert.Contains(t, langs[0].EnglishName, "French")
	})
}
