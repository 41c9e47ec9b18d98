package language

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tolk-server-go/internal/platform/errors"
)

func TestVoiceResolverTiers(t *testing.T) {
	repo := newMemRepo(Setting{Code: "fr-FR", Voice: "fr-FR-HenriNeural"})
	sessions := fakeSessions{
		"s1": {"fr-FR", "da-DK"},
		"s2": {"xx-XX", "da-DK"},
	}
	vr := NewVoiceResolver(NewResolver(repo, DefaultCatalog()), sessions, "da-", "")
	ctx := context.Background()

	tests := []struct {
		name  string
		query VoiceQuery
		want  string
	}{
		{name: "explicit voice wins", query: VoiceQuery{Voice: "custom", Language: "fr-FR", SessionID: "s1"}, want: "custom"},
		{name: "language setting voice", query: VoiceQuery{Language: "fr-FR", SessionID: "s1"}, want: "fr-FR-HenriNeural"},
		{name: "language catalog voice", query: VoiceQuery{Language: "tr-TR"}, want: "tr-TR-EmelNeural"},
		{name: "unknown language skips session and uses default", query: VoiceQuery{Language: "zz-ZZ", SessionID: "s1", Text: "bonjour"}, want: FallbackVoice},
		{name: "unknown language ignores host marker", query: VoiceQuery{Language: "zz-ZZ", SessionID: "s1", Text: "da-hej"}, want: FallbackVoice},
		{name: "session host marker", query: VoiceQuery{SessionID: "s1", Text: "da-hej"}, want: "da-DK-ChristelNeural"},
		{name: "session visitor", query: VoiceQuery{SessionID: "s1", Text: "Hej"}, want: "fr-FR-HenriNeural"},
		{name: "session language without voice", query: VoiceQuery{SessionID: "s2", Text: "x"}, want: FallbackVoice},
		{name: "default", query: VoiceQuery{}, want: FallbackVoice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := vr.Resolve(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVoiceResolverUnknownSession(t *testing.T) {
	vr := NewVoiceResolver(NewResolver(newMemRepo(), DefaultCatalog()), fakeSessions{}, "da-", "en-GB-LibbyNeural")
	_, err := vr.Resolve(context.Background(), VoiceQuery{SessionID: "missing", Text: "hi"})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindSessionNotFound))
}

func TestVoiceResolverLanguageWithoutVoiceSkipsSessionLookup(t *testing.T) {
	vr := NewVoiceResolver(NewResolver(newMemRepo(), DefaultCatalog()), fakeSessions{}, "da-", "custom-default")
	got, err := vr.Resolve(context.Background(), VoiceQuery{Language: "zz-ZZ", SessionID: "missing", Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "custom-default", got)
}
