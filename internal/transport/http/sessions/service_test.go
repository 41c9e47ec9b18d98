package sessions

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tolk-server-go/internal/domain/eventbus"
	eventinfra "tolk-server-go/internal/domain/eventbus/infrastructure"
	"tolk-server-go/internal/domain/language"
	"tolk-server-go/internal/domain/provider"
	"tolk-server-go/internal/domain/recap"
	"tolk-server-go/internal/domain/session/service"
	"tolk-server-go/internal/domain/speech"
	"tolk-server-go/internal/domain/turn"
	"tolk-server-go/internal/platform/errors"
	"tolk-server-go/internal/platform/logging"
	"tolk-server-go/internal/platform/storage"
	testkit "tolk-server-go/internal/platform/testing"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    int             `json:"code"`
}

// scriptedInvoker 按能力返回固定结果
type scriptedInvoker struct {
	calls    []provider.Request
	failWith error
}

func (f *scriptedInvoker) Invoke(_ context.Context, req provider.Request) (*provider.Response, error) {
	f.calls = append(f.calls, req)
	if f.failWith != nil {
		return nil, f.failWith
	}
	switch req.Capability {
	case provider.CapabilityTranscribe:
		return &provider.Response{Text: "Bonjour"}, nil
	case provider.CapabilityTranslate:
		return &provider.Response{Text: "Hej"}, nil
	case provider.CapabilitySummarize:
		return &provider.Response{Text: "Français: salutation. Dansk: hilsen."}, nil
	default:
		return &provider.Response{Audio: []byte("ID3fake"), ContentType: "audio/mpeg"}, nil
	}
}

func newTestServer(t *testing.T) (*gin.Engine, *scriptedInvoker) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testkit.OpenTestDB(t)

	logger := logging.Nop()
	inv := &scriptedInvoker{}
	bus := eventbus.New()
	worker := eventbus.NewAsyncWorker(1, 100, time.Second)
	worker.Start()
	t.Cleanup(worker.Stop)
	events := eventinfra.NewEventLog(db)
	require.NoError(t, eventbus.NewRecorder(events, worker, logger).Subscribe(bus))

	resolver := language.NewResolver(storage.NewLanguageRepository(db), language.DefaultCatalog())
	sessions := service.NewSessionService(storage.NewSessionRepository(db), resolver, "da-DK", bus, logger)
	pipeline := turn.NewPipeline(sessions, resolver, inv, turn.NewNormalizer(turn.NormalizerConfig{TempDir: t.TempDir()}, logger), nil, logger)
	recaps := recap.NewAggregator(sessions, resolver, inv, "en", nil, logger)
	voices := language.NewVoiceResolver(resolver, sessions, "da-", "")
	synth := speech.NewSynthesizer(voices, inv, "azure_tts", logger)

	svc, err := NewService(sessions, pipeline, recaps, synth, 0, logger)
	require.NoError(t, err)
	svc.WithEventLog(events)

	engine := gin.New()
	require.NoError(t, svc.Register(context.Background(), engine.Group("/api/v1")))
	return engine, inv
}

func do(t *testing.T, engine *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func startSession(t *testing.T, engine *gin.Engine) string {
	rec, env := do(t, engine, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		SessionID string `json:"session_id"`
		Status    string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "created", created.Status)
	return created.SessionID
}

// wavBytes 生成 16kHz 单声道静音 WAV
func wavBytes(samples int) []byte {
	buf := &bytes.Buffer{}
	dataSize := uint32(samples * 2)
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVEfmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(buf, binary.LittleEndian, uint32(16000))
	_ = binary.Write(buf, binary.LittleEndian, uint32(32000))
	_ = binary.Write(buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, dataSize)
	buf.Write(make([]byte, dataSize))
	return buf.Bytes()
}

func multipartBody(t *testing.T, fields map[string]string, audio []byte) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if audio != nil {
		part, err := w.CreateFormFile("audio", "clip.wav")
		require.NoError(t, err)
		_, err = part.Write(audio)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestSessionFlow_French(t *testing.T) {
	engine, inv := newTestServer(t)
	id := startSession(t, engine)

	rec, env := do(t, engine, http.MethodPost, "/api/v1/sessions/"+id+"/language", map[string]string{"code": "fr-FR"})
	require.Equal(t, http.StatusOK, rec.Code, string(env.Data))
	var selected struct {
		Status    string                  `json:"status"`
		LanguageA string                  `json:"language_a"`
		LanguageB string                  `json:"language_b"`
		ModelA    language.ProviderConfig `json:"model_a"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &selected))
	assert.Equal(t, "language_set", selected.Status)
	assert.Equal(t, "fr-FR", selected.LanguageA)
	assert.Equal(t, "da-DK", selected.LanguageB)
	assert.Equal(t, "azure_speech", selected.ModelA.TranscribeModel)

	// 音频轮次
	body, contentType := multipartBody(t, map[string]string{"from": "fr-FR", "to": "da-DK"}, wavBytes(1600))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/turns", body)
	req.Header.Set("Content-Type", contentType)
	turnRec := httptest.NewRecorder()
	engine.ServeHTTP(turnRec, req)
	require.Equal(t, http.StatusOK, turnRec.Code, turnRec.Body.String())

	var turnEnv envelope
	require.NoError(t, json.Unmarshal(turnRec.Body.Bytes(), &turnEnv))
	var result map[string]string
	require.NoError(t, json.Unmarshal(turnEnv.Data, &result))
	assert.Equal(t, map[string]string{
		"session_id": id, "from": "fr-FR", "to": "da-DK", "original": "Bonjour", "translated": "Hej",
	}, result)

	// 文字轮次
	rec, _ = do(t, engine, http.MethodPost, "/api/v1/sessions/"+id+"/turns", map[string]string{"from": "da-DK", "to": "fr-FR", "text": "Velkommen"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, engine, http.MethodGet, "/api/v1/sessions/"+id+"/recap", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary struct {
		Summary      string            `json:"summary"`
		Translations []json.RawMessage `json:"translations"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, "Français: salutation. Dansk: hilsen.", summary.Summary)
	assert.Len(t, summary.Translations, 2)

	rec, env = do(t, engine, http.MethodPost, "/api/v1/sessions/"+id+"/finish", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"session_id":"`+id+`","status":"finished"}`, string(env.Data))

	rec, env = do(t, engine, http.MethodGet, "/api/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var full struct {
		Status       string            `json:"status"`
		Translations []json.RawMessage `json:"translations"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &full))
	assert.Equal(t, "finished", full.Status)
	assert.Len(t, full.Translations, 2)

	capabilities := make([]provider.Capability, len(inv.calls))
	for i, c := range inv.calls {
		capabilities[i] = c.Capability
	}
	assert.Equal(t, []provider.Capability{
		provider.CapabilityTranscribe,
		provider.CapabilityTranslate,
		provider.CapabilityTranslate,
		provider.CapabilitySummarize,
	}, capabilities)
}

func TestSessionErrors(t *testing.T) {
	engine, inv := newTestServer(t)
	id := startSession(t, engine)

	rec, _ := do(t, engine, http.MethodGet, "/api/v1/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, engine, http.MethodGet, "/api/v1/sessions?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = do(t, engine, http.MethodGet, "/api/v1/sessions?offset=-3", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := do(t, engine, http.MethodPost, "/api/v1/sessions/"+id+"/language", map[string]string{"code": "xx-XX"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)

	rec, _ = do(t, engine, http.MethodPost, "/api/v1/sessions/"+id+"/language", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// 未选择语言时不能翻译
	rec, _ = do(t, engine, http.MethodPost, "/api/v1/sessions/"+id+"/turns", map[string]string{"from": "fr-FR", "to": "da-DK", "text": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// 未绑定访客语言时回退到 "en"，静态目录中没有该代码
	rec, _ = do(t, engine, http.MethodGet, "/api/v1/sessions/"+id+"/recap", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, engine, http.MethodPost, "/api/v1/sessions/"+id+"/language", map[string]string{"code": "uk-UA"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, env = do(t, engine, http.MethodGet, "/api/v1/sessions/"+id+"/recap", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"session_id":"`+id+`","summary":"`+recap.NoDataSummary+`","translations":[]}`, string(env.Data))
	assert.Empty(t, inv.calls)
}

func TestProviderErrorCarriesDetails(t *testing.T) {
	engine, inv := newTestServer(t)
	id := startSession(t, engine)
	rec, _ := do(t, engine, http.MethodPost, "/api/v1/sessions/"+id+"/language", map[string]string{"code": "fr-FR"})
	require.Equal(t, http.StatusOK, rec.Code)

	inv.failWith = errors.Provider("provider.translate", "translate call failed", `{"error":{"code":"429"}}`, nil)
	rec, env := do(t, engine, http.MethodPost, "/api/v1/sessions/"+id+"/turns", map[string]string{"from": "fr-FR", "to": "da-DK", "text": "Bonjour"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"details":"{\"error\":{\"code\":\"429\"}}"}`, string(env.Data))

	inv.failWith = nil
	rec, env = do(t, engine, http.MethodGet, "/api/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"status":"language_set"`)
	assert.NotContains(t, string(env.Data), "translations")
}

func TestTranscribeAndSynthesize(t *testing.T) {
	engine, inv := newTestServer(t)

	body, contentType := multipartBody(t, map[string]string{"language": "da-DK"}, wavBytes(320))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"text":"Bonjour"`)

	rec, _ = do(t, engine, http.MethodPost, "/api/v1/tts", map[string]string{"text": "Hej", "lang": "da-DK"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "da-DK-ChristelNeural", rec.Header().Get("X-Voice"))
	assert.Equal(t, "ID3fake", rec.Body.String())

	last := inv.calls[len(inv.calls)-1]
	assert.Equal(t, provider.CapabilitySynthesize, last.Capability)
	assert.Equal(t, "azure_tts", last.ModelKey)

	rec, _ = do(t, engine, http.MethodPost, "/api/v1/tts", map[string]string{"text": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionEvents(t *testing.T) {
	engine, _ := newTestServer(t)
	id := startSession(t, engine)

	rec, _ := do(t, engine, http.MethodPost, "/api/v1/sessions/"+id+"/language", map[string]string{"code": "fr-FR"})
	require.Equal(t, http.StatusOK, rec.Code)

	var types []string
	require.Eventually(t, func() bool {
		rec, env := do(t, engine, http.MethodGet, "/api/v1/sessions/"+id+"/events", nil)
		if rec.Code != http.StatusOK {
			return false
		}
		var events []struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(env.Data, &events); err != nil {
			return false
		}
		types = types[:0]
		for _, e := range events {
			types = append(types, e.Type)
		}
		return len(types) == 2
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{eventbus.EventSessionStarted, eventbus.EventLanguageSelected}, types)

	rec, _ = do(t, engine, http.MethodGet, "/api/v1/sessions/missing/events", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSessionsWithoutLimitReturnsAll(t *testing.T) {
	engine, _ := newTestServer(t)
	for i := 0; i < 55; i++ {
		startSession(t, engine)
	}

	rec, env := do(t, engine, http.MethodGet, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &all))
	assert.Len(t, all, 55)

	rec, env = do(t, engine, http.MethodGet, "/api/v1/sessions?limit=10&offset=50", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page, 5)
}
