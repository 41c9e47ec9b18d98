package httptransport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tolk-server-go/internal/domain/auth"
	"tolk-server-go/internal/platform/config"
	"tolk-server-go/internal/platform/errors"
	"tolk-server-go/internal/platform/logging"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"session not found", errors.SessionNotFound("session.get", "abc"), http.StatusNotFound},
		{"unsupported language", errors.UnsupportedLanguage("language.resolve", "xx-XX", "transcribe"), http.StatusBadRequest},
		{"validation", errors.Validation("turn.execute", "from is required"), http.StatusBadRequest},
		{"provider", errors.Provider("provider.translate", "failed", "{}", nil), http.StatusBadGateway},
		{"storage", errors.New(errors.KindStorage, "session.create", "disk full"), http.StatusInternalServerError},
		{"plain", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestRespondErr(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	RespondErr(c, errors.Provider("provider.transcribe", "transcribe call failed", "quota exceeded", nil))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var resp struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		Code    int               `json:"code"`
		Data    ProviderErrorData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "transcribe call failed", resp.Message)
	assert.Equal(t, http.StatusBadGateway, resp.Code)
	assert.Equal(t, "quota exceeded", resp.Data.Details)
}

func securedEngine(t *testing.T, apiKey, secret string) *gin.Engine {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Log.Level = "error"
	router, err := Build(Options{
		Config:         cfg,
		Logger:         logging.Nop(),
		AuthMiddleware: AuthMiddleware(apiKey, auth.NewAuthToken(secret), logging.Nop()),
	})
	require.NoError(t, err)
	router.API.GET("/open", func(c *gin.Context) { c.String(http.StatusOK, "open") })
	router.Secured.GET("/whoami", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(subjectKey)) })
	return router.Engine
}

func get(engine *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	assert.Nil(t, AuthMiddleware("", auth.NewAuthToken(""), nil))

	engine := securedEngine(t, "", "")
	rec := get(engine, "/api/v1/whoami", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_APIKey(t *testing.T) {
	engine := securedEngine(t, "s3cret", "")

	assert.Equal(t, http.StatusOK, get(engine, "/api/v1/open", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, get(engine, "/api/v1/whoami", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, get(engine, "/api/v1/whoami", map[string]string{"x-api-key": "wrong"}).Code)

	rec := get(engine, "/api/v1/whoami", map[string]string{"x-api-key": "s3cret"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "api-key", rec.Body.String())

	// 未配置 jwt 密钥时拒绝 bearer
	rec = get(engine, "/api/v1/whoami", map[string]string{"Authorization": "Bearer abc"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_Bearer(t *testing.T) {
	engine := securedEngine(t, "", "jwt-secret")

	token, err := auth.NewAuthToken("jwt-secret").GenerateToken("front-desk")
	require.NoError(t, err)

	rec := get(engine, "/api/v1/whoami", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "front-desk", rec.Body.String())

	forged, err := auth.NewAuthToken("other").GenerateToken("front-desk")
	require.NoError(t, err)
	rec = get(engine, "/api/v1/whoami", map[string]string{"Authorization": "Bearer " + forged})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = get(engine, "/api/v1/whoami", map[string]string{"Authorization": token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBuild_RequiresConfig(t *testing.T) {
	_, err := Build(Options{})
	assert.Error(t, err)
}

func TestBuild_RequestIDAndNoRoute(t *testing.T) {
	engine := securedEngine(t, "", "")

	rec := get(engine, "/api/v1/open", nil)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	rec = get(engine, "/api/v1/open", map[string]string{RequestIDHeader: "desk-42"})
	assert.Equal(t, "desk-42", rec.Header().Get(RequestIDHeader))

	rec = get(engine, "/api/v1/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "api Not found")

	rec = get(engine, "/elsewhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message":"Not found"`)
}
