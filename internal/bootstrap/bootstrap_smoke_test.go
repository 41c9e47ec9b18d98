package bootstrap

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformconfig "tolk-server-go/internal/platform/config"
	platformerrors "tolk-server-go/internal/platform/errors"
	platformlogging "tolk-server-go/internal/platform/logging"
)

func noEnv(string) (string, bool) { return "", false }

func testState(t *testing.T) *appState {
	t.Helper()
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
server:
  api_key: "front-desk-key"
  static_dir: ""
log:
  log_level: "error"
  log_dir: "` + filepath.ToSlash(filepath.Join(dir, "logs")) + `"
  log_file: "test.log"
database:
  dsn: ":memory:"
observability:
  enabled: true
  metrics_path: "/metrics"
`
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0o644))

	return &appState{
		opts:   Options{ConfigPath: configFile, Version: "test"},
		loader: platformconfig.NewLoader().WithDotEnv(false).WithPath(configFile).WithEnv(noEnv),
	}
}

func TestInitGraphOrder(t *testing.T) {
	steps := InitGraph()
	want := []string{
		"config:load",
		"logging:init-provider",
		"observability:setup-hooks",
		"storage:init-database",
		"eventbus:init-recorder",
		"cache:init-voice-catalog",
		"provider:init-gateway",
		"domain:init-services",
		"domain:init-pipeline",
		"auth:init-tokens",
	}
	ids := make([]string, len(steps))
	for i, step := range steps {
		ids[i] = step.ID
	}
	assert.Equal(t, want, ids)
}

func TestExecuteInitGraph(t *testing.T) {
	state := testState(t)
	require.NoError(t, executeInitSteps(context.Background(), InitGraph(), state))
	defer state.close()

	assert.NotNil(t, state.config)
	assert.NotNil(t, state.logger)
	assert.NotNil(t, state.db)
	assert.NotNil(t, state.gateway)
	assert.NotNil(t, state.sessions)
	assert.NotNil(t, state.pipeline)
	assert.NotNil(t, state.recaps)
	assert.NotNil(t, state.synthesizer)
	assert.NotNil(t, state.observabilityShutdown)
	assert.Contains(t, state.gateway.Registry().Keys(), "azure_speech")
}

func TestExecuteInitSteps_UnsatisfiedDependency(t *testing.T) {
	steps := []initStep{{
		ID:        "b",
		DependsOn: []string{"a"},
		Execute:   func(context.Context, *appState) error { return nil },
	}}
	err := executeInitSteps(context.Background(), steps, &appState{})
	require.Error(t, err)
	assert.True(t, platformerrors.IsKind(err, platformerrors.KindBootstrap))
}

func TestExecuteInitSteps_WrapsUntypedErrors(t *testing.T) {
	steps := []initStep{{
		ID:      "storage:broken",
		Kind:    platformerrors.KindStorage,
		Execute: func(context.Context, *appState) error { return io.ErrUnexpectedEOF },
	}}
	err := executeInitSteps(context.Background(), steps, &appState{})
	require.Error(t, err)
	assert.True(t, platformerrors.IsKind(err, platformerrors.KindStorage))
}

func TestBuildRouter(t *testing.T) {
	state := testState(t)
	require.NoError(t, executeInitSteps(context.Background(), InitGraph(), state))
	defer state.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine, live, err := buildRouter(ctx, state)
	require.NoError(t, err)
	defer live.Close()

	serve := func(method, path string, headers map[string]string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, serve(http.MethodGet, "/api/v1/misc/ping", nil).Code)
	assert.Equal(t, http.StatusOK, serve(http.MethodGet, "/openapi.json", nil).Code)
	assert.Equal(t, http.StatusOK, serve(http.MethodGet, "/metrics", nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(http.MethodGet, "/api/v1/nope", nil).Code)

	assert.Equal(t, http.StatusUnauthorized, serve(http.MethodPost, "/api/v1/sessions", nil).Code)
	rec := serve(http.MethodPost, "/api/v1/sessions", map[string]string{"x-api-key": "front-desk-key"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"created"`)
}

func TestLogBootstrapGraphOutput(t *testing.T) {
	tmp := t.TempDir()
	logger, err := platformlogging.NewWithConsole(platformlogging.Config{
		Level:    "info",
		Dir:      tmp,
		Filename: "graph.log",
	}, io.Discard)
	require.NoError(t, err)
	logBootstrapGraph(InitGraph(), logger)
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(filepath.Join(tmp, "graph.log"))
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.Contains(content, "初始化依赖关系概览"))
	for _, step := range InitGraph() {
		assert.Contains(t, content, step.ID)
	}
}
