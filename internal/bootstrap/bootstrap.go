package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	domainauth "tolk-server-go/internal/domain/auth"
	"tolk-server-go/internal/domain/eventbus"
	eventinfra "tolk-server-go/internal/domain/eventbus/infrastructure"
	eventrepo "tolk-server-go/internal/domain/eventbus/repository"
	"tolk-server-go/internal/domain/language"
	"tolk-server-go/internal/domain/provider"
	"tolk-server-go/internal/domain/provider/adapters"
	"tolk-server-go/internal/domain/provider/adapters/azure"
	"tolk-server-go/internal/domain/recap"
	sessionservice "tolk-server-go/internal/domain/session/service"
	"tolk-server-go/internal/domain/speech"
	"tolk-server-go/internal/domain/turn"
	platformcache "tolk-server-go/internal/platform/cache"
	platformconfig "tolk-server-go/internal/platform/config"
	platformerrors "tolk-server-go/internal/platform/errors"
	platformlogging "tolk-server-go/internal/platform/logging"
	platformobservability "tolk-server-go/internal/platform/observability"
	platformstorage "tolk-server-go/internal/platform/storage"
	httptransport "tolk-server-go/internal/transport/http"
	httpdocs "tolk-server-go/internal/transport/http/docs"
	httplanguages "tolk-server-go/internal/transport/http/languages"
	httpmisc "tolk-server-go/internal/transport/http/misc"
	httpsessions "tolk-server-go/internal/transport/http/sessions"
	"tolk-server-go/internal/transport/ws"
)

// Options 启动参数
type Options struct {
	ConfigPath string
	Version    string
}

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	opts   Options
	loader *platformconfig.Loader

	config                *platformconfig.Config
	configPath            string
	logger                *platformlogging.Logger
	observabilityShutdown platformobservability.ShutdownFunc

	db         *gorm.DB
	bus        evbus.Bus
	worker     *eventbus.AsyncWorker
	events     eventrepo.EventLog
	voiceCache platformcache.Store
	voices     *language.VoiceCatalog

	gateway     *provider.Gateway
	resolver    *language.Resolver
	languages   *language.Service
	sessions    *sessionservice.SessionService
	pipeline    *turn.Pipeline
	recaps      *recap.Aggregator
	synthesizer *speech.Synthesizer
	tokens      *domainauth.AuthToken
}

// Run 启动整个服务生命周期，负责加载配置、初始化依赖和优雅关停。
func Run(ctx context.Context, opts Options) error {
	state := &appState{
		opts:   opts,
		loader: platformconfig.NewLoader().WithPath(opts.ConfigPath),
	}

	steps := InitGraph()
	err := executeInitSteps(ctx, steps, state)
	defer state.close()
	if err != nil {
		return err
	}

	logger := state.logger
	logBootstrapGraph(steps, logger)

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if _, err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return fmt.Errorf("启动 Http 服务失败: %w", err)
	}

	return waitForShutdown(signalCtx, cancel, logger, group)
}

func logBootstrapGraph(steps []initStep, logger *platformlogging.Logger) {
	if logger == nil {
		return
	}
	logger.InfoTag("引导", "初始化依赖关系概览")
	for _, step := range steps {
		if len(step.DependsOn) == 0 {
			logger.InfoTag("引导", "%s (%s)", step.ID, step.Title)
			continue
		}
		logger.InfoTag("引导", "%s (%s) <- %s", step.ID, step.Title, strings.Join(step.DependsOn, ", "))
	}
	logger.InfoTag("引导", "启动服务")
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

// InitGraph 返回按依赖顺序排列的初始化步骤
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "observability:setup-hooks",
			Title:     "Setup observability hooks",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   setupObservabilityStep,
		},
		{
			ID:        "storage:init-database",
			Title:     "Open database and run migrations",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindStorage,
			Execute:   initDatabaseStep,
		},
		{
			ID:        "eventbus:init-recorder",
			Title:     "Initialise event bus and recorder",
			DependsOn: []string{"storage:init-database"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initEventBusStep,
		},
		{
			ID:        "cache:init-voice-catalog",
			Title:     "Initialise voice catalog cache",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindStorage,
			Execute:   initVoiceCatalogStep,
		},
		{
			ID:        "provider:init-gateway",
			Title:     "Initialise provider registry and gateway",
			DependsOn: []string{"observability:setup-hooks"},
			Kind:      platformerrors.KindConfig,
			Execute:   initGatewayStep,
		},
		{
			ID:        "domain:init-services",
			Title:     "Initialise language and session services",
			DependsOn: []string{"storage:init-database", "eventbus:init-recorder", "cache:init-voice-catalog"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initDomainServicesStep,
		},
		{
			ID:        "domain:init-pipeline",
			Title:     "Initialise turn pipeline, recap and synthesis",
			DependsOn: []string{"domain:init-services", "provider:init-gateway"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initPipelineStep,
		},
		{
			ID:        "auth:init-tokens",
			Title:     "Initialise API authentication",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initAuthStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	loader := state.loader
	if loader == nil {
		loader = platformconfig.NewLoader()
	}
	result, err := loader.Load()
	if err != nil {
		return err
	}
	state.config = result.Config
	state.configPath = result.Path
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"logging:init-provider",
			"config not loaded",
		)
	}

	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to initialize logging provider", err)
	}
	state.logger = logger
	logger.InfoTag("引导", "日志模块就绪 [%s] %s", state.config.Log.Level, state.configPath)
	return nil
}

func setupObservabilityStep(ctx context.Context, state *appState) error {
	cfg := platformobservability.Config{
		Enabled:     state.config.Observability.Enabled,
		MetricsPath: state.config.Observability.MetricsPath,
	}
	shutdown, err := platformobservability.Setup(ctx, cfg, state.logger.Slog())
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "observability:setup-hooks", "failed to setup observability hooks", err)
	}
	state.observabilityShutdown = shutdown
	return nil
}

func initDatabaseStep(_ context.Context, state *appState) error {
	db, err := platformstorage.Open(state.config.Database.DSN)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "storage:init-database", "failed to initialize database", err)
	}
	state.db = db
	state.logger.InfoTag("存储", "数据库就绪 %s", state.config.Database.DSN)
	return nil
}

func initEventBusStep(ctx context.Context, state *appState) error {
	state.bus = eventbus.New()

	worker := eventbus.NewAsyncWorker(2, 1000, 10*time.Second)
	worker.OnPanic(func(r interface{}) {
		state.logger.ErrorTag("事件", "事件处理崩溃: %v", r)
	})
	worker.Start()
	state.worker = worker

	state.events = eventinfra.NewEventLog(state.db)
	if retention := state.config.Database.EventRetention; retention > 0 {
		removed, err := state.events.Prune(ctx, time.Now().Add(-retention))
		if err != nil {
			state.logger.WarnTag("事件", "清理过期事件失败: %v", err)
		} else if removed > 0 {
			state.logger.InfoTag("事件", "已清理 %d 条过期事件", removed)
		}
	}

	recorder := eventbus.NewRecorder(state.events, worker, state.logger)
	if err := recorder.Subscribe(state.bus); err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "eventbus:init-recorder", "failed to subscribe event recorder", err)
	}
	return nil
}

func initVoiceCatalogStep(_ context.Context, state *appState) error {
	cfg := state.config.VoiceCatalog
	cacheCfg := platformcache.Config{Driver: cfg.Driver}
	if cfg.Driver == platformcache.DriverRedis {
		cacheCfg.Redis = &platformcache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		}
	}
	store, err := platformcache.New(cacheCfg)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "cache:init-voice-catalog", "failed to create voice cache", err)
	}
	state.voiceCache = store

	var lister provider.VoiceLister
	if strings.TrimSpace(cfg.URL) != "" {
		lister = &azure.VoiceLister{URL: cfg.URL, Key: state.config.Azure.SpeechKey}
	} else {
		state.logger.WarnTag("语言", "未配置音色目录地址，/voices 与初始化语言设置不可用")
	}
	state.voices = language.NewVoiceCatalog(lister, store, cfg.TTL)
	return nil
}

func initGatewayStep(_ context.Context, state *appState) error {
	registry, err := provider.NewRegistryFromConfig(state.config.Providers)
	if err != nil {
		return err
	}
	gateway := provider.NewGateway(registry, state.logger)

	opts := adapters.Options{TTSOutputFormat: state.config.Synthesis.OutputFormat}
	if strings.EqualFold(state.config.Azure.Auth, "entra") {
		cred, err := azure.NewCredential(state.config.Azure.TenantID, state.config.Azure.ClientID, state.config.Azure.ClientSecret)
		if err != nil {
			return platformerrors.Wrap(platformerrors.KindConfig, "provider:init-gateway", "failed to create Entra credential", err)
		}
		opts.Entra = cred
		state.logger.InfoTag("LLM", "Azure OpenAI 使用 Entra ID 鉴权")
	}
	adapters.Install(gateway, opts)

	state.gateway = gateway
	state.logger.InfoTag("LLM", "已注册模型: %s", strings.Join(registry.Keys(), ", "))
	return nil
}

func initDomainServicesStep(_ context.Context, state *appState) error {
	cfg := state.config.Languages
	catalog := language.DefaultCatalog()
	settings := platformstorage.NewLanguageRepository(state.db)

	state.resolver = language.NewResolver(settings, catalog)
	state.languages = language.NewService(settings, catalog, state.voices, language.Defaults{
		HostCode:         cfg.HostCode,
		Enabled:          cfg.DefaultEnabled,
		TranscribeModel:  cfg.DefaultTranscribeModel,
		TranslationModel: cfg.DefaultTranslationModel,
		SummaryModel:     cfg.DefaultSummaryModel,
	}, state.logger).WithPublisher(state.bus)

	state.sessions = sessionservice.NewSessionService(
		platformstorage.NewSessionRepository(state.db),
		state.resolver,
		cfg.HostCode,
		state.bus,
		state.logger,
	)
	return nil
}

func initPipelineStep(_ context.Context, state *appState) error {
	cfg := state.config
	normalizer := turn.NewNormalizer(turn.NormalizerConfig{
		SampleRate: cfg.Audio.SampleRate,
		FFmpegPath: cfg.Audio.FFmpegPath,
		TempDir:    cfg.Audio.TempDir,
	}, state.logger)

	state.pipeline = turn.NewPipeline(state.sessions, state.resolver, state.gateway, normalizer, state.bus, state.logger)
	state.recaps = recap.NewAggregator(state.sessions, state.resolver, state.gateway, cfg.Languages.RecapFallback, state.bus, state.logger)

	voices := language.NewVoiceResolver(state.resolver, state.sessions, cfg.Languages.HostMarker, cfg.Languages.DefaultVoice)
	state.synthesizer = speech.NewSynthesizer(voices, state.gateway, cfg.Synthesis.Model, state.logger)
	return nil
}

func initAuthStep(_ context.Context, state *appState) error {
	state.tokens = domainauth.NewAuthToken(state.config.Server.JWTSecret)
	if state.config.Server.APIKey == "" && !state.tokens.Enabled() {
		state.logger.WarnTag("认证", "未配置 API key 与 JWT 密钥，接口不做鉴权")
	}
	return nil
}

// buildRouter 组装 gin 路由；返回实时通道路由以便关停时断开连接
func buildRouter(ctx context.Context, state *appState) (*gin.Engine, *ws.Router, error) {
	cfg := state.config
	logger := state.logger

	metricsPath := ""
	if cfg.Observability.Enabled {
		metricsPath = cfg.Observability.MetricsPath
	}
	httpRouter, err := httptransport.Build(httptransport.Options{
		Config:         cfg,
		Logger:         logger,
		AuthMiddleware: httptransport.AuthMiddleware(cfg.Server.APIKey, state.tokens, logger),
		StaticRoot:     cfg.Server.StaticDir,
		MetricsPath:    metricsPath,
	})
	if err != nil {
		return nil, nil, err
	}
	router := httpRouter.Engine

	sessionsService, err := httpsessions.NewService(state.sessions, state.pipeline, state.recaps, state.synthesizer, cfg.Server.MaxUploadBytes, logger)
	if err != nil {
		return nil, nil, err
	}
	languagesService, err := httplanguages.NewService(state.languages, logger)
	if err != nil {
		return nil, nil, err
	}
	miscService := httpmisc.NewService(state.opts.Version, logger)
	live := ws.NewRouter(ws.NewHub(logger), state.pipeline, state.sessions, logger, ws.RouterOptions{
		MaxMessageBytes: cfg.Server.MaxUploadBytes,
	})

	sessionsService.WithEventLog(state.events)
	if err := sessionsService.Register(ctx, httpRouter.Secured); err != nil {
		return nil, nil, err
	}
	if err := languagesService.Register(ctx, httpRouter.Secured); err != nil {
		return nil, nil, err
	}
	if err := miscService.Register(ctx, httpRouter.API, httpRouter.Secured); err != nil {
		return nil, nil, err
	}
	if err := live.Register(ctx, httpRouter.Secured); err != nil {
		return nil, nil, err
	}
	httpdocs.Register(router, logger)

	return router, live, nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) (*http.Server, error) {
	router, live, err := buildRouter(groupCtx, state)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "http:build-router", "failed to build router", err)
	}

	cfg := state.config
	logger := state.logger
	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.IP, strconv.Itoa(cfg.Server.Port)),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "Gin 服务已启动，访问地址 http://localhost:%d", cfg.Server.Port)
		logger.InfoTag("HTTP", "在线文档入口: http://localhost:%d/docs", cfg.Server.Port)

		go func() {
			<-groupCtx.Done()
			live.Close()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "HTTP 服务关闭失败: %v", err)
			} else {
				logger.InfoTag("HTTP", "HTTP 服务已优雅关闭")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "HTTP 服务启动失败: %v", err)
			return err
		}
		return nil
	})

	return httpServer, nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		// 服务自行退出（例如端口被占用）
		cancel()
		return err
	case <-ctx.Done():
	}

	logger.InfoTag("引导", "收到系统信号 %v，正在进行资源清理", context.Cause(ctx))
	cancel()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("引导", "服务关闭过程中出现错误: %v", err)
			return err
		}
		logger.InfoTag("引导", "所有服务已成功关闭")
	case <-time.After(15 * time.Second):
		logger.ErrorTag("引导", "服务关闭超时，已强制退出")
		return errors.New("服务关闭超时")
	}
	return nil
}

// close 按初始化的逆序释放资源，未初始化的部分跳过
func (s *appState) close() {
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.voiceCache != nil {
		if err := s.voiceCache.Close(context.Background()); err != nil {
			s.logger.WarnTag("引导", "音色缓存未正常关闭: %v", err)
		}
	}
	if s.db != nil {
		if err := platformstorage.Close(s.db); err != nil {
			s.logger.WarnTag("引导", "数据库未正常关闭: %v", err)
		}
	}
	if s.observabilityShutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.observabilityShutdown(shutdownCtx); err != nil {
			s.logger.WarnTag("引导", "可观测性未正常关闭: %v", err)
		}
	}
	if s.logger != nil {
		_ = s.logger.Close()
	}
}
