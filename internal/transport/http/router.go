package httptransport

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tolk-server-go/internal/platform/config"
	"tolk-server-go/internal/platform/logging"
	"tolk-server-go/internal/platform/observability"
)

// RequestIDHeader 每个响应都会带上的请求编号
const RequestIDHeader = "X-Request-Id"

// Options configures the HTTP router builder.
type Options struct {
	Config         *config.Config
	Logger         *logging.Logger
	AuthMiddleware gin.HandlerFunc
	StaticRoot     string
	MetricsPath    string
}

// Router holds the engine plus the public and authenticated /api/v1 groups.
type Router struct {
	Engine  *gin.Engine
	API     *gin.RouterGroup
	Secured *gin.RouterGroup
}

// Build wires recovery, request ids, access logs, spans and CORS in front of the /api/v1 groups.
func Build(opts Options) (*Router, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("http router requires config")
	}
	cfg := opts.Config

	mode := gin.ReleaseMode
	if cfg.Log.Level == "debug" {
		mode = gin.DebugMode
	}
	gin.SetMode(mode)

	engine := gin.New()
	_ = engine.SetTrustedProxies(nil)
	engine.Use(
		gin.Recovery(),
		requestID(),
		accessLog(opts.Logger),
		instrument(),
		corsFor(cfg.Server.CORSOrigins),
	)
	mountStatic(engine, opts.StaticRoot, opts.Logger)

	if opts.MetricsPath != "" {
		engine.GET(opts.MetricsPath, gin.WrapH(observability.Handler()))
	}
	engine.NoRoute(func(c *gin.Context) {
		msg := "Not found"
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			msg = "api Not found"
		}
		RespondError(c, http.StatusNotFound, msg, gin.H{})
	})

	api := engine.Group("/api/v1")
	router := &Router{Engine: engine, API: api, Secured: api}
	if opts.AuthMiddleware != nil {
		router.Secured = api.Group("", opts.AuthMiddleware)
	}
	return router, nil
}

func corsFor(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	wildcard := false
	for _, o := range origins {
		wildcard = wildcard || o == "*"
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Api-Key"},
		ExposeHeaders:    []string{"Content-Length", "X-Voice", RequestIDHeader},
		AllowCredentials: !wildcard,
		MaxAge:           12 * time.Hour,
	})
}

// mountStatic 托管前台页面；目录不存在时只记录告警
func mountStatic(engine *gin.Engine, root string, logger *logging.Logger) {
	if root == "" {
		return
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		logger.WarnTag("HTTP", "静态目录 %s 不存在，跳过", root)
		return
	}
	engine.Use(static.Serve("/", static.LocalFile(root, true)))
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Set(RequestIDHeader, id)
		c.Next()
	}
}

func accessLog(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		line := fmt.Sprintf("%s %s -> %d (%s) id=%s", c.Request.Method, c.Request.URL.Path, status,
			time.Since(start), c.GetString(RequestIDHeader))
		if session := c.Param("id"); session != "" {
			line += " session=" + session
		}
		if status >= http.StatusInternalServerError {
			logger.WarnTag("HTTP", "%s %s", line, c.Errors.String())
			return
		}
		logger.InfoTag("HTTP", "%s", line)
	}
}

// instrument 为每个请求开启 span；会话路由的 span 带上 session_id
func instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx := c.Request.Context()
		if session := c.Param("id"); session != "" {
			ctx = observability.WithSession(ctx, session)
		}
		ctx, end := observability.StartSpan(ctx, "http.server", route)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()
		status := c.Writer.Status()

		var spanErr error
		switch {
		case len(c.Errors) > 0:
			spanErr = c.Errors.Last().Err
		case status >= http.StatusInternalServerError:
			spanErr = fmt.Errorf("status %d", status)
		}
		end(spanErr)
		observability.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(status), time.Since(start))
	}
}
