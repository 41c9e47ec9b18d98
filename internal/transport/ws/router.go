package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"tolk-server-go/internal/platform/logging"
	"tolk-server-go/internal/platform/observability"
	httptransport "tolk-server-go/internal/transport/http"
)

// RouterOptions configures the live websocket router.
type RouterOptions struct {
	HandshakeTimeout time.Duration
	// MaxMessageBytes 单帧上限（音频帧），<=0 使用默认值
	MaxMessageBytes int64
	CheckOrigin     func(r *http.Request) bool
}

// Router upgrades GET /sessions/:id/live to a live turn channel.
type Router struct {
	hub      *Hub
	turns    Turns
	sessions Sessions
	logger   *logging.Logger

	upgrader  *websocket.Upgrader
	readLimit int64
	baseCtx   context.Context
}

// NewRouter constructs the live router.
func NewRouter(hub *Hub, turns Turns, sessions Sessions, logger *logging.Logger, opts RouterOptions) *Router {
	upgrader := &websocket.Upgrader{
		CheckOrigin:      opts.CheckOrigin,
		HandshakeTimeout: opts.HandshakeTimeout,
	}
	if upgrader.CheckOrigin == nil {
		upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}
	if upgrader.HandshakeTimeout <= 0 {
		upgrader.HandshakeTimeout = 10 * time.Second
	}
	limit := opts.MaxMessageBytes
	if limit <= 0 {
		limit = 25 << 20
	}

	return &Router{
		hub:       hub,
		turns:     turns,
		sessions:  sessions,
		logger:    logger,
		upgrader:  upgrader,
		readLimit: limit,
		baseCtx:   context.Background(),
	}
}

// Register mounts the live route. ctx bounds every live connection; cancelling it closes them.
func (r *Router) Register(ctx context.Context, router *gin.RouterGroup) error {
	if ctx != nil {
		r.baseCtx = ctx
	}
	router.GET("/sessions/:id/live", r.Handle)
	return nil
}

// Hub exposes the connection hub.
func (r *Router) Hub() *Hub {
	return r.hub
}

// Handle checks the session exists, upgrades the request and runs the read loop.
func (r *Router) Handle(c *gin.Context) {
	sessionID := c.Param("id")
	session, err := r.sessions.Require(c.Request.Context(), sessionID)
	if err != nil {
		httptransport.RespondErr(c, err)
		return
	}

	ctx, spanEnd := observability.StartSpan(observability.WithSession(r.baseCtx, sessionID), "transport.websocket", "live")
	socket, err := r.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已经写回了错误响应
		spanEnd(err)
		r.logger.ErrorTag("WebSocket", "握手失败: %v", err)
		return
	}
	socket.SetReadLimit(r.readLimit)

	conn := NewConnection(uuid.NewString(), sessionID, socket)
	r.hub.Register(conn)
	r.logger.InfoTag("WebSocket", "会话 %s 建立实时连接 %s", sessionID, conn.ID())

	if err := conn.Send(Outbound{Type: MessageReady, SessionID: sessionID, Status: string(session.Status)}); err != nil {
		r.logger.WarnTag("WebSocket", "发送 ready 失败: %v", err)
	}

	NewSession(conn, r.hub, r.turns, r.sessions, r.logger).Run(ctx)

	r.hub.Unregister(conn)
	_ = conn.Close("bye")
	spanEnd(nil)
	r.logger.InfoTag("WebSocket", "会话 %s 实时连接 %s 已关闭", sessionID, conn.ID())
}

// Close 关闭所有实时连接
func (r *Router) Close() {
	r.hub.CloseAll(ErrSessionShutdown)
}
