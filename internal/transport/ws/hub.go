package ws

import (
	"sync"

	"tolk-server-go/internal/platform/logging"
	"tolk-server-go/internal/platform/observability"
)

// Hub tracks live connections grouped by session, so a visitor device and the host
// device attached to the same session both see every turn.
type Hub struct {
	logger *logging.Logger

	mu       sync.RWMutex
	sessions map[string]map[string]*Connection
}

// NewHub builds a fresh hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		logger:   logger,
		sessions: make(map[string]map[string]*Connection),
	}
}

// Register adds a connection under its session.
func (h *Hub) Register(conn *Connection) {
	if conn == nil {
		return
	}
	h.mu.Lock()
	conns, ok := h.sessions[conn.SessionID()]
	if !ok {
		conns = make(map[string]*Connection)
		h.sessions[conn.SessionID()] = conns
	}
	conns[conn.ID()] = conn
	h.mu.Unlock()
	observability.RecordLiveConnection(1)
}

// Unregister removes the connection; unknown connections are ignored.
func (h *Hub) Unregister(conn *Connection) {
	if conn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.sessions[conn.SessionID()]
	if !ok {
		return
	}
	if _, ok := conns[conn.ID()]; !ok {
		return
	}
	delete(conns, conn.ID())
	if len(conns) == 0 {
		delete(h.sessions, conn.SessionID())
	}
	observability.RecordLiveConnection(-1)
}

// Broadcast 向会话的所有连接推送消息，写失败的连接会被关闭
func (h *Hub) Broadcast(sessionID string, msg Outbound) {
	for _, conn := range h.connections(sessionID) {
		if err := conn.Send(msg); err != nil {
			h.logger.WarnTag("WebSocket", "推送到连接 %s 失败: %v", conn.ID(), err)
			_ = conn.Close("write failed")
		}
	}
}

// CloseSession 关闭会话的所有连接
func (h *Hub) CloseSession(sessionID, reason string) {
	for _, conn := range h.connections(sessionID) {
		_ = conn.Close(reason)
	}
}

// CloseAll terminates every live connection.
func (h *Hub) CloseAll(reason error) {
	if reason == nil {
		reason = ErrSessionShutdown
	}
	h.mu.RLock()
	var all []*Connection
	for _, conns := range h.sessions {
		for _, conn := range conns {
			all = append(all, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range all {
		_ = conn.Close(reason.Error())
	}
}

// Counts exposes the number of live connections and distinct sessions.
func (h *Hub) Counts() (clients int, sessions int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conns := range h.sessions {
		clients += len(conns)
	}
	return clients, len(h.sessions)
}

func (h *Hub) connections(sessionID string) []*Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := h.sessions[sessionID]
	out := make([]*Connection, 0, len(conns))
	for _, conn := range conns {
		out = append(out, conn)
	}
	return out
}
