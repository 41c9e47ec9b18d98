package ws

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

// Connection wraps a gorilla websocket connection. Writes are serialized so the hub
// can broadcast from other goroutines.
type Connection struct {
	id         string
	sessionID  string
	socket     *websocket.Conn
	mu         sync.Mutex
	closed     atomic.Bool
	lastActive atomic.Int64
}

// NewConnection creates a tracked websocket connection bound to a session.
func NewConnection(id, sessionID string, socket *websocket.Conn) *Connection {
	conn := &Connection{
		id:        id,
		sessionID: sessionID,
		socket:    socket,
	}
	conn.touch()
	return conn
}

// Send 编码并发送一条 JSON 文本帧
func (c *Connection) Send(msg Outbound) error {
	payload, err := sonic.Marshal(msg)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, payload)
}

// WriteMessage sends a raw frame to the client.
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return ErrConnectionClosed
	}
	if err := c.socket.WriteMessage(messageType, data); err != nil {
		return err
	}
	c.touch()
	return nil
}

// ReadMessage blocks until the next frame arrives or the socket fails.
func (c *Connection) ReadMessage() (int, []byte, error) {
	messageType, payload, err := c.socket.ReadMessage()
	if err == nil {
		c.touch()
	}
	return messageType, payload, err
}

// Close sends a close frame (best effort) and terminates the socket. Safe to call twice.
func (c *Connection) Close(reason string) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.mu.Lock()
	_ = c.socket.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
		time.Now().Add(time.Second))
	c.mu.Unlock()
	return c.socket.Close()
}

// ID 连接 ID
func (c *Connection) ID() string {
	return c.id
}

// SessionID 连接所属的会话
func (c *Connection) SessionID() string {
	return c.sessionID
}

// IsClosed reports whether the connection has already been closed.
func (c *Connection) IsClosed() bool {
	return c.closed.Load()
}

// LastActive 最近一次收发时间
func (c *Connection) LastActive() time.Time {
	return time.Unix(0, c.lastActive.Load())
}

func (c *Connection) touch() {
	c.lastActive.Store(time.Now().UnixNano())
}
