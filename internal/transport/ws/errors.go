package ws

import "errors"

var (
	// ErrSessionShutdown is emitted when the server closes live connections on shutdown.
	ErrSessionShutdown = errors.New("live session shutdown")
	// ErrConnectionClosed 向已关闭的连接写入
	ErrConnectionClosed = errors.New("live connection already closed")
)
