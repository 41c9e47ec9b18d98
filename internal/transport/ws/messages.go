package ws

import "tolk-server-go/internal/domain/turn"

// 客户端消息类型
const (
	MessageConfig = "config"
	MessageTurn   = "turn"
	MessagePing   = "ping"
	MessageFinish = "finish"
)

// 服务端消息类型
const (
	MessageReady    = "ready"
	MessageResult   = "result"
	MessageError    = "error"
	MessagePong     = "pong"
	MessageFinished = "finished"
)

// Inbound 客户端发送的文本帧
//
// config 设置之后二进制帧使用的语言方向与文件名；turn 直接提交文字；
// 二进制帧本身即一段音频。
type Inbound struct {
	Type     string `json:"type"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Text     string `json:"text,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// Outbound 服务端推送的消息
type Outbound struct {
	Type      string       `json:"type"`
	SessionID string       `json:"session_id,omitempty"`
	Status    string       `json:"status,omitempty"`
	Result    *turn.Result `json:"result,omitempty"`
	Message   string       `json:"message,omitempty"`
	Code      int          `json:"code,omitempty"`
	Details   string       `json:"details,omitempty"`
}
