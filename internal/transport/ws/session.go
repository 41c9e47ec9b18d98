package ws

import (
	"context"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"tolk-server-go/internal/domain/session/aggregate"
	"tolk-server-go/internal/domain/turn"
	"tolk-server-go/internal/platform/errors"
	"tolk-server-go/internal/platform/logging"
	httptransport "tolk-server-go/internal/transport/http"
)

// Turns executes one translation turn.
type Turns interface {
	Execute(ctx context.Context, req turn.Request) (*turn.Result, error)
}

// Sessions 实时通道需要的会话操作
type Sessions interface {
	Require(ctx context.Context, id string) (*aggregate.Session, error)
	Finish(ctx context.Context, id string) (*aggregate.Session, error)
}

// Session is the read loop of one live connection.
type Session struct {
	conn     *Connection
	hub      *Hub
	turns    Turns
	sessions Sessions
	logger   *logging.Logger

	// 最近一次 config 消息，二进制音频帧使用
	from     string
	to       string
	filename string
}

// NewSession constructs the loop for an upgraded connection.
func NewSession(conn *Connection, hub *Hub, turns Turns, sessions Sessions, logger *logging.Logger) *Session {
	return &Session{
		conn:     conn,
		hub:      hub,
		turns:    turns,
		sessions: sessions,
		logger:   logger,
		filename: "audio.webm",
	}
}

// Run reads frames until the socket closes, the session finishes or ctx is cancelled.
func (s *Session) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		_ = s.conn.Close("server closing")
	}()

	for {
		messageType, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !s.conn.IsClosed() {
				s.logger.WarnTag("WebSocket", "连接 %s 读取失败: %v", s.conn.ID(), err)
			}
			return
		}

		var done bool
		switch messageType {
		case websocket.BinaryMessage:
			s.handleAudio(ctx, payload)
		case websocket.TextMessage:
			done = s.handleText(ctx, payload)
		}
		if done {
			return
		}
	}
}

func (s *Session) handleText(ctx context.Context, payload []byte) bool {
	var msg Inbound
	if err := sonic.Unmarshal(payload, &msg); err != nil {
		s.reply(errors.Validation("live.decode", "invalid JSON message"))
		return false
	}

	switch strings.ToLower(strings.TrimSpace(msg.Type)) {
	case MessageConfig:
		s.from = strings.TrimSpace(msg.From)
		s.to = strings.TrimSpace(msg.To)
		if name := strings.TrimSpace(msg.Filename); name != "" {
			s.filename = name
		}
	case MessageTurn:
		s.execute(ctx, turn.Request{
			SessionID: s.conn.SessionID(),
			From:      firstNonEmpty(msg.From, s.from),
			To:        firstNonEmpty(msg.To, s.to),
			Text:      msg.Text,
		})
	case MessagePing:
		_ = s.conn.Send(Outbound{Type: MessagePong, SessionID: s.conn.SessionID()})
	case MessageFinish:
		session, err := s.sessions.Finish(ctx, s.conn.SessionID())
		if err != nil {
			s.reply(err)
			return false
		}
		s.hub.Broadcast(session.ID, Outbound{
			Type:      MessageFinished,
			SessionID: session.ID,
			Status:    string(session.Status),
		})
		s.hub.CloseSession(session.ID, "session finished")
		return true
	default:
		s.reply(errors.Validation("live.decode", "unknown message type '"+msg.Type+"'"))
	}
	return false
}

func (s *Session) handleAudio(ctx context.Context, payload []byte) {
	if s.from == "" || s.to == "" {
		s.reply(errors.Validation("live.audio", "send a config message with 'from' and 'to' before audio"))
		return
	}
	s.execute(ctx, turn.Request{
		SessionID: s.conn.SessionID(),
		From:      s.from,
		To:        s.to,
		Audio:     &turn.AudioInput{Filename: s.filename, Data: payload},
	})
}

func (s *Session) execute(ctx context.Context, req turn.Request) {
	result, err := s.turns.Execute(ctx, req)
	if err != nil {
		s.reply(err)
		return
	}
	s.hub.Broadcast(req.SessionID, Outbound{
		Type:      MessageResult,
		SessionID: req.SessionID,
		Result:    result,
	})
}

// reply 错误只回给发送方
func (s *Session) reply(err error) {
	msg := Outbound{
		Type:      MessageError,
		SessionID: s.conn.SessionID(),
		Message:   errors.MessageOf(err),
		Code:      httptransport.StatusFor(err),
	}
	if errors.KindOf(err) == errors.KindProvider {
		msg.Details = errors.DetailOf(err)
	}
	if sendErr := s.conn.Send(msg); sendErr != nil {
		s.logger.DebugTag("WebSocket", "回复错误失败: %v", sendErr)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
