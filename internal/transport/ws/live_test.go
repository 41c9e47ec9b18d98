package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tolk-server-go/internal/domain/language"
	"tolk-server-go/internal/domain/session/aggregate"
	"tolk-server-go/internal/domain/turn"
	"tolk-server-go/internal/platform/errors"
	"tolk-server-go/internal/platform/logging"
)

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*aggregate.Session
}

func (f *fakeSessions) Require(_ context.Context, id string) (*aggregate.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, errors.SessionNotFound("session.require", id)
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSessions) Finish(ctx context.Context, id string) (*aggregate.Session, error) {
	f.mu.Lock()
	s, ok := f.sessions[id]
	if ok {
		s.Finish()
	}
	f.mu.Unlock()
	return f.Require(ctx, id)
}

type fakeTurns struct {
	mu       sync.Mutex
	requests []turn.Request
}

func (f *fakeTurns) Execute(_ context.Context, req turn.Request) (*turn.Result, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if req.Text == "fail" {
		return nil, errors.Provider("provider.translate", "translate call failed", "rate limited", nil)
	}
	original := req.Text
	if req.Audio != nil {
		original = "audio:" + req.Audio.Filename
	}
	return &turn.Result{
		SessionID:  req.SessionID,
		From:       req.From,
		To:         req.To,
		Original:   original,
		Translated: strings.ToUpper(original),
	}, nil
}

func (f *fakeTurns) all() []turn.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]turn.Request(nil), f.requests...)
}

func newLiveServer(t *testing.T) (*httptest.Server, *fakeTurns, *Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	session := aggregate.NewSession("da-DK")
	session.ID = "s1"
	require.NoError(t, session.SelectLanguage("fr-FR", language.ProviderConfig{}, language.ProviderConfig{}))
	sessions := &fakeSessions{sessions: map[string]*aggregate.Session{"s1": session}}
	turns := &fakeTurns{}
	hub := NewHub(logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	router := NewRouter(hub, turns, sessions, logging.Nop(), RouterOptions{})
	engine := gin.New()
	require.NoError(t, router.Register(ctx, engine.Group("/api/v1")))

	srv := httptest.NewServer(engine)
	t.Cleanup(func() {
		cancel()
		router.Close()
		srv.Close()
	})
	return srv, turns, hub
}

func dial(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/" + sessionID + "/live"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })

	ready := read(t, conn)
	require.Equal(t, MessageReady, ready.Type)
	assert.Equal(t, "language_set", ready.Status)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Outbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Outbound
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestLive_UnknownSession(t *testing.T) {
	srv, _, _ := newLiveServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/missing/live"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLive_TextTurnBroadcast(t *testing.T) {
	srv, turns, hub := newLiveServer(t)
	visitor := dial(t, srv, "s1")
	host := dial(t, srv, "s1")

	require.Eventually(t, func() bool {
		clients, sessions := hub.Counts()
		return clients == 2 && sessions == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, visitor.WriteJSON(Inbound{Type: MessageTurn, From: "fr-FR", To: "da-DK", Text: "bonjour"}))

	for _, conn := range []*websocket.Conn{visitor, host} {
		msg := read(t, conn)
		require.Equal(t, MessageResult, msg.Type)
		require.NotNil(t, msg.Result)
		assert.Equal(t, "bonjour", msg.Result.Original)
		assert.Equal(t, "BONJOUR", msg.Result.Translated)
	}
	assert.Len(t, turns.all(), 1)
}

func TestLive_AudioNeedsConfig(t *testing.T) {
	srv, turns, _ := newLiveServer(t)
	conn := dial(t, srv, "s1")

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("RIFF")))
	msg := read(t, conn)
	assert.Equal(t, MessageError, msg.Type)
	assert.Equal(t, http.StatusBadRequest, msg.Code)

	require.NoError(t, conn.WriteJSON(Inbound{Type: MessageConfig, From: "da-DK", To: "fr-FR", Filename: "clip.wav"}))
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("RIFF")))
	msg = read(t, conn)
	require.Equal(t, MessageResult, msg.Type)
	assert.Equal(t, "audio:clip.wav", msg.Result.Original)
	assert.Equal(t, "da-DK", msg.Result.From)

	requests := turns.all()
	require.Len(t, requests, 1)
	assert.Equal(t, []byte("RIFF"), requests[0].Audio.Data)
}

func TestLive_ErrorsAndPing(t *testing.T) {
	srv, _, _ := newLiveServer(t)
	conn := dial(t, srv, "s1")

	require.NoError(t, conn.WriteJSON(Inbound{Type: MessageTurn, From: "fr-FR", To: "da-DK", Text: "fail"}))
	msg := read(t, conn)
	assert.Equal(t, MessageError, msg.Type)
	assert.Equal(t, http.StatusBadGateway, msg.Code)
	assert.Equal(t, "translate call failed", msg.Message)
	assert.Equal(t, "rate limited", msg.Details)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, MessageError, read(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Inbound{Type: "dance"}))
	assert.Equal(t, MessageError, read(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Inbound{Type: MessagePing}))
	assert.Equal(t, MessagePong, read(t, conn).Type)
}

func TestLive_Finish(t *testing.T) {
	srv, _, hub := newLiveServer(t)
	visitor := dial(t, srv, "s1")
	host := dial(t, srv, "s1")

	require.NoError(t, host.WriteJSON(Inbound{Type: MessageFinish}))
	for _, conn := range []*websocket.Conn{visitor, host} {
		msg := read(t, conn)
		assert.Equal(t, MessageFinished, msg.Type)
		assert.Equal(t, "finished", msg.Status)
	}

	require.Eventually(t, func() bool {
		clients, _ := hub.Counts()
		return clients == 0
	}, 2*time.Second, 10*time.Millisecond)
}
