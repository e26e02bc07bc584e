package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/satriahrh/shg-assistant/adapters/catalog"
	httpadapter "github.com/satriahrh/shg-assistant/adapters/http"
	"github.com/satriahrh/shg-assistant/adapters/message_broker"
	"github.com/satriahrh/shg-assistant/domain"
	"github.com/satriahrh/shg-assistant/usecase"
)

type fixture struct {
	srv      *httptest.Server
	chat     *usecase.ChatService
	sessions *httpadapter.Sessions
	ws       *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	// registered first so it runs after the server and broker are closed
	t.Cleanup(func() { goleak.VerifyNone(t) })

	broker := message_broker.NewChannelMessageBroker()
	gateway := usecase.NewGateway(usecase.GatewayConfig{Mode: usecase.FallbackMode}, nil, nil, nil)
	chat := usecase.NewChatService(gateway, broker)
	sessions := httpadapter.NewSessions([]byte("test-secret"))
	ws := NewServer(chat, broker)

	srv := httptest.NewServer(httpadapter.NewServer(httpadapter.NewChatHandler(gateway, chat, sessions), ws.Handler))
	t.Cleanup(func() {
		ws.GetHub().CloseAll()
		srv.Close()
		broker.Close()
	})
	return &fixture{srv: srv, chat: chat, sessions: sessions, ws: ws}
}

func (f *fixture) dial(t *testing.T, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws?token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame Frame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestWebSocketChat(t *testing.T) {
	f := newFixture(t)
	conv := f.chat.Start(context.Background())
	token, err := f.sessions.Issue(conv.ID)
	require.NoError(t, err)

	conn, _, err := f.dial(t, token)
	require.NoError(t, err)
	defer conn.Close()

	greeting := readFrame(t, conn)
	assert.Equal(t, MessageFrame, greeting.Type)
	require.NotNil(t, greeting.Message)
	assert.Equal(t, int64(1), greeting.Message.ID)
	assert.Equal(t, domain.AssistantSender, greeting.Message.Sender)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("How do loans work?")))

	user := readFrame(t, conn)
	require.NotNil(t, user.Message)
	assert.Equal(t, int64(2), user.Message.ID)
	assert.Equal(t, domain.UserSender, user.Message.Sender)
	assert.Equal(t, "How do loans work?", user.Message.Text)

	reply := readFrame(t, conn)
	require.NotNil(t, reply.Message)
	assert.Equal(t, int64(3), reply.Message.ID)
	want, _ := catalog.Default().Response("loan")
	assert.Equal(t, want, reply.Message.Text)
	assert.Equal(t, conv.ID, reply.ConversationID)

	require.NoError(t, conn.WriteJSON(map[string]string{"message": "   "}))
	errFrame := readFrame(t, conn)
	assert.Equal(t, ErrorFrame, errFrame.Type)
	require.NotNil(t, errFrame.Error)
	assert.Equal(t, "empty_message", errFrame.Error.Code)

	clients := f.ws.GetHub().ConversationClients(conv.ID)
	require.Len(t, clients, 1)
	assert.Equal(t, conv.ID, clients[0].ConversationID())
	assert.Equal(t, 1, f.ws.GetHub().ClientCount())

	f.ws.Shutdown(context.Background())
	assert.Zero(t, f.ws.GetHub().ClientCount())
}

func TestWebSocketRejectsUnknownConversation(t *testing.T) {
	f := newFixture(t)
	token, err := f.sessions.Issue("unknown")
	require.NoError(t, err)

	_, resp, err := f.dial(t, token)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSocketRequiresToken(t *testing.T) {
	f := newFixture(t)

	_, resp, err := f.dial(t, "")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestParseInbound(t *testing.T) {
	assert.Equal(t, "hello", parseInbound([]byte(`{"message":"hello"}`)))
	assert.Equal(t, "hello", parseInbound([]byte(" hello\n")))
	assert.Equal(t, `{"other":1}`, parseInbound([]byte(`{"other":1}`)))
}
