package websocket

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/shg-assistant/domain"
	"github.com/satriahrh/shg-assistant/utils/log"
)

// ConversationIDKey must match the key set by the session middleware.
const ConversationIDKey = "conversation_id"

// Handler serves the "/ws" endpoint. The session middleware must run first.
func (s *Server) Handler(c echo.Context) error {
	conversationID, _ := c.Get(ConversationIDKey).(string)
	if _, err := s.chat.History(conversationID); err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
		}
		return err
	}

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := NewClient(conn, conversationID, s.chat)
	s.hub.Register(client)
	defer s.hub.Unregister(client)

	client.Run()
	if err := s.attach(client); err != nil {
		log.WithCtx(client.ctx).Error("Failed to attach client", zap.Error(err))
		client.Close()
		return nil
	}

	// Wait for the client context to be done (connection closed)
	<-client.Context().Done()

	return nil
}
