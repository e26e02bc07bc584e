package websocket

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satriahrh/shg-assistant/domain"
	"github.com/satriahrh/shg-assistant/utils/log"
)

// ChatService is what the socket layer needs from the conversation store.
type ChatService interface {
	Sender
	History(conversationID string) ([]domain.ChatMessage, error)
}

type Server struct {
	upgrader websocket.Upgrader
	chat     ChatService
	broker   domain.MessageBroker
	hub      *Hub
}

func NewServer(chat ChatService, broker domain.MessageBroker) *Server {
	return &Server{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		chat:     chat,
		broker:   broker,
		hub:      NewHub(),
	}
}

func (s *Server) GetHub() *Hub {
	return s.hub
}

// attach replays the conversation so far, then forwards new messages from
// the broker. Subscribing before reading history means nothing is missed;
// ids already replayed are skipped.
func (s *Server) attach(client *Client) error {
	events, err := s.broker.Subscribe(client.ctx, domain.ChatMessagesTopic, client.conversationID)
	if err != nil {
		return err
	}

	history, err := s.chat.History(client.conversationID)
	if err != nil {
		return err
	}

	var lastID int64
	for i := range history {
		client.SendFrame(Frame{Type: MessageFrame, ConversationID: client.conversationID, Message: &history[i]})
		lastID = history[i].ID
	}

	go s.forward(client, events, lastID)
	return nil
}

func (s *Server) forward(client *Client, events <-chan domain.Message, lastID int64) {
	for msg := range events {
		var ev domain.ChatEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			log.WithCtx(client.ctx).Error("Failed to unmarshal chat event", zap.Error(err))
			continue
		}
		if ev.Message.ID <= lastID {
			continue
		}
		lastID = ev.Message.ID

		if err := client.SendFrame(Frame{Type: MessageFrame, ConversationID: ev.ConversationID, Message: &ev.Message}); err != nil {
			log.WithCtx(client.ctx).Debug("Failed to forward chat event", zap.Error(err))
			return
		}
	}
}

// Shutdown closes every connected client
func (s *Server) Shutdown(ctx context.Context) {
	count := s.hub.ClientCount()
	s.hub.CloseAll()
	log.WithCtx(ctx).Info("WebSocket clients closed", zap.Int("clients", count))
}
