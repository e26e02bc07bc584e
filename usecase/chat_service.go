package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satriahrh/shg-assistant/domain"
	"github.com/satriahrh/shg-assistant/utils/log"
)

const greeting = "Hello! I'm your AI Assistant for the SHG Platform. Ask me anything about Self Help Groups!"

type conversation struct {
	id        string
	createdAt time.Time

	// turn serializes Send so replies arrive in submission order.
	turn sync.Mutex

	mu       sync.RWMutex
	messages []domain.ChatMessage
	nextID   int64
}

func (c *conversation) append(text string, sender domain.Sender) domain.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	msg := domain.ChatMessage{
		ID:        c.nextID,
		Text:      text,
		Sender:    sender,
		Timestamp: time.Now(),
	}
	c.messages = append(c.messages, msg)
	return msg
}

func (c *conversation) snapshot() domain.Conversation {
	c.mu.RLock()
	defer c.mu.RUnlock()

	messages := make([]domain.ChatMessage, len(c.messages))
	copy(messages, c.messages)
	return domain.Conversation{ID: c.id, CreatedAt: c.createdAt, Messages: messages}
}

// ChatService keeps in-memory conversations. Nothing survives a restart.
type ChatService struct {
	answerer Answerer
	broker   domain.MessageBroker

	mu            sync.RWMutex
	conversations map[string]*conversation
}

func NewChatService(answerer Answerer, broker domain.MessageBroker) *ChatService {
	return &ChatService{
		answerer:      answerer,
		broker:        broker,
		conversations: make(map[string]*conversation),
	}
}

// Start opens a conversation seeded with the assistant greeting.
func (s *ChatService) Start(ctx context.Context) domain.Conversation {
	conv := &conversation{id: uuid.NewString(), createdAt: time.Now()}
	msg := conv.append(greeting, domain.AssistantSender)

	s.mu.Lock()
	s.conversations[conv.id] = conv
	s.mu.Unlock()

	ctx = log.WithConversation(ctx, conv.id)
	log.WithCtx(ctx).Debug("conversation started")
	s.publish(ctx, conv.id, msg)

	return conv.snapshot()
}

// Send records the user's message, asks the assistant and records the reply.
// Sends to the same conversation are queued.
func (s *ChatService) Send(ctx context.Context, conversationID, text string) (domain.ChatMessage, domain.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ChatMessage{}, domain.ChatMessage{}, domain.ErrEmptyMessage
	}

	conv, err := s.get(conversationID)
	if err != nil {
		return domain.ChatMessage{}, domain.ChatMessage{}, err
	}
	ctx = log.WithConversation(ctx, conversationID)

	conv.turn.Lock()
	defer conv.turn.Unlock()

	userMsg := conv.append(text, domain.UserSender)
	s.publish(ctx, conversationID, userMsg)

	reply := conv.append(s.answerer.Answer(ctx, text), domain.AssistantSender)
	s.publish(ctx, conversationID, reply)

	return userMsg, reply, nil
}

func (s *ChatService) History(conversationID string) ([]domain.ChatMessage, error) {
	conv, err := s.get(conversationID)
	if err != nil {
		return nil, err
	}
	return conv.snapshot().Messages, nil
}

// Exists reports whether conversationID is known.
func (s *ChatService) Exists(conversationID string) bool {
	_, err := s.get(conversationID)
	return err == nil
}

func (s *ChatService) get(conversationID string) (*conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	return conv, nil
}

func (s *ChatService) publish(ctx context.Context, conversationID string, msg domain.ChatMessage) {
	if s.broker == nil {
		return
	}

	payload, err := json.Marshal(domain.ChatEvent{ConversationID: conversationID, Message: msg})
	if err != nil {
		log.WithCtx(ctx).Error("failed to marshal chat event", zap.Error(err))
		return
	}
	if err := s.broker.Publish(ctx, domain.ChatMessagesTopic, conversationID, payload); err != nil {
		log.WithCtx(ctx).Warn("failed to publish chat event", zap.Int64("message_id", msg.ID), zap.Error(err))
	}
}
