package domain

import (
	"context"
	"time"
)

// MessageBroker defines the interface for message broker operations
type MessageBroker interface {
	// Publish sends a message to a specific topic/channel with a routing key
	Publish(ctx context.Context, topic string, routingKey string, message []byte) error

	// Subscribe listens for messages on a specific topic/channel and routing key.
	// The returned channel is closed once ctx is done or the broker closes.
	Subscribe(ctx context.Context, topic string, routingKey string) (<-chan Message, error)

	// Close closes the message broker connection
	Close() error
}

// Message represents a message received from the broker
type Message struct {
	Topic      string
	RoutingKey string
	Payload    []byte
	Timestamp  time.Time
}

// ChatMessagesTopic carries ChatEvent payloads keyed by conversation id.
const ChatMessagesTopic = "chat.messages"

// ChatEvent is published whenever a conversation gains a message.
type ChatEvent struct {
	ConversationID string      `json:"conversation_id"`
	Message        ChatMessage `json:"message"`
}
