package domain

import (
	"errors"
	"time"
)

type Sender string

const (
	UserSender      Sender = "user"
	AssistantSender Sender = "assistant"
)

// ChatMessage is one entry of a conversation transcript. Messages are
// never mutated after creation.
type ChatMessage struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is a snapshot of one chat transcript.
type Conversation struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Messages  []ChatMessage `json:"messages"`
}

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrEmptyMessage         = errors.New("message is empty")
)
