package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satriahrh/shg-assistant/domain"
	"github.com/satriahrh/shg-assistant/utils/log"
)

// Frame is the JSON envelope written to the socket.
type Frame struct {
	Type           string              `json:"type"`
	ConversationID string              `json:"conversation_id,omitempty"`
	Message        *domain.ChatMessage `json:"message,omitempty"`
	Error          *ErrorResponse      `json:"error,omitempty"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	MessageFrame = "message"
	ErrorFrame   = "error"
)

// inboundRequest is the optional JSON form of a user message; plain text
// frames are accepted too.
type inboundRequest struct {
	Message string `json:"message"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 16 * 1024
	inboundQueue   = 8
)

// Sender handles user messages read from the socket.
type Sender interface {
	Send(ctx context.Context, conversationID, text string) (domain.ChatMessage, domain.ChatMessage, error)
}

type Client struct {
	conn           *websocket.Conn
	conversationID string
	sender         Sender
	send           chan []byte
	inbound        chan string
	ctx            context.Context
	cancel         context.CancelFunc
	mu             sync.RWMutex
	closed         bool
}

// NewClient creates a new WebSocket client bound to one conversation
func NewClient(conn *websocket.Conn, conversationID string, sender Sender) *Client {
	ctx := log.WithConversation(context.Background(), conversationID)
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		conn:           conn,
		conversationID: conversationID,
		sender:         sender,
		send:           make(chan []byte, 256),
		inbound:        make(chan string, inboundQueue),
		ctx:            ctx,
		cancel:         cancel,
	}
}

func (c *Client) Run() {
	c.setupHandlers()

	go c.readPump()
	go c.writePump()
	go c.processInbound()
}

// setupHandlers configures all WebSocket control handlers
func (c *Client) setupHandlers() {
	c.conn.SetCloseHandler(func(code int, text string) error {
		log.WithCtx(c.ctx).Debug("WebSocket connection closed", zap.Int("code", code), zap.String("text", text))
		c.Close()
		return nil
	})

	c.conn.SetPongHandler(func(appData string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
}

// Close gracefully closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	c.cancel()
	c.conn.Close()
	close(c.send)
}

// IsClosed returns true if the client connection is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Context is done once the client is closed
func (c *Client) Context() context.Context {
	return c.ctx
}

// ConversationID is the conversation the socket is bound to
func (c *Client) ConversationID() string {
	return c.conversationID
}

// readPump queues incoming user messages for processInbound
func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.WithCtx(c.ctx).Error("WebSocket error", zap.Error(err))
			}
			return
		}

		select {
		case c.inbound <- parseInbound(message):
		default:
			c.SendFrame(Frame{Type: ErrorFrame, Error: &ErrorResponse{Code: "busy", Message: "Too many pending messages"}})
		}
	}
}

// processInbound hands queued messages to the chat service one at a
// time. Replies come back through the broker subscription.
func (c *Client) processInbound() {
	for {
		select {
		case text := <-c.inbound:
			_, _, err := c.sender.Send(c.ctx, c.conversationID, text)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrEmptyMessage):
				c.SendFrame(Frame{Type: ErrorFrame, Error: &ErrorResponse{Code: "empty_message", Message: "Message is required"}})
			case errors.Is(err, domain.ErrConversationNotFound):
				c.SendFrame(Frame{Type: ErrorFrame, Error: &ErrorResponse{Code: "not_found", Message: "Conversation not found"}})
			default:
				log.WithCtx(c.ctx).Error("failed to send chat message", zap.Error(err))
			}
		case <-c.ctx.Done():
			return
		}
	}
}

func parseInbound(raw []byte) string {
	var req inboundRequest
	if err := json.Unmarshal(raw, &req); err == nil && req.Message != "" {
		return req.Message
	}
	return strings.TrimSpace(string(raw))
}

// writePump owns all data writes and keeps the connection alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.WithCtx(c.ctx).Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.WithCtx(c.ctx).Debug("Failed to send ping", zap.Error(err))
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// SendFrame encodes frame and queues it for writing
func (c *Client) SendFrame(frame Frame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return c.SendMessage(payload)
}

// SendMessage sends a message to the client safely
func (c *Client) SendMessage(message []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return websocket.ErrCloseSent
	}

	select {
	case c.send <- message:
		return nil
	default:
		// slow reader; drop the connection rather than block the broker
		go c.Close()
		return websocket.ErrCloseSent
	}
}
