package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/shg-assistant/domain"
	"github.com/satriahrh/shg-assistant/usecase"
	"github.com/satriahrh/shg-assistant/utils/log"
)

const (
	MaxRequestSize = "1MB"
	MaxConcurrent  = 10
)

// Assistant is the gateway surface used by the handlers.
type Assistant interface {
	Answer(ctx context.Context, userMessage string) string
	Overview(ctx context.Context) string
	Guidance(ctx context.Context, topic string) string
	Mode() usecase.Mode
}

type ChatHandler struct {
	assistant Assistant
	chat      *usecase.ChatService
	sessions  *Sessions
	semaphore chan struct{}
}

type AskRequest struct {
	Message string `json:"message"`
}

type GuidanceRequest struct {
	Topic string `json:"topic"`
}

type AnswerResponse struct {
	Response string `json:"response"`
}

type SessionResponse struct {
	Token          string               `json:"token"`
	Type           string               `json:"type"`
	ConversationID string               `json:"conversation_id"`
	Messages       []domain.ChatMessage `json:"messages"`
}

type SendResponse struct {
	User  domain.ChatMessage `json:"user"`
	Reply domain.ChatMessage `json:"reply"`
}

type HistoryResponse struct {
	Messages []domain.ChatMessage `json:"messages"`
}

func NewChatHandler(assistant Assistant, chat *usecase.ChatService, sessions *Sessions) *ChatHandler {
	return &ChatHandler{
		assistant: assistant,
		chat:      chat,
		sessions:  sessions,
		semaphore: make(chan struct{}, MaxConcurrent),
	}
}

// Register mounts the REST routes on api (usually /api/v1).
func (h *ChatHandler) Register(api *echo.Group) {
	api.GET("/health", h.HealthCheck)

	assistant := api.Group("/assistant")
	assistant.Use(h.RateLimitMiddleware)
	assistant.POST("/ask", h.Ask)
	assistant.GET("/overview", h.Overview)
	assistant.POST("/guidance", h.Guidance)

	api.POST("/sessions", h.StartSession)

	chat := api.Group("/chat")
	chat.Use(h.sessions.Middleware)
	chat.Use(h.RateLimitMiddleware)
	chat.POST("/messages", h.SendMessage)
	chat.GET("/messages", h.History)
}

// RateLimitMiddleware bounds concurrent generation calls across every route
// it wraps.
func (h *ChatHandler) RateLimitMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		select {
		case h.semaphore <- struct{}{}:
			defer func() { <-h.semaphore }()
			return next(c)
		default:
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many concurrent requests")
		}
	}
}

// Ask answers a single question without a conversation.
func (h *ChatHandler) Ask(c echo.Context) error {
	var req AskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Message is required")
	}

	return c.JSON(http.StatusOK, AnswerResponse{Response: h.assistant.Answer(c.Request().Context(), message)})
}

func (h *ChatHandler) Overview(c echo.Context) error {
	return c.JSON(http.StatusOK, AnswerResponse{Response: h.assistant.Overview(c.Request().Context())})
}

func (h *ChatHandler) Guidance(c echo.Context) error {
	var req GuidanceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Topic is required")
	}

	return c.JSON(http.StatusOK, AnswerResponse{Response: h.assistant.Guidance(c.Request().Context(), topic)})
}

// StartSession opens a conversation and returns a token addressing it.
func (h *ChatHandler) StartSession(c echo.Context) error {
	conv := h.chat.Start(c.Request().Context())

	token, err := h.sessions.Issue(conv.ID)
	if err != nil {
		log.WithCtx(log.WithConversation(c.Request().Context(), conv.ID)).Error("failed to issue session token", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create session")
	}

	return c.JSON(http.StatusCreated, SessionResponse{
		Token:          token,
		Type:           "Bearer",
		ConversationID: conv.ID,
		Messages:       conv.Messages,
	})
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req AskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	user, reply, err := h.chat.Send(c.Request().Context(), conversationID(c), req.Message)
	if err != nil {
		return chatError(err)
	}
	return c.JSON(http.StatusOK, SendResponse{User: user, Reply: reply})
}

func (h *ChatHandler) History(c echo.Context) error {
	messages, err := h.chat.History(conversationID(c))
	if err != nil {
		return chatError(err)
	}
	return c.JSON(http.StatusOK, HistoryResponse{Messages: messages})
}

// HealthCheck reports liveness and the assistant mode.
func (h *ChatHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "shg-assistant",
		"mode":      h.assistant.Mode(),
	})
}

func conversationID(c echo.Context) string {
	id, _ := c.Get(ConversationIDKey).(string)
	return id
}

func chatError(err error) error {
	switch {
	case errors.Is(err, domain.ErrEmptyMessage):
		return echo.NewHTTPError(http.StatusBadRequest, "Message is required")
	case errors.Is(err, domain.ErrConversationNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "Failed to process message")
}
