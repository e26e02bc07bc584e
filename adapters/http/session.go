package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/shg-assistant/utils/log"
)

const (
	SessionExpiry = 24 * time.Hour
	sessionIssuer = "shg-assistant"

	// ConversationIDKey is the echo context key set by Sessions.Middleware.
	ConversationIDKey = "conversation_id"
)

var ErrInvalidSession = errors.New("invalid session token")

// SessionClaims tie a token to one conversation. They identify a chat
// transcript, not a user.
type SessionClaims struct {
	ConversationID string `json:"conversation_id"`
	jwt.RegisteredClaims
}

type Sessions struct {
	secret []byte
	now    func() time.Time
}

func NewSessions(secret []byte) *Sessions {
	return &Sessions{secret: secret, now: time.Now}
}

// Issue signs a token for conversationID.
func (s *Sessions) Issue(conversationID string) (string, error) {
	now := s.now()
	claims := &SessionClaims{
		ConversationID: conversationID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    sessionIssuer,
			Subject:   "chat-session",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Parse validates tokenString and returns its conversation id.
func (s *Sessions) Parse(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(sessionIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.ConversationID == "" {
		return "", ErrInvalidSession
	}
	return claims.ConversationID, nil
}

// Middleware accepts "Authorization: Bearer <token>" or a "token" query
// parameter, which browsers need for WebSocket upgrades.
func (s *Sessions) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString := c.QueryParam("token")
		if authHeader := c.Request().Header.Get("Authorization"); authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
			}
		}
		if tokenString == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing session token")
		}

		conversationID, err := s.Parse(tokenString)
		if err != nil {
			log.WithCtx(c.Request().Context()).Warn("session validation error", zap.Error(err))
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid session token")
		}

		c.Set(ConversationIDKey, conversationID)
		return next(c)
	}
}
