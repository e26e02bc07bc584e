package log

import (
	"context"
	"os"

	"go.uber.org/zap"
)

type ctxKey string

const (
	ConversationIDKey ctxKey = "conversation_id"
	RequestIDKey      ctxKey = "request_id"
)

var logger *zap.Logger

func init() {
	Configure(os.Getenv("DEBUG") == "true")
}

// Configure rebuilds the package logger: development (debug level) when
// debug is set, production otherwise.
func Configure(debug bool) {
	if debug {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
}

// SetLogger replaces the package logger. Tests use it with zaptest/observer.
func SetLogger(l *zap.Logger) {
	logger = l
}

func WithConversation(ctx context.Context, conversationID string) context.Context {
	return context.WithValue(ctx, ConversationIDKey, conversationID)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func WithCtx(ctx context.Context) *zap.Logger {
	fields := []zap.Field{}

	if v, ok := ctx.Value(ConversationIDKey).(string); ok && v != "" {
		fields = append(fields, zap.String("conversation_id", v))
	}
	if v, ok := ctx.Value(RequestIDKey).(string); ok && v != "" {
		fields = append(fields, zap.String("request_id", v))
	}

	return logger.With(fields...)
}

func With(fields ...zap.Field) *zap.Logger {
	return logger.With(fields...)
}
