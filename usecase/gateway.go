package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/shg-assistant/domain"
	"github.com/satriahrh/shg-assistant/utils/log"
)

type Mode string

const (
	LiveMode     Mode = "live"
	FallbackMode Mode = "fallback"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case LiveMode:
		return LiveMode, nil
	case FallbackMode:
		return FallbackMode, nil
	}
	return "", fmt.Errorf("unknown assistant mode %q", s)
}

type GatewayConfig struct {
	Mode Mode
}

// Answerer turns a user question into a displayable answer.
type Answerer interface {
	Answer(ctx context.Context, userMessage string) string
}

const overviewQuestion = "Briefly explain what the National Self Help Group Digital Platform is and its main benefits in 2-3 sentences."

// Gateway decides between live generation and the local fallback. It
// always yields a non-empty answer.
type Gateway struct {
	mode      Mode
	generator domain.Generator
	fallback  *FallbackResponder
	hasher    domain.Hasher
}

func NewGateway(cfg GatewayConfig, gen domain.Generator, fb *FallbackResponder, hasher domain.Hasher) *Gateway {
	if fb == nil {
		fb = NewFallbackResponder(nil)
	}
	mode := cfg.Mode
	if mode == "" {
		mode = LiveMode
	}
	return &Gateway{mode: mode, generator: gen, fallback: fb, hasher: hasher}
}

func (g *Gateway) Mode() Mode {
	return g.mode
}

func (g *Gateway) Answer(ctx context.Context, userMessage string) string {
	if g.mode == FallbackMode {
		return g.fallback.Fallback(userMessage)
	}

	result := g.generate(ctx, userMessage)
	if result.OK() {
		return result.Text
	}

	g.logFailure(ctx, userMessage, result.Err)
	return g.fallback.Fallback(userMessage)
}

// Overview asks for a short description of the platform.
func (g *Gateway) Overview(ctx context.Context) string {
	return g.Answer(ctx, overviewQuestion)
}

// Guidance asks for practical advice on topic for SHG leaders.
func (g *Gateway) Guidance(ctx context.Context, topic string) string {
	return g.Answer(ctx, fmt.Sprintf("Provide practical guidance on \"%s\" for Self Help Group (SHG) leaders. Keep it simple and practical.", topic))
}

func (g *Gateway) generate(ctx context.Context, userMessage string) (result domain.GenerationResult) {
	if g.generator == nil {
		return domain.Failed(domain.NewConfigurationError(errors.New("no generator configured")))
	}

	defer func() {
		if r := recover(); r != nil {
			result = domain.Failed(domain.NewTransportError(0, "", fmt.Errorf("generator panicked: %v", r)))
		}
	}()

	result = g.generator.Generate(ctx, userMessage)
	if result.OK() && strings.TrimSpace(result.Text) == "" {
		return domain.Failed(domain.NewMalformedResponseError("blank answer text"))
	}
	return result
}

func (g *Gateway) logFailure(ctx context.Context, userMessage string, genErr *domain.GenerationError) {
	fields := []zap.Field{
		zap.String("kind", string(genErr.Kind)),
		zap.Int("status", genErr.StatusCode),
		zap.String("service_message", genErr.Message),
		zap.Error(genErr),
	}
	if g.hasher != nil {
		fields = append(fields, zap.String("fingerprint", g.hasher.Hash([]byte(userMessage))))
	}
	log.WithCtx(ctx).Warn("live generation failed, answering from catalog", fields...)
}
