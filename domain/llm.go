package domain

import (
	"context"
	"errors"
	"fmt"
)

// Generator abstracts any text-generation provider.
type Generator interface {
	// Generate sends a single user question and returns either the
	// generated text or a classified failure. It never retries.
	Generate(ctx context.Context, userMessage string) GenerationResult
}

// GenerationParams are the sampling parameters sent with every request.
type GenerationParams struct {
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int32
}

// DefaultGenerationParams are fixed; they are not user-configurable.
var DefaultGenerationParams = GenerationParams{
	Temperature:     0.7,
	TopP:            0.95,
	TopK:            40,
	MaxOutputTokens: 1024,
}

// GenerationRequest is the assembled prompt plus its sampling parameters.
type GenerationRequest struct {
	Prompt string
	Params GenerationParams
}

// GenerationResult is either Text (success) or Err (failure), never both.
type GenerationResult struct {
	Text string
	Err  *GenerationError
}

func Generated(text string) GenerationResult {
	return GenerationResult{Text: text}
}

func Failed(err *GenerationError) GenerationResult {
	return GenerationResult{Err: err}
}

// OK reports whether the result carries generated text.
func (r GenerationResult) OK() bool {
	return r.Err == nil
}

type ErrorKind string

const (
	ConfigurationErrorKind     ErrorKind = "configuration"
	TransportErrorKind         ErrorKind = "transport"
	MalformedResponseErrorKind ErrorKind = "malformed_response"
)

var (
	ErrConfiguration     = errors.New("generation client is not configured")
	ErrTransport         = errors.New("generation service unreachable")
	ErrMalformedResponse = errors.New("generation response has no answer text")
)

// GenerationError is a classified failure of a Generator.
type GenerationError struct {
	Kind ErrorKind
	// StatusCode is the HTTP status returned by the service, 0 when the
	// request never got a response.
	StatusCode int
	// Message is the service-provided error message, if any.
	Message string
	Err     error
}

func NewConfigurationError(err error) *GenerationError {
	return &GenerationError{Kind: ConfigurationErrorKind, Err: err}
}

func NewTransportError(status int, message string, err error) *GenerationError {
	return &GenerationError{Kind: TransportErrorKind, StatusCode: status, Message: message, Err: err}
}

func NewMalformedResponseError(reason string) *GenerationError {
	return &GenerationError{Kind: MalformedResponseErrorKind, Message: reason}
}

func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("%s error", e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *GenerationError) Is(target error) bool {
	switch target {
	case ErrConfiguration:
		return e.Kind == ConfigurationErrorKind
	case ErrTransport:
		return e.Kind == TransportErrorKind
	case ErrMalformedResponse:
		return e.Kind == MalformedResponseErrorKind
	}
	return false
}
