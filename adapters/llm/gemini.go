package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/satriahrh/shg-assistant/domain"
)

const (
	DefaultModel      = "gemini-1.5-flash-latest"
	defaultAPIVersion = "v1beta"
)

const personaPreamble = `You are a helpful guide for the National Self Help Group (SHG) Digital Platform. You help users understand what Self Help Groups are, how the platform works, and provide guidance on SHG management in simple, non-technical language. Always be friendly and use real-world examples relevant to rural communities and SHGs in India.`

const answerInstruction = `Please provide a clear, concise response in 2-3 sentences that directly answers the question.`

type GeminiConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the public endpoint, e.g. for a proxy.
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiClient implements domain.Generator on the Gemini API.
type GeminiClient struct {
	client  *genai.Client
	model   string
	params  domain.GenerationParams
	initErr error
}

// NewGeminiClient never fails; a missing key or a client that cannot be
// built surfaces as a ConfigurationError from Generate.
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	g := &GeminiClient{model: model, params: domain.DefaultGenerationParams}

	if cfg.APIKey == "" {
		g.initErr = errors.New("gemini api key is not set")
		return g
	}

	client, err := genai.NewClient(
		context.Background(),
		&genai.ClientConfig{
			APIKey:     cfg.APIKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: cfg.HTTPClient,
			HTTPOptions: genai.HTTPOptions{
				BaseURL:    cfg.BaseURL,
				APIVersion: defaultAPIVersion,
			},
		},
	)
	if err != nil {
		g.initErr = fmt.Errorf("creating genai client: %w", err)
		return g
	}
	g.client = client
	return g
}

// BuildRequest composes the prompt sent for userMessage.
func BuildRequest(userMessage string) domain.GenerationRequest {
	return domain.GenerationRequest{
		Prompt: fmt.Sprintf("%s\n\nUser Question: %s\n\n%s", personaPreamble, userMessage, answerInstruction),
		Params: domain.DefaultGenerationParams,
	}
}

func (g *GeminiClient) Generate(ctx context.Context, userMessage string) domain.GenerationResult {
	if g.initErr != nil {
		return domain.Failed(domain.NewConfigurationError(g.initErr))
	}

	req := BuildRequest(userMessage)
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(req.Prompt),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(req.Params.Temperature),
			TopP:            genai.Ptr(req.Params.TopP),
			TopK:            genai.Ptr(req.Params.TopK),
			MaxOutputTokens: req.Params.MaxOutputTokens,
		},
	)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return domain.Failed(domain.NewTransportError(apiErr.Code, apiErr.Message, err))
		}
		return domain.Failed(domain.NewTransportError(0, "", fmt.Errorf("generate content: %w", err)))
	}

	text, genErr := extractText(resp)
	if genErr != nil {
		return domain.Failed(genErr)
	}
	return domain.Generated(text)
}

// extractText pulls candidates[0].content.parts[0].text out of resp.
func extractText(resp *genai.GenerateContentResponse) (string, *domain.GenerationError) {
	switch {
	case resp == nil:
		return "", domain.NewMalformedResponseError("empty response")
	case len(resp.Candidates) == 0 || resp.Candidates[0] == nil:
		return "", domain.NewMalformedResponseError("no candidates")
	case resp.Candidates[0].Content == nil:
		return "", domain.NewMalformedResponseError("candidate has no content")
	}

	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 || parts[0] == nil {
		return "", domain.NewMalformedResponseError("candidate content has no parts")
	}
	if parts[0].Text == "" {
		return "", domain.NewMalformedResponseError("first part has no text")
	}
	return parts[0].Text, nil
}
