package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/shg-assistant/domain"
)

type capturedRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		TopP            float64 `json:"topP"`
		TopK            float64 `json:"topK"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewGeminiClient(GeminiConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func TestGeminiClient_Generate(t *testing.T) {
	var got capturedRequest
	var path, apiKey string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		apiKey = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello"}]}}]}`)
	})

	result := client.Generate(context.Background(), "What is an SHG?")

	require.True(t, result.OK(), "unexpected error: %v", result.Err)
	assert.Equal(t, "Hello", result.Text)

	assert.True(t, strings.HasSuffix(path, "models/"+DefaultModel+":generateContent"), "unexpected path: %s", path)
	assert.Equal(t, "test-key", apiKey)

	require.Len(t, got.Contents, 1)
	assert.Equal(t, "user", got.Contents[0].Role)
	require.Len(t, got.Contents[0].Parts, 1)
	prompt := got.Contents[0].Parts[0].Text
	assert.True(t, strings.HasPrefix(prompt, personaPreamble))
	assert.Contains(t, prompt, "User Question: What is an SHG?")
	assert.True(t, strings.HasSuffix(prompt, answerInstruction))

	assert.InDelta(t, 0.7, got.GenerationConfig.Temperature, 1e-6)
	assert.InDelta(t, 0.95, got.GenerationConfig.TopP, 1e-6)
	assert.InDelta(t, 40, got.GenerationConfig.TopK, 1e-6)
	assert.Equal(t, 1024, got.GenerationConfig.MaxOutputTokens)
}

func TestGeminiClient_ServiceError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError,
			`{"error":{"code":500,"message":"internal failure","status":"INTERNAL"}}`)
	})

	result := client.Generate(context.Background(), "hi")

	require.False(t, result.OK())
	assert.ErrorIs(t, result.Err, domain.ErrTransport)
	assert.Equal(t, http.StatusInternalServerError, result.Err.StatusCode)
	assert.Equal(t, "internal failure", result.Err.Message)
}

func TestGeminiClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewGeminiClient(GeminiConfig{APIKey: "test-key", BaseURL: url})
	result := client.Generate(context.Background(), "hi")

	require.False(t, result.OK())
	assert.ErrorIs(t, result.Err, domain.ErrTransport)
	assert.Zero(t, result.Err.StatusCode)
}

func TestGeminiClient_MalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty candidates", `{"candidates":[]}`},
		{"no candidates field", `{}`},
		{"no content", `{"candidates":[{"finishReason":"SAFETY"}]}`},
		{"no parts", `{"candidates":[{"content":{"role":"model","parts":[]}}]}`},
		{"empty text", `{"candidates":[{"content":{"role":"model","parts":[{"text":""}]}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tt.body)
			})

			result := client.Generate(context.Background(), "hi")

			require.False(t, result.OK())
			assert.ErrorIs(t, result.Err, domain.ErrMalformedResponse)
		})
	}
}

func TestGeminiClient_MissingAPIKey(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	client := NewGeminiClient(GeminiConfig{BaseURL: server.URL})
	result := client.Generate(context.Background(), "hi")

	require.False(t, result.OK())
	assert.ErrorIs(t, result.Err, domain.ErrConfiguration)
	assert.Zero(t, hits.Load())
}

func TestBuildRequest(t *testing.T) {
	req := BuildRequest("How do loans work?")

	assert.Contains(t, req.Prompt, "User Question: How do loans work?")
	assert.Equal(t, domain.DefaultGenerationParams, req.Params)
}
