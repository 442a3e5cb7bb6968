package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/shopscribe/internal/domain"
	"github.com/davidbz/shopscribe/internal/provider/openai"
)

const completionBody = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "gpt-4o-mini",
	"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "{\"title\":\"Blue Widget\"}"}}],
	"usage": {"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20, "queue_time": 0.01}
}`

type capturedRequest struct {
	path   string
	auth   string
	method string
	body   map[string]any
}

func newServer(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()

	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.auth = r.Header.Get("Authorization")
		captured.method = r.Method

		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &captured.body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv, captured
}

func TestProvider_Capabilities(t *testing.T) {
	t.Run("openai variant", func(t *testing.T) {
		p := openai.NewOpenAI(openai.Config{})

		require.Equal(t, "openai", p.Key())
		require.Equal(t, "OpenAI", p.Label())
		require.Equal(t, "openai_api_key", p.APIKeyOption())
		require.Equal(t, "gpt-4o-mini", p.DefaultModel())
		require.Contains(t, p.KnownModels(), "gpt-4o")
		require.True(t, p.SupportsResponseFormat())
		require.True(t, p.SupportsLiveModels())
		require.False(t, p.SupportsImageContext())
	})

	t.Run("groq variant", func(t *testing.T) {
		p := openai.NewGroq(openai.Config{})

		require.Equal(t, "groq", p.Key())
		require.Equal(t, "groq_api_key", p.APIKeyOption())
		require.False(t, p.SupportsResponseFormat())
		require.False(t, p.SupportsImageContext())
	})
}

func TestProvider_Generate(t *testing.T) {
	t.Run("should send system and user messages with response format", func(t *testing.T) {
		srv, captured := newServer(t, http.StatusOK, completionBody)
		p := openai.NewOpenAI(openai.Config{BaseURL: srv.URL, Timeout: 5})

		resp, err := p.Generate(context.Background(), &domain.GenerateRequest{
			Prompt:       "Write copy",
			SystemPrompt: "You are a copywriter",
			Model:        "gpt-4o",
			APIKey:       "sk-test",
			ResponseFormat: &domain.ResponseFormat{
				Name:   "product_content",
				Strict: true,
				Schema: map[string]any{"type": "object"},
			},
		})

		require.NoError(t, err)
		require.Equal(t, `{"title":"Blue Widget"}`, resp.Content)
		require.InDelta(t, 20.0, resp.Usage["total_tokens"], 0.001)
		require.Contains(t, resp.Usage, "queue_time")

		require.Equal(t, http.MethodPost, captured.method)
		require.Equal(t, "/chat/completions", captured.path)
		require.Equal(t, "Bearer sk-test", captured.auth)
		require.Equal(t, "gpt-4o", captured.body["model"])
		require.InDelta(t, 4096.0, captured.body["max_tokens"], 0.001)
		require.InDelta(t, 0.7, captured.body["temperature"], 0.001)

		messages, ok := captured.body["messages"].([]any)
		require.True(t, ok)
		require.Len(t, messages, 2)
		require.Equal(t, "system", messages[0].(map[string]any)["role"])
		require.Equal(t, "user", messages[1].(map[string]any)["role"])

		format, ok := captured.body["response_format"].(map[string]any)
		require.True(t, ok)
		require.Equal(t, "json_schema", format["type"])
		schema := format["json_schema"].(map[string]any)
		require.Equal(t, "product_content", schema["name"])
		require.Equal(t, true, schema["strict"])
	})

	t.Run("should omit response format when not given", func(t *testing.T) {
		srv, captured := newServer(t, http.StatusOK, completionBody)
		p := openai.NewGroq(openai.Config{BaseURL: srv.URL})

		_, err := p.Generate(context.Background(), &domain.GenerateRequest{
			Prompt: "Write copy",
			APIKey: "gsk-test",
		})

		require.NoError(t, err)
		require.NotContains(t, captured.body, "response_format")
		require.Equal(t, "llama-3.3-70b-versatile", captured.body["model"])
	})

	t.Run("should send a zero temperature as given", func(t *testing.T) {
		srv, captured := newServer(t, http.StatusOK, completionBody)
		p := openai.NewGroq(openai.Config{BaseURL: srv.URL})
		zero := 0.0

		_, err := p.Generate(context.Background(), &domain.GenerateRequest{
			Prompt:      "Write copy",
			APIKey:      "gsk-test",
			Temperature: &zero,
		})

		require.NoError(t, err)
		require.Contains(t, captured.body, "temperature")
		require.InDelta(t, 0.0, captured.body["temperature"], 0.001)
	})

	t.Run("should fail before any call when the key is blank", func(t *testing.T) {
		srv, captured := newServer(t, http.StatusOK, completionBody)
		p := openai.NewOpenAI(openai.Config{BaseURL: srv.URL})

		resp, err := p.Generate(context.Background(), &domain.GenerateRequest{Prompt: "x", APIKey: "  "})

		require.Nil(t, resp)
		require.ErrorIs(t, err, domain.ErrMissingAPIKey)
		require.Empty(t, captured.path)
	})

	t.Run("should report empty content", func(t *testing.T) {
		srv, _ := newServer(t, http.StatusOK, `{"id":"x","choices":[{"index":0,"message":{"role":"assistant","content":"  "}}]}`)
		p := openai.NewOpenAI(openai.Config{BaseURL: srv.URL})

		_, err := p.Generate(context.Background(), &domain.GenerateRequest{Prompt: "x", APIKey: "k"})

		require.ErrorIs(t, err, domain.ErrEmptyResponse)
	})

	t.Run("should report missing choices as empty", func(t *testing.T) {
		srv, _ := newServer(t, http.StatusOK, `{"id":"x","choices":[]}`)
		p := openai.NewOpenAI(openai.Config{BaseURL: srv.URL})

		_, err := p.Generate(context.Background(), &domain.GenerateRequest{Prompt: "x", APIKey: "k"})

		require.ErrorIs(t, err, domain.ErrEmptyResponse)
	})

	t.Run("should surface provider error envelopes", func(t *testing.T) {
		srv, _ := newServer(t, http.StatusUnauthorized,
			`{"error":{"message":"Invalid API Key","type":"invalid_request_error","code":"invalid_api_key"}}`)
		p := openai.NewGroq(openai.Config{BaseURL: srv.URL})

		_, err := p.Generate(context.Background(), &domain.GenerateRequest{Prompt: "x", APIKey: "bad"})

		require.ErrorIs(t, err, domain.ErrProvider)
	})

	t.Run("should surface transport failures", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		p := openai.NewOpenAI(openai.Config{BaseURL: url})

		_, err := p.Generate(context.Background(), &domain.GenerateRequest{Prompt: "x", APIKey: "k"})

		require.ErrorIs(t, err, domain.ErrTransport)
	})

	t.Run("should reject nil request", func(t *testing.T) {
		p := openai.NewOpenAI(openai.Config{})

		resp, err := p.Generate(context.Background(), nil)

		require.Error(t, err)
		require.Nil(t, resp)
		require.Contains(t, err.Error(), "request cannot be nil")
	})
}

func TestProvider_FetchLiveModels(t *testing.T) {
	t.Run("should list model identifiers", func(t *testing.T) {
		srv, captured := newServer(t, http.StatusOK, `{"object":"list","data":[
			{"id":"gpt-4o","object":"model","created":1,"owned_by":"openai"},
			{"id":"whisper-1","object":"model","created":1,"owned_by":"openai"}
		]}`)
		p := openai.NewOpenAI(openai.Config{BaseURL: srv.URL})

		models, err := p.FetchLiveModels(context.Background(), "sk-test")

		require.NoError(t, err)
		require.Equal(t, []string{"gpt-4o", "whisper-1"}, models)
		require.Equal(t, "/models", captured.path)
		require.Equal(t, http.MethodGet, captured.method)
	})

	t.Run("should fail on an empty list", func(t *testing.T) {
		srv, _ := newServer(t, http.StatusOK, `{"object":"list","data":[]}`)
		p := openai.NewOpenAI(openai.Config{BaseURL: srv.URL})

		_, err := p.FetchLiveModels(context.Background(), "sk-test")

		require.ErrorIs(t, err, domain.ErrProvider)
	})

	t.Run("should map 404 to a missing endpoint", func(t *testing.T) {
		srv, _ := newServer(t, http.StatusNotFound, `{"error":{"message":"not found"}}`)
		p := openai.NewGroq(openai.Config{BaseURL: srv.URL})

		_, err := p.FetchLiveModels(context.Background(), "gsk-test")

		require.ErrorIs(t, err, domain.ErrModelsEndpointMissing)
	})

	t.Run("should require an API key", func(t *testing.T) {
		p := openai.NewOpenAI(openai.Config{})

		_, err := p.FetchLiveModels(context.Background(), "")

		require.ErrorIs(t, err, domain.ErrMissingAPIKey)
	})
}
