package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/shopscribe/internal/config"
	"github.com/davidbz/shopscribe/internal/domain"
	"github.com/davidbz/shopscribe/internal/generation"
	api "github.com/davidbz/shopscribe/internal/http"
	"github.com/davidbz/shopscribe/internal/http/middleware"
	"github.com/davidbz/shopscribe/internal/provider/registry"
)

type fakeGenerator struct {
	result *domain.GenerationResult
	err    error
	last   *domain.GenerationRequest
}

func (f *fakeGenerator) Generate(_ context.Context, req *domain.GenerationRequest) (*domain.GenerationResult, error) {
	f.last = req
	return f.result, f.err
}

type fakeModels struct {
	available []string
	refreshed []string
	err       error
	apiKey    string
}

func (f *fakeModels) Available(_ context.Context, _ domain.Provider) []string {
	return f.available
}

func (f *fakeModels) Refresh(_ context.Context, _ domain.Provider, apiKey string) ([]string, error) {
	f.apiKey = apiKey
	return f.refreshed, f.err
}

type fakeSettings struct {
	settings domain.Settings
	saved    map[string]any
	saveErr  error
}

func (f *fakeSettings) Load(_ context.Context) (domain.Settings, error) {
	return f.settings, nil
}

func (f *fakeSettings) Save(_ context.Context, values map[string]any) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = values
	return nil
}

type fakeProvider struct{ key string }

func (p fakeProvider) Key() string { return p.key }
func (p fakeProvider) Label() string { return "Label " + p.key }
func (p fakeProvider) DefaultModel() string { return "default-" + p.key }
func (p fakeProvider) KnownModels() []string { return nil }
func (p fakeProvider) APIKeyOption() string { return p.key + "_api_key" }
func (p fakeProvider) SupportsLiveModels() bool { return true }
func (p fakeProvider) SupportsResponseFormat() bool { return p.key == "openai" }
func (p fakeProvider) SupportsImageContext() bool { return false }

func (p fakeProvider) FetchLiveModels(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func (p fakeProvider) Generate(_ context.Context, _ *domain.GenerateRequest) (*domain.GenerateResponse, error) {
	return nil, nil
}

type env struct {
	routes    http.Handler
	generator *fakeGenerator
	models    *fakeModels
	settings  *fakeSettings
}

func newEnv(t *testing.T) *env {
	t.Helper()

	reg := registry.NewRegistry()
	require.NoError(t, reg.Register(context.Background(), fakeProvider{key: "groq"}))
	require.NoError(t, reg.Register(context.Background(), fakeProvider{key: "openai"}))

	e := &env{
		generator: &fakeGenerator{},
		models:    &fakeModels{available: []string{"m1", "m2"}},
		settings: &fakeSettings{settings: domain.Settings{
			Provider:          "groq",
			DefaultPrompt:     "Produkt-Standard",
			TermDefaultPrompt: "Kategorie-Standard",
			APIKeys:           map[string]string{"groq_api_key": "gsk-1234567890abcd"},
		}},
	}

	handler := api.NewHandler(e.generator, reg, e.models, e.settings)
	server := api.NewServer(&config.ServerConfig{Port: 0}, handler, middleware.Chain())
	e.routes = server.Routes()
	return e
}

func (e *env) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	w := httptest.NewRecorder()
	e.routes.ServeHTTP(w, httptest.NewRequest(method, path, &buf))
	return w
}

func TestHandleGenerate(t *testing.T) {
	t.Run("should return the generated fields", func(t *testing.T) {
		e := newEnv(t)
		e.generator.result = &domain.GenerationResult{
			Kind:             domain.KindProduct,
			Fields:           map[string]string{"title": "Blue Widget"},
			TitleSuggestions: []string{"Blue Widget"},
			Raw:              `{"title":"Blue Widget"}`,
		}

		w := e.do(http.MethodPost, "/v1/generate", map[string]any{
			"prompt":  "Schreib was.",
			"product": map[string]any{"id": "17", "title": "Blue Widget"},
		})

		require.Equal(t, http.StatusOK, w.Code)
		var got map[string]any
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		require.Equal(t, map[string]any{"title": "Blue Widget"}, got["fields"])
		require.Equal(t, []any{"Blue Widget"}, got["title_suggestions"])
		require.Equal(t, `{"title":"Blue Widget"}`, got["raw"])
		require.Equal(t, "Schreib was.", e.generator.last.Prompt)
		require.Equal(t, "Blue Widget", e.generator.last.Product.Title)
	})

	t.Run("should substitute the default prompt per kind", func(t *testing.T) {
		e := newEnv(t)
		e.generator.result = &domain.GenerationResult{}

		e.do(http.MethodPost, "/v1/generate", map[string]any{"product": map[string]any{"id": "1"}})
		require.Equal(t, "Produkt-Standard", e.generator.last.Prompt)

		e.do(http.MethodPost, "/v1/generate", map[string]any{"term": map[string]any{"id": "2", "name": "Stühle"}})
		require.Equal(t, "Kategorie-Standard", e.generator.last.Prompt)
	})

	t.Run("should map error kinds to status codes", func(t *testing.T) {
		cases := []struct {
			name   string
			err    error
			status int
			kind   string
		}{
			{"parse", domain.ParseError("bad json"), http.StatusUnprocessableEntity, "parse"},
			{"provider", domain.ProviderError("groq", "boom"), http.StatusBadGateway, "provider"},
			{"transport", domain.TransportError("groq", errors.New("dial")), http.StatusBadGateway, "transport"},
			{"empty", domain.EmptyResponse("groq"), http.StatusBadGateway, "empty_response"},
			{"missing key", domain.MissingAPIKey("groq"), http.StatusBadRequest, "missing_api_key"},
			{"invalid", generation.ErrInvalidRequest, http.StatusBadRequest, ""},
			{"unknown", errors.New("boom"), http.StatusInternalServerError, ""},
		}

		for _, tc := range cases {
			t.Run("should map "+tc.name, func(t *testing.T) {
				e := newEnv(t)
				e.generator.err = tc.err

				w := e.do(http.MethodPost, "/v1/generate", map[string]any{"prompt": "x", "product": map[string]any{}})

				require.Equal(t, tc.status, w.Code)
				var got map[string]any
				require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
				require.Equal(t, tc.err.Error(), got["error"])
				if tc.kind == "" {
					require.NotContains(t, got, "kind")
				} else {
					require.Equal(t, tc.kind, got["kind"])
				}
			})
		}
	})

	t.Run("should reject malformed bodies", func(t *testing.T) {
		e := newEnv(t)
		w := httptest.NewRecorder()
		e.routes.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/generate", bytes.NewBufferString("{")))

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Nil(t, e.generator.last)
	})

	t.Run("should reject other methods", func(t *testing.T) {
		e := newEnv(t)
		w := e.do(http.MethodGet, "/v1/generate", nil)
		require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestHandleProviders(t *testing.T) {
	t.Run("should list providers in registration order", func(t *testing.T) {
		e := newEnv(t)

		w := e.do(http.MethodGet, "/v1/providers", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var got []map[string]any
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		require.Len(t, got, 2)
		require.Equal(t, "groq", got[0]["key"])
		require.Equal(t, false, got[0]["supports_response_format"])
		require.Equal(t, "openai", got[1]["key"])
		require.Equal(t, true, got[1]["supports_response_format"])
		require.Equal(t, []any{"m1", "m2"}, got[1]["models"])
	})
}

func TestHandleModels(t *testing.T) {
	t.Run("should return cached models", func(t *testing.T) {
		e := newEnv(t)

		w := e.do(http.MethodGet, "/v1/providers/groq/models", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"provider":"groq","models":["m1","m2"]}`, w.Body.String())
	})

	t.Run("should refresh with the stored API key", func(t *testing.T) {
		e := newEnv(t)
		e.models.refreshed = []string{"fresh"}

		w := e.do(http.MethodGet, "/v1/providers/groq/models?refresh=true", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"provider":"groq","models":["fresh"]}`, w.Body.String())
		require.Equal(t, "gsk-1234567890abcd", e.models.apiKey)
	})

	t.Run("should surface refresh errors", func(t *testing.T) {
		e := newEnv(t)
		e.models.err = domain.NewError(domain.KindModelsEndpointMissing, "no listing", nil)

		w := e.do(http.MethodGet, "/v1/providers/groq/models?refresh=true", nil)
		require.Equal(t, http.StatusNotImplemented, w.Code)
	})

	t.Run("should 404 unknown providers", func(t *testing.T) {
		e := newEnv(t)

		w := e.do(http.MethodGet, "/v1/providers/nope/models", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSettingsRoutes(t *testing.T) {
	t.Run("should mask API keys", func(t *testing.T) {
		e := newEnv(t)

		w := e.do(http.MethodGet, "/v1/settings", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var got domain.Settings
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		require.Equal(t, "********abcd", got.APIKeys["groq_api_key"])
		require.Equal(t, "groq", got.Provider)
	})

	t.Run("should save flat values", func(t *testing.T) {
		e := newEnv(t)

		w := e.do(http.MethodPut, "/v1/settings", map[string]any{"provider": "openai"})
		require.Equal(t, http.StatusNoContent, w.Code)
		require.Equal(t, map[string]any{"provider": "openai"}, e.settings.saved)
	})

	t.Run("should reject invalid settings", func(t *testing.T) {
		e := newEnv(t)
		e.settings.saveErr = errors.New(`unknown setting "colour"`)

		w := e.do(http.MethodPut, "/v1/settings", map[string]any{"colour": "blue"})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHealthAndMetrics(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	w = e.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "go_goroutines")
}
