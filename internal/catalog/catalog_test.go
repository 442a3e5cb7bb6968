package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/shopscribe/internal/catalog"
	"github.com/davidbz/shopscribe/internal/domain"
	"github.com/davidbz/shopscribe/internal/exclusion"
	"github.com/davidbz/shopscribe/internal/store/memory"
)

type stubProvider struct {
	key   string
	known []string
	live  []string
	err   error
	noAPI bool
}

func (s *stubProvider) Key() string { return s.key }
func (s *stubProvider) Label() string { return s.key }
func (s *stubProvider) DefaultModel() string { return "" }
func (s *stubProvider) KnownModels() []string { return s.known }
func (s *stubProvider) APIKeyOption() string { return s.key + "_api_key" }
func (s *stubProvider) SupportsLiveModels() bool { return !s.noAPI }
func (s *stubProvider) SupportsResponseFormat() bool { return false }
func (s *stubProvider) SupportsImageContext() bool { return false }

func (s *stubProvider) FetchLiveModels(_ context.Context, _ string) ([]string, error) {
	return s.live, s.err
}

func (s *stubProvider) Generate(_ context.Context, _ *domain.GenerateRequest) (*domain.GenerateResponse, error) {
	return nil, errors.New("not implemented")
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	filter := exclusion.NewFilter(nil)

	t.Run("should fall back to filtered known models", func(t *testing.T) {
		c := catalog.NewCatalog(memory.NewStore(), filter)
		p := &stubProvider{key: "openai", known: []string{"gpt-4o", "whisper-1", "gpt-4o"}}

		require.Equal(t, []string{"gpt-4o"}, c.Available(ctx, p))
	})

	t.Run("should persist refreshed models", func(t *testing.T) {
		store := memory.NewStore()
		c := catalog.NewCatalog(store, filter)
		p := &stubProvider{
			key:   "groq",
			known: []string{"llama-3.3-70b-versatile"},
			live:  []string{"whisper-large-v3", "llama-3.1-8b-instant", "qwen/qwen3-32b"},
		}

		models, err := c.Refresh(ctx, p, "key")
		require.NoError(t, err)
		require.Equal(t, []string{"llama-3.1-8b-instant", "qwen/qwen3-32b"}, models)

		require.Equal(t, models, c.Available(ctx, p))

		raw, ok, err := store.Get(ctx, "models_cache_groq")
		require.NoError(t, err)
		require.True(t, ok)
		require.JSONEq(t, `["llama-3.1-8b-instant","qwen/qwen3-32b"]`, raw)
	})

	t.Run("should not overwrite the cache on failure", func(t *testing.T) {
		store := memory.NewStore()
		require.NoError(t, store.Set(ctx, "models_cache_groq", `["cached-model"]`))
		c := catalog.NewCatalog(store, filter)
		p := &stubProvider{key: "groq", err: domain.ProviderError("groq", "invalid key")}

		_, err := c.Refresh(ctx, p, "bad")
		require.ErrorIs(t, err, domain.ErrProvider)
		require.Equal(t, []string{"cached-model"}, c.Available(ctx, p))
	})

	t.Run("should reject lists with no usable models", func(t *testing.T) {
		c := catalog.NewCatalog(memory.NewStore(), filter)
		p := &stubProvider{key: "openai", live: []string{"whisper-1", "tts-1"}}

		_, err := c.Refresh(ctx, p, "key")
		require.ErrorIs(t, err, domain.ErrProvider)
	})

	t.Run("should report providers without live listing", func(t *testing.T) {
		c := catalog.NewCatalog(memory.NewStore(), filter)
		p := &stubProvider{key: "custom", noAPI: true}

		_, err := c.Refresh(ctx, p, "key")
		require.ErrorIs(t, err, domain.ErrModelsEndpointMissing)
	})
}
