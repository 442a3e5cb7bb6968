package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/shopscribe/internal/store/memory"
)

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("should report missing keys", func(t *testing.T) {
		s := memory.NewStore()

		value, ok, err := s.Get(ctx, "provider")
		require.NoError(t, err)
		require.False(t, ok)
		require.Empty(t, value)
	})

	t.Run("should overwrite values", func(t *testing.T) {
		s := memory.NewStore()

		require.NoError(t, s.Set(ctx, "provider", "groq"))
		require.NoError(t, s.Set(ctx, "provider", "openai"))

		value, ok, err := s.Get(ctx, "provider")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "openai", value)
	})

	t.Run("should reject empty keys", func(t *testing.T) {
		s := memory.NewStore()

		require.Error(t, s.Set(ctx, "", "x"))
	})
}
