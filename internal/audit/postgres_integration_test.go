//go:build integration

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/davidbz/shopscribe/internal/domain"
)

func setupPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("shopscribe_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := NewPostgresStore(ctx, connStr)
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
	})

	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestPostgresStore_Record(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	prompt, completion, total := 10, 20, 30
	require.NoError(t, s.Record(ctx, &domain.AuditEntry{
		Timestamp:        time.Now().UTC().Truncate(time.Microsecond),
		Actor:            "admin",
		Kind:             domain.KindTerm,
		TargetID:         "cat-5",
		Provider:         "openai",
		Model:            "gpt-4o-mini",
		Prompt:           "p",
		Response:         `{"top_description":"x"}`,
		PromptTokens:     &prompt,
		CompletionTokens: &completion,
		TotalTokens:      &total,
		Status:           domain.StatusSuccess,
		ImageContext:     domain.ImageContext{RequestedMode: domain.ImageModeNone, EffectiveMode: domain.ImageModeNone},
	}))

	msg := "parse failed"
	require.NoError(t, s.Record(ctx, &domain.AuditEntry{
		Timestamp:    time.Now().UTC(),
		Kind:         domain.KindTerm,
		TargetID:     "cat-5",
		Provider:     "openai",
		Status:       domain.StatusError,
		ErrorMessage: &msg,
	}))

	var count int
	var tokens *int
	require.NoError(t, s.pool.QueryRow(ctx,
		"SELECT count(*) FROM generation_audit WHERE target_id = $1", "cat-5").Scan(&count))
	require.Equal(t, 2, count)

	require.NoError(t, s.pool.QueryRow(ctx,
		"SELECT total_tokens FROM generation_audit WHERE status = 'error'").Scan(&tokens))
	require.Nil(t, tokens)

	t.Run("should be idempotent when migrating twice", func(t *testing.T) {
		require.NoError(t, s.Migrate(ctx))
	})
}
