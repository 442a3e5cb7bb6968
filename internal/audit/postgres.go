package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidbz/shopscribe/internal/domain"
)

const defaultPoolSize = 5

// Config contains the audit database settings. An empty URL disables the table.
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
}

// PostgresStore appends audit entries to the generation_audit table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens a connection pool and verifies it.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	cfg.MaxConns = defaultPoolSize

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Migrate applies pending schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// Record inserts one entry.
func (s *PostgresStore) Record(ctx context.Context, entry *domain.AuditEntry) error {
	imageContext, err := json.Marshal(entry.ImageContext)
	if err != nil {
		return fmt.Errorf("encoding image context: %w", err)
	}

	args := pgx.NamedArgs{
		"created_at":        entry.Timestamp,
		"actor":             entry.Actor,
		"kind":              string(entry.Kind),
		"target_id":         entry.TargetID,
		"provider":          entry.Provider,
		"model":             entry.Model,
		"prompt":            entry.Prompt,
		"response":          entry.Response,
		"prompt_tokens":     entry.PromptTokens,
		"completion_tokens": entry.CompletionTokens,
		"total_tokens":      entry.TotalTokens,
		"status":            entry.Status,
		"error_message":     entry.ErrorMessage,
		"image_context":     imageContext,
	}

	if _, err := s.pool.Exec(ctx, `
		INSERT INTO generation_audit (
			created_at, actor, kind, target_id, provider, model, prompt, response,
			prompt_tokens, completion_tokens, total_tokens, status, error_message, image_context
		) VALUES (
			@created_at, @actor, @kind, @target_id, @provider, @model, @prompt, @response,
			@prompt_tokens, @completion_tokens, @total_tokens, @status, @error_message, @image_context
		)`, args); err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	return nil
}
