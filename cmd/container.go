package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/afero"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/davidbz/shopscribe/internal/audit"
	"github.com/davidbz/shopscribe/internal/catalog"
	"github.com/davidbz/shopscribe/internal/config"
	"github.com/davidbz/shopscribe/internal/conversation"
	"github.com/davidbz/shopscribe/internal/domain"
	"github.com/davidbz/shopscribe/internal/exclusion"
	"github.com/davidbz/shopscribe/internal/generation"
	"github.com/davidbz/shopscribe/internal/http"
	"github.com/davidbz/shopscribe/internal/http/middleware"
	"github.com/davidbz/shopscribe/internal/images"
	"github.com/davidbz/shopscribe/internal/observability"
	"github.com/davidbz/shopscribe/internal/prompt"
	"github.com/davidbz/shopscribe/internal/provider/google"
	"github.com/davidbz/shopscribe/internal/provider/openai"
	"github.com/davidbz/shopscribe/internal/provider/registry"
	"github.com/davidbz/shopscribe/internal/settings"
	"github.com/davidbz/shopscribe/internal/store/memory"
	"github.com/davidbz/shopscribe/internal/store/redis"
)

type providerConfigs struct {
	dig.In

	Groq   *openai.Config `name:"groq"`
	OpenAI *openai.Config `name:"openai"`
	Google *google.Config
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}

	// Key-value store: Redis when configured, otherwise in-process.
	if err := container.Provide(func(cfg *redis.Config) (domain.KVStore, error) {
		if cfg.Addr == "" {
			return memory.NewStore(), nil
		}
		client, err := redis.NewClient(context.Background(), *cfg)
		if err != nil {
			return nil, err
		}
		return redis.NewStore(client, cfg.Prefix), nil
	}); err != nil {
		log.Fatalf("Failed to provide key-value store: %v", err)
	}

	// Provider Registry, registration order is the listing order.
	if err := container.Provide(func(cfgs providerConfigs) (domain.ProviderRegistry, error) {
		reg := registry.NewRegistry()
		ctx := context.Background()

		for _, p := range []domain.Provider{
			openai.NewGroq(*cfgs.Groq),
			openai.NewOpenAI(*cfgs.OpenAI),
			google.NewProvider(*cfgs.Google),
		} {
			if err := reg.Register(ctx, p); err != nil {
				return nil, fmt.Errorf("failed to register %s provider: %w", p.Key(), err)
			}
		}
		return reg, nil
	}); err != nil {
		log.Fatalf("Failed to provide registry: %v", err)
	}

	// Domain components
	if err := container.Provide(func() *exclusion.Filter {
		return exclusion.NewFilter(nil)
	}); err != nil {
		log.Fatalf("Failed to provide exclusion filter: %v", err)
	}
	if err := container.Provide(func(store domain.KVStore) domain.ConversationTracker {
		return conversation.NewTracker(store)
	}); err != nil {
		log.Fatalf("Failed to provide conversation tracker: %v", err)
	}
	if err := container.Provide(catalog.NewCatalog); err != nil {
		log.Fatalf("Failed to provide model catalog: %v", err)
	}
	if err := container.Provide(func(c *catalog.Catalog) domain.ModelCatalog {
		return c
	}); err != nil {
		log.Fatalf("Failed to provide model catalog interface: %v", err)
	}
	if err := container.Provide(func(store domain.KVStore, defaults *settings.Defaults) *settings.Source {
		return settings.NewSource(store, *defaults)
	}); err != nil {
		log.Fatalf("Failed to provide settings source: %v", err)
	}
	if err := container.Provide(func(src *settings.Source) domain.SettingsSource {
		return src
	}); err != nil {
		log.Fatalf("Failed to provide settings interface: %v", err)
	}
	if err := container.Provide(func(cfg *images.Config) domain.ImageLoader {
		return images.NewLoader(afero.NewOsFs(), *cfg)
	}); err != nil {
		log.Fatalf("Failed to provide image loader: %v", err)
	}
	if err := container.Provide(func() *prompt.Builder {
		return prompt.NewBuilder(prompt.Options{})
	}); err != nil {
		log.Fatalf("Failed to provide prompt builder: %v", err)
	}

	// Audit log: structured log always, PostgreSQL when configured.
	if err := container.Provide(func(logger *zap.Logger, cfg *audit.Config) (domain.AuditLog, error) {
		logSink := audit.NewLogSink(logger)
		if cfg.DatabaseURL == "" {
			return logSink, nil
		}

		ctx := context.Background()
		store, err := audit.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return audit.NewMulti(logSink, store), nil
	}); err != nil {
		log.Fatalf("Failed to provide audit log: %v", err)
	}

	// Domain Services
	if err := container.Provide(generation.NewService); err != nil {
		log.Fatalf("Failed to provide generation service: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(func(
		svc *generation.Service,
		reg domain.ProviderRegistry,
		models *catalog.Catalog,
		src *settings.Source,
	) *http.Handler {
		return http.NewHandler(svc, reg, models, src)
	}); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}
