// Package catalog maintains the per-provider model lists offered to operators.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/davidbz/shopscribe/internal/domain"
	"github.com/davidbz/shopscribe/internal/exclusion"
	"github.com/davidbz/shopscribe/internal/metrics"
	"github.com/davidbz/shopscribe/internal/observability"
)

const keyPrefix = "models_cache_"

// Catalog caches filtered live model lists in the key-value store.
type Catalog struct {
	store  domain.KVStore
	filter *exclusion.Filter
}

// NewCatalog creates a catalog.
func NewCatalog(store domain.KVStore, filter *exclusion.Filter) *Catalog {
	return &Catalog{
		store:  store,
		filter: filter,
	}
}

// Refresh fetches the live model list, filters it and stores it.
func (c *Catalog) Refresh(ctx context.Context, provider domain.Provider, apiKey string) ([]string, error) {
	models, err := c.refresh(ctx, provider, apiKey)

	status := domain.StatusSuccess
	if err != nil {
		status = domain.StatusError
	}
	metrics.ModelRefreshesTotal.WithLabelValues(provider.Key(), status).Inc()

	return models, err
}

func (c *Catalog) refresh(ctx context.Context, provider domain.Provider, apiKey string) ([]string, error) {
	if !provider.SupportsLiveModels() {
		return nil, domain.NewError(domain.KindModelsEndpointMissing,
			fmt.Sprintf("%s does not support live model listing", provider.Key()), nil)
	}

	live, err := provider.FetchLiveModels(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	models := c.filter.FilterModels(provider.Key(), live)
	if len(models) == 0 {
		return nil, domain.ProviderError(provider.Key(), "no usable models returned")
	}

	encoded, err := json.Marshal(models)
	if err != nil {
		return nil, fmt.Errorf("failed to encode model list: %w", err)
	}
	if err := c.store.Set(ctx, keyPrefix+provider.Key(), string(encoded)); err != nil {
		return nil, fmt.Errorf("failed to store model list: %w", err)
	}

	observability.FromContext(ctx).Info("model list refreshed",
		observability.String("provider", provider.Key()),
		observability.Int("count", len(models)))

	return models, nil
}

// Available returns the cached list, or the provider's known models when nothing usable is cached.
func (c *Catalog) Available(ctx context.Context, provider domain.Provider) []string {
	if cached := c.cached(ctx, provider.Key()); len(cached) > 0 {
		return cached
	}
	return c.filter.FilterModels(provider.Key(), provider.KnownModels())
}

func (c *Catalog) cached(ctx context.Context, key string) []string {
	raw, ok, err := c.store.Get(ctx, keyPrefix+key)
	if err != nil {
		observability.FromContext(ctx).Warn("failed to read model cache",
			observability.String("provider", key),
			observability.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	var models []string
	if err := json.Unmarshal([]byte(raw), &models); err != nil {
		return nil
	}
	return c.filter.FilterModels(key, models)
}
