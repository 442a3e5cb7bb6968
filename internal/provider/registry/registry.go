package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/davidbz/shopscribe/internal/domain"
	"github.com/davidbz/shopscribe/internal/observability"
)

// DefaultProvider is used whenever a requested provider key is unknown.
const DefaultProvider = "groq"

// Registry implements the ProviderRegistry interface.
type Registry struct {
	mu         sync.RWMutex
	providers  map[string]domain.Provider
	order      []string
	defaultKey string
}

// NewRegistry creates a new provider registry falling back to DefaultProvider.
func NewRegistry() *Registry {
	return NewRegistryWithDefault(DefaultProvider)
}

// NewRegistryWithDefault creates a registry with a custom fallback key.
func NewRegistryWithDefault(defaultKey string) *Registry {
	return &Registry{
		mu:         sync.RWMutex{},
		providers:  make(map[string]domain.Provider),
		order:      nil,
		defaultKey: defaultKey,
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(_ context.Context, provider domain.Provider) error {
	if provider == nil {
		return errors.New("provider cannot be nil")
	}

	key := provider.Key()
	if key == "" {
		return errors.New("provider key cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[key]; exists {
		return fmt.Errorf("provider %s already registered", key)
	}

	r.providers[key] = provider
	r.order = append(r.order, key)

	return nil
}

// Get retrieves a provider by key.
func (r *Registry) Get(_ context.Context, key string) (domain.Provider, error) {
	if key == "" {
		return nil, errors.New("provider key cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[key]
	if !exists {
		return nil, fmt.Errorf("provider %s not found", key)
	}

	return provider, nil
}

// All returns the registered providers in registration order.
func (r *Registry) All(_ context.Context) []domain.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]domain.Provider, 0, len(r.order))
	for _, key := range r.order {
		providers = append(providers, r.providers[key])
	}

	return providers
}

// Resolve returns the provider for key, falling back to the default provider.
func (r *Registry) Resolve(ctx context.Context, key string) (domain.Provider, error) {
	if provider, err := r.Get(ctx, key); err == nil {
		return provider, nil
	}

	provider, err := r.Get(ctx, r.defaultKey)
	if err != nil {
		return nil, fmt.Errorf("default provider unavailable: %w", err)
	}

	if key != "" {
		observability.FromContext(ctx).Warn("unknown provider, using default",
			observability.String("requested", key),
			observability.String("default", r.defaultKey))
	}

	return provider, nil
}
