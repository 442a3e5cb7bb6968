// Package conversation hands out per-provider conversation tags that rotate
// whenever the store context text changes.
package conversation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/davidbz/shopscribe/internal/domain"
	"github.com/davidbz/shopscribe/internal/observability"
)

const keyPrefix = "conversation_"

type state struct {
	Hash string `json:"hash"`
	Tag  string `json:"tag"`
}

// Tracker persists one {hash, tag} pair per provider.
type Tracker struct {
	store domain.KVStore
	newID func() string
}

// NewTracker creates a tracker backed by the given store.
func NewTracker(store domain.KVStore) *Tracker {
	return &Tracker{
		store: store,
		newID: uuid.NewString,
	}
}

// EnsureTag returns the stored tag when the context hash is unchanged,
// otherwise stores and returns a fresh one.
func (t *Tracker) EnsureTag(ctx context.Context, provider, storeContext string) (string, error) {
	hash := hashContext(storeContext)
	key := keyPrefix + provider

	raw, ok, err := t.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to load conversation state: %w", err)
	}

	if ok {
		var current state
		if err := json.Unmarshal([]byte(raw), &current); err == nil && current.Hash == hash && current.Tag != "" {
			return current.Tag, nil
		}
	}

	next := state{Hash: hash, Tag: t.newID()}
	encoded, err := json.Marshal(next)
	if err != nil {
		return "", fmt.Errorf("failed to encode conversation state: %w", err)
	}

	if err := t.store.Set(ctx, key, string(encoded)); err != nil {
		return "", fmt.Errorf("failed to store conversation state: %w", err)
	}

	observability.FromContext(ctx).Debug("conversation tag rotated",
		observability.String("provider", provider),
		observability.String("tag", next.Tag))

	return next.Tag, nil
}

func hashContext(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}
