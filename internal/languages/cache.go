// Package languages caches the remote languages supported by the vendor,
// keyed by provider configuration id.
package languages

import (
	"context"
	"fmt"
	"sync"

	"github.com/nhle/translation-connector/internal/bigword"
)

// APIResolver returns the vendor API client of a provider.
type APIResolver func(providerID string) (bigword.API, bool)

// Cache lazily fetches and holds the supported language list per provider.
// Entries live until Invalidate is called, which must happen whenever a
// provider configuration changes.
type Cache struct {
	resolve APIResolver

	mu      sync.Mutex
	entries map[string]map[string]string
}

// NewCache creates a language cache over the given API resolver.
func NewCache(resolve APIResolver) *Cache {
	return &Cache{
		resolve: resolve,
		entries: make(map[string]map[string]string),
	}
}

// Supported returns the vendor languages for a provider as a culture-name
// to display-name map, fetching them on first use.
func (c *Cache) Supported(ctx context.Context, providerID string) (map[string]string, error) {
	c.mu.Lock()
	if cached, ok := c.entries[providerID]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	api, ok := c.resolve(providerID)
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", providerID)
	}

	langs, err := api.Languages(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching supported languages for provider %q: %w", providerID, err)
	}

	supported := make(map[string]string, len(langs))
	for _, lang := range langs {
		supported[lang.CultureName] = lang.DisplayName
	}

	c.mu.Lock()
	c.entries[providerID] = supported
	c.mu.Unlock()

	return supported, nil
}

// Invalidate drops the cached languages of one provider.
func (c *Cache) Invalidate(providerID string) {
	c.mu.Lock()
	delete(c.entries, providerID)
	c.mu.Unlock()
}
