package provider

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/wonny/market-radar/internal/contracts"
	"github.com/wonny/market-radar/pkg/logger"
)

// Cache is an in-memory PriceProvider decorator keyed by symbol and range.
// Errors are never cached.
// ⭐ SSOT: in-process price caching lives here only
type Cache struct {
	next   contracts.PriceProvider
	ttl    time.Duration
	logger *logger.Logger
	now    func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	series    contracts.PriceSeries
	fetchedAt time.Time
}

// CacheStats represents cache statistics
type CacheStats struct {
	TotalCount int `json:"total_count"`
	FreshCount int `json:"fresh_count"`
	StaleCount int `json:"stale_count"`
}

// NewCache wraps next with a ttl cache
func NewCache(next contracts.PriceProvider, ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{
		next:    next,
		ttl:     ttl,
		logger:  log,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func cacheKey(symbol, rng string) string {
	return strings.ToUpper(symbol) + "|" + rng
}

// Fetch returns a fresh cached series or delegates to the wrapped provider
func (c *Cache) Fetch(ctx context.Context, symbol, rng string) (contracts.PriceSeries, error) {
	key := cacheKey(symbol, rng)

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Sub(e.fetchedAt) <= c.ttl {
		return e.series, nil
	}

	series, err := c.next.Fetch(ctx, symbol, rng)
	if err != nil {
		return contracts.PriceSeries{}, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{series: series, fetchedAt: c.now()}
	c.mu.Unlock()

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"range":  rng,
		"points": series.Len(),
	}).Debug("Updated price cache")

	return series, nil
}

// Len returns the number of cached series
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// CleanStale removes expired series and returns how many were dropped
func (c *Cache) CleanStale() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	count := 0
	for key, e := range c.entries {
		if now.Sub(e.fetchedAt) > c.ttl {
			delete(c.entries, key)
			count++
		}
	}

	if count > 0 {
		c.logger.WithField("count", count).Info("Cleaned stale series from cache")
	}

	return count
}

// Stats returns cache statistics
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := CacheStats{TotalCount: len(c.entries)}

	now := c.now()
	for _, e := range c.entries {
		if now.Sub(e.fetchedAt) > c.ttl {
			stats.StaleCount++
		}
	}
	stats.FreshCount = stats.TotalCount - stats.StaleCount

	return stats
}
