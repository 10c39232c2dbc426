// Package cachesvc keeps rendered views in memory with bigcache.
package cachesvc

import (
	"context"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/pkg/errors"
)

// ViewCache is a byte cache whose entries expire after a fixed TTL.
type ViewCache struct {
	cache *bigcache.BigCache
}

func NewViewCache(ctx context.Context, ttl time.Duration) (*ViewCache, error) {
	conf := bigcache.DefaultConfig(ttl)
	conf.Shards = 64
	conf.CleanWindow = ttl
	conf.MaxEntriesInWindow = 1024
	conf.MaxEntrySize = 512
	conf.Verbose = false

	cache, err := bigcache.New(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "creating view cache")
	}
	return &ViewCache{cache: cache}, nil
}

func (c *ViewCache) Get(key string) ([]byte, bool) {
	entry, err := c.cache.Get(key)
	if err != nil {
		return nil, false
	}
	return entry, true
}

func (c *ViewCache) Set(key string, entry []byte) error {
	return errors.Wrapf(c.cache.Set(key, entry), "caching %s", key)
}

func (c *ViewCache) Delete(key string) {
	_ = c.cache.Delete(key) // missing entries are fine
}

// Len is the number of live entries, exported as a gauge by metricsvc.
func (c *ViewCache) Len() int { return c.cache.Len() }

func (c *ViewCache) Close() error {
	return c.cache.Close()
}
