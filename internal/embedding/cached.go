// ABOUTME: Memoising decorator for any Embedder, backed by go-cache
// ABOUTME: Keys are SHA-256 of model and text; callers always receive their own copy
package embedding

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedEmbedder serves repeated texts from memory.
// Errors are never cached.
type CachedEmbedder struct {
	inner Embedder
	cache *cache.Cache
}

var _ Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder wraps inner with a TTL cache
func NewCachedEmbedder(inner Embedder, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{
		inner: inner,
		cache: cache.New(ttl, ttl*2),
	}
}

// Embed returns a cached vector or computes and stores one
func (c *CachedEmbedder) Embed(text string) ([]float64, error) {
	key := c.key(text)
	if v, found := c.cache.Get(key); found {
		return copyVector(v.([]float64)), nil
	}

	vec, err := c.inner.Embed(text)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, copyVector(vec), cache.DefaultExpiration)
	return vec, nil
}

// Dimension delegates to the wrapped embedder
func (c *CachedEmbedder) Dimension() int {
	return c.inner.Dimension()
}

// Model delegates to the wrapped embedder
func (c *CachedEmbedder) Model() string {
	return c.inner.Model()
}

// Close flushes the cache and closes the wrapped embedder
func (c *CachedEmbedder) Close() error {
	c.cache.Flush()
	return c.inner.Close()
}

// Len returns the number of cached vectors
func (c *CachedEmbedder) Len() int {
	return c.cache.ItemCount()
}

func (c *CachedEmbedder) key(text string) string {
	h := sha256.New()
	h.Write([]byte(c.inner.Model()))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

func copyVector(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
