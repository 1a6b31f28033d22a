// Package cache memoizes description compilation.
package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/claude/traininglab/internal/workout"
	"github.com/coocood/freecache"
)

const megabyte = 1024 * 1024

// Compiler wraps workout.Generate with a freecache-backed result cache.
type Compiler struct {
	cache  *freecache.Cache
	expire int
}

// NewCompiler creates a Compiler holding up to sizeMB of encoded results for
// ttl. Results larger than 1/1024 of the cache are not stored.
func NewCompiler(sizeMB int, ttl time.Duration) *Compiler {
	return &Compiler{
		cache:  freecache.NewCache(sizeMB * megabyte),
		expire: int(ttl.Seconds()),
	}
}

// Generate returns the compiled workout for req and whether it came from the
// cache. Failed compilations are never cached.
func (c *Compiler) Generate(req workout.Request) (*workout.Result, bool, error) {
	key, err := cacheKey(req)
	if err != nil {
		return nil, false, err
	}

	if data, err := c.cache.Get(key); err == nil {
		var res workout.Result
		if err := json.Unmarshal(data, &res); err == nil {
			return &res, true, nil
		}
		c.cache.Del(key)
	}

	res, err := workout.Generate(req)
	if err != nil {
		return nil, false, err
	}
	if data, err := json.Marshal(res); err == nil {
		_ = c.cache.Set(key, data, c.expire)
	}
	return res, false, nil
}

// Len reports the number of cached entries.
func (c *Compiler) Len() int64 {
	return c.cache.EntryCount()
}

func cacheKey(req workout.Request) ([]byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return sum[:], nil
}
