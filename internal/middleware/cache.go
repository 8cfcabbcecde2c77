package middleware

import "github.com/gin-gonic/gin"

const (
	cacheHitKey    = "cache_hit"
	cacheHitHeader = "X-Cache"
)

// SetCacheHit records whether the response was served from cache and
// exposes it to clients through the X-Cache header.
func SetCacheHit(c *gin.Context, hit bool) {
	c.Set(cacheHitKey, hit)
	if hit {
		c.Header(cacheHitHeader, "HIT")
		return
	}
	c.Header(cacheHitHeader, "MISS")
}

// CacheHit reports the value recorded by SetCacheHit.
func CacheHit(c *gin.Context) (hit bool, recorded bool) {
	value, exists := c.Get(cacheHitKey)
	if !exists {
		return false, false
	}
	hit, ok := value.(bool)
	return hit, ok
}
