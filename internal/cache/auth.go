package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ashaconnect/ashaconnect/internal/model"
)

const (
	// authCachePrefix is the Redis key prefix for auth context cache.
	authCachePrefix = "auth:ctx:"
	// MaxAuthCacheTTL caps how long an auth context may be cached.
	MaxAuthCacheTTL = 5 * time.Minute
	// revokedTokenPrefix is the Redis key prefix for revoked tokens.
	revokedTokenPrefix = "auth:revoked:"
)

// CachedAuthContext represents auth context stored in Redis.
type CachedAuthContext struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// GetAuthContext retrieves a cached auth context by cache key.
// Returns nil if not found (cache miss).
func (c *Cache) GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error) {
	key := authCachePrefix + cacheKey

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var cached CachedAuthContext
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &model.AuthContext{
		UserID:   cached.UserID,
		Username: cached.Username,
		Role:     model.Role(cached.Role),
	}, nil
}

// SetAuthContext caches an auth context. The TTL must not outlive the
// token it was derived from; cache hits skip signature verification, so
// an entry that outlasts its token would keep an expired token valid.
// TTLs above MaxAuthCacheTTL are clamped; zero or negative TTLs skip
// caching.
func (c *Cache) SetAuthContext(ctx context.Context, cacheKey string, auth *model.AuthContext, ttl time.Duration) error {
	ttl = clampAuthTTL(ttl)
	if ttl == 0 {
		return nil
	}

	cached := CachedAuthContext{
		UserID:   auth.UserID,
		Username: auth.Username,
		Role:     string(auth.Role),
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal auth context: %w", err)
	}

	return c.client.Set(ctx, authCachePrefix+cacheKey, data, ttl).Err()
}

// clampAuthTTL bounds a cache TTL to (0, MaxAuthCacheTTL].
// Zero means do not cache.
func clampAuthTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	if ttl > MaxAuthCacheTTL {
		return MaxAuthCacheTTL
	}
	return ttl
}

// DeleteAuthContext removes a cached auth context.
func (c *Cache) DeleteAuthContext(ctx context.Context, cacheKey string) error {
	key := authCachePrefix + cacheKey
	return c.client.Del(ctx, key).Err()
}

// RevokeToken marks a token hash as revoked until its natural expiry.
// Used on logout and on password change.
func (c *Cache) RevokeToken(ctx context.Context, tokenHash string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, revokedTokenPrefix+tokenHash, "1", ttl).Err()
}

// IsTokenRevoked reports whether a token hash has been revoked.
// Redis errors fail open so an unreachable cache cannot lock everyone out.
func (c *Cache) IsTokenRevoked(ctx context.Context, tokenHash string) bool {
	n, err := c.client.Exists(ctx, revokedTokenPrefix+tokenHash).Result()
	if err != nil {
		return false
	}
	return n > 0
}
