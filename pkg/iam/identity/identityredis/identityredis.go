// Package identityredis caches resolved callers in redis for a short TTL so
// repeated requests with the same token skip the identity round trip.
package identityredis

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/Abraxas-365/mailrelay/pkg/iam/identity"
	"github.com/Abraxas-365/mailrelay/pkg/kernel"
	"github.com/Abraxas-365/mailrelay/pkg/logx"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

const keyPrefix = "mailrelay:identity:"

// Cache decorates a Resolver. Only successful resolutions are cached; redis
// failures fall through to the wrapped resolver.
type Cache struct {
	rdb   redis.Cmdable
	inner identity.Resolver
	ttl   time.Duration
}

// NewCache wraps inner with a redis cache.
func NewCache(rdb redis.Cmdable, inner identity.Resolver, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, inner: inner, ttl: ttl}
}

// Resolve implements identity.Resolver.
func (c *Cache) Resolve(ctx context.Context, token string) (*kernel.Caller, error) {
	key := cacheKey(token)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var caller kernel.Caller
		if jsonErr := json.Unmarshal(data, &caller); jsonErr == nil && caller.IsValid() {
			return &caller, nil
		}
	case err != redis.Nil:
		logx.WithContext(ctx).WithError(err).Warn("identityredis: cache read failed")
	}

	caller, err := c.inner.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(caller); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			logx.WithContext(ctx).WithError(err).Warn("identityredis: cache write failed")
		}
	}
	return caller, nil
}

// cacheKey never stores the raw token.
func cacheKey(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return keyPrefix + hex.EncodeToString(sum[:])
}
