package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"mailtriage/pkg/metrics"
)

// Store is the key/value backend of the prompt cache.
type Store interface {
	// Get returns ok=false on a miss.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisStore is a Store on top of a go-redis client.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

// CacheOptions configures WithCache.
type CacheOptions struct {
	// Namespace separates entries of different models or providers.
	Namespace string
	Prefix    string
	TTL       time.Duration
}

type cachedGenerator struct {
	next   Generator
	store  Store
	opts   CacheOptions
	logger *zap.Logger
}

// WithCache memoizes successful, non-empty completions of next in store.
// Cache errors are logged and the call goes through to next.
func WithCache(next Generator, store Store, opts CacheOptions, logger *zap.Logger) Generator {
	if opts.Prefix == "" {
		opts.Prefix = "mailtriage:prompt:"
	}
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	return &cachedGenerator{next: next, store: store, opts: opts, logger: logger}
}

// CacheKey returns the store key for prompt under namespace.
func CacheKey(prefix, namespace, prompt string) string {
	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return prefix + hex.EncodeToString(h.Sum(nil))
}

func (g *cachedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	key := CacheKey(g.opts.Prefix, g.opts.Namespace, prompt)

	v, ok, err := g.store.Get(ctx, key)
	switch {
	case err != nil:
		metrics.IncrementCacheLookup("error")
		g.logger.Warn("Prompt cache lookup failed, calling generator",
			zap.String("key", key),
			zap.Error(err),
		)
	case ok:
		metrics.IncrementCacheLookup("hit")
		return v, nil
	default:
		metrics.IncrementCacheLookup("miss")
	}

	out, err := g.next.Generate(ctx, prompt)
	if err != nil || out == "" {
		return out, err
	}

	if err := g.store.Set(ctx, key, out, g.opts.TTL); err != nil {
		g.logger.Warn("Prompt cache store failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return out, nil
}
