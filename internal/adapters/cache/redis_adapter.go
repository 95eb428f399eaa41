package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/venomx/AntivenomFinder/backend/internal/domain/providers"
	"github.com/venomx/AntivenomFinder/backend/pkg/config"
)

const connectTimeout = 5 * time.Second

// ErrCacheMiss is returned by Get when the key does not exist.
var ErrCacheMiss = fmt.Errorf("cache miss")

// RedisAdapter implements the CacheProvider interface on Redis. It owns the
// connection; the snake catalog is the only cache consumer, so there is no
// shared client to hand around.
type RedisAdapter struct {
	client *redis.Client
}

var _ providers.CacheProvider = (*RedisAdapter)(nil)

// NewRedisAdapter connects to Redis and verifies the connection before
// returning. The application runs without caching when this fails.
func NewRedisAdapter(cfg *config.RedisConfig) (*RedisAdapter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info().Str("addr", cfg.RedisAddr()).Msg("Connected to Redis")
	return &RedisAdapter{client: client}, nil
}

// Get retrieves a cached value
func (a *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := a.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}
	return result, nil
}

// Set stores a value with the given time to live
func (a *RedisAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := a.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in cache: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (a *RedisAdapter) Close() error {
	return a.client.Close()
}
