package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/venomx/AntivenomFinder/backend/internal/domain/entities"
	"github.com/venomx/AntivenomFinder/backend/internal/domain/providers"
	"github.com/venomx/AntivenomFinder/backend/internal/domain/repositories"
)

// CachedSnakeAdapter wraps a SnakeRepository with caching. The snake catalog
// changes rarely, so lookups are cached aggressively while stock queries
// always hit the database.
type CachedSnakeAdapter struct {
	adapter repositories.SnakeRepository
	cache   providers.CacheProvider
}

// NewCachedSnakeAdapter creates a new cached snake adapter
func NewCachedSnakeAdapter(adapter repositories.SnakeRepository, cache providers.CacheProvider) repositories.SnakeRepository {
	return &CachedSnakeAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

const (
	snakeByNameTTL = time.Hour
	snakeListTTL   = 30 * time.Minute
)

func snakeByNameCacheKey(commonName string) string {
	return fmt.Sprintf("snake:name:%s", strings.ToLower(commonName))
}

const (
	snakeListAllCacheKey       = "snakes:list:all"
	snakeListAntivenomCacheKey = "snakes:list:with_antivenom"
)

// GetByCommonName resolves a snake by common name with caching
func (a *CachedSnakeAdapter) GetByCommonName(ctx context.Context, commonName string) (*entities.Snake, error) {
	cacheKey := snakeByNameCacheKey(commonName)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var snake entities.Snake
		unmarshalErr := json.Unmarshal(cached, &snake)
		if unmarshalErr == nil {
			return &snake, nil
		}
		log.Debug().Err(unmarshalErr).Str("key", cacheKey).Msg("failed to unmarshal cached snake")
	}

	snake, err := a.adapter.GetByCommonName(ctx, commonName)
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously to avoid blocking the response
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(snake); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, snakeByNameTTL); err != nil {
				log.Debug().Err(err).Str("key", cacheKey).Msg("failed to cache snake")
			}
		}
	}()

	return snake, nil
}

// ListAll returns all snakes with caching
func (a *CachedSnakeAdapter) ListAll(ctx context.Context) ([]entities.Snake, error) {
	return a.cachedList(ctx, snakeListAllCacheKey, a.adapter.ListAll)
}

// ListWithAntivenom returns snakes with linked antivenom, with caching
func (a *CachedSnakeAdapter) ListWithAntivenom(ctx context.Context) ([]entities.Snake, error) {
	return a.cachedList(ctx, snakeListAntivenomCacheKey, a.adapter.ListWithAntivenom)
}

func (a *CachedSnakeAdapter) cachedList(
	ctx context.Context,
	cacheKey string,
	fetch func(context.Context) ([]entities.Snake, error),
) ([]entities.Snake, error) {
	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var snakes []entities.Snake
		unmarshalErr := json.Unmarshal(cached, &snakes)
		if unmarshalErr == nil {
			return snakes, nil
		}
		log.Debug().Err(unmarshalErr).Str("key", cacheKey).Msg("failed to unmarshal cached snake list")
	}

	snakes, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(snakes); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, snakeListTTL); err != nil {
				log.Debug().Err(err).Str("key", cacheKey).Msg("failed to cache snake list")
			}
		}
	}()

	return snakes, nil
}
