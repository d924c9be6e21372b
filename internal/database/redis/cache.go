// Package redis provides an optional cache for redirect projections.
// All cache failures degrade to a miss; the cache can never fail a redirect.
package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vadimbarashkov/shortlink/internal/models"
)

const (
	redirectCachePrefix = "redirect:"
	redirectCacheTTL    = 10 * time.Minute
)

// RedirectCache stores redirect projections keyed by short code.
type RedirectCache struct {
	rdb    *redis.Client
	logger *slog.Logger
}

func NewRedirectCache(rdb *redis.Client, logger *slog.Logger) *RedirectCache {
	return &RedirectCache{
		rdb:    rdb,
		logger: logger,
	}
}

type cachedProjection struct {
	ID           int64      `json:"id"`
	OriginalURL  string     `json:"original_url"`
	IsActive     bool       `json:"is_active"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	ClickCount   int64      `json:"click_count"`
	PasswordHash *string    `json:"password_hash,omitempty"`
}

func cacheKey(shortCode string) string {
	return redirectCachePrefix + shortCode
}

// Get retrieves a cached projection. A miss or any cache error returns
// nil, nil.
func (c *RedirectCache) Get(ctx context.Context, shortCode string) (*models.RedirectProjection, error) {
	data, err := c.rdb.Get(ctx, cacheKey(shortCode)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("failed to get redirect projection from cache",
				slog.String("short_code", shortCode), slog.Any("err", err))
		}

		return nil, nil
	}

	var cached cachedProjection
	if err := json.Unmarshal(data, &cached); err != nil {
		c.logger.Warn("failed to decode cached redirect projection",
			slog.String("short_code", shortCode), slog.Any("err", err))

		return nil, nil
	}

	return &models.RedirectProjection{
		ID:           cached.ID,
		OriginalURL:  cached.OriginalURL,
		IsActive:     cached.IsActive,
		ExpiresAt:    cached.ExpiresAt,
		ClickCount:   cached.ClickCount,
		PasswordHash: cached.PasswordHash,
	}, nil
}

// Set stores a projection. Projections carrying a click limit must not be
// cached; the limit check needs a fresh counter on every redirect.
func (c *RedirectCache) Set(ctx context.Context, shortCode string, proj *models.RedirectProjection) error {
	if proj.ClickLimit != nil {
		return nil
	}

	data, err := json.Marshal(cachedProjection{
		ID:           proj.ID,
		OriginalURL:  proj.OriginalURL,
		IsActive:     proj.IsActive,
		ExpiresAt:    proj.ExpiresAt,
		ClickCount:   proj.ClickCount,
		PasswordHash: proj.PasswordHash,
	})
	if err != nil {
		return err
	}

	if err := c.rdb.Set(ctx, cacheKey(shortCode), data, redirectCacheTTL).Err(); err != nil {
		c.logger.Warn("failed to cache redirect projection",
			slog.String("short_code", shortCode), slog.Any("err", err))
	}

	return nil
}

// Invalidate removes a projection from the cache.
func (c *RedirectCache) Invalidate(ctx context.Context, shortCode string) error {
	return c.rdb.Del(ctx, cacheKey(shortCode)).Err()
}
