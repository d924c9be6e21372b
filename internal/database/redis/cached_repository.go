package redis

import (
	"context"

	"github.com/vadimbarashkov/shortlink/internal/database/postgres"
	"github.com/vadimbarashkov/shortlink/internal/models"
)

// urlRepository is the subset of the Postgres URL repository the cache
// decorator wraps.
type urlRepository interface {
	Create(ctx context.Context, params postgres.CreateURLParams, codeFor func(id int64) string) (*models.ShortURL, error)
	GetRedirectByCode(ctx context.Context, shortCode string) (*models.RedirectProjection, error)
	IncrementClickCount(ctx context.Context, shortCode string) (bool, error)
	GetByID(ctx context.Context, id int64) (*models.ShortURL, error)
	GetByShortCode(ctx context.Context, shortCode string) (*models.ShortURL, error)
}

// CachedURLRepository layers the redirect cache over the Postgres URL
// repository. Only the hot-path projection read is cached; writes pass
// through untouched.
type CachedURLRepository struct {
	next  urlRepository
	cache *RedirectCache
}

func NewCachedURLRepository(next urlRepository, cache *RedirectCache) *CachedURLRepository {
	return &CachedURLRepository{
		next:  next,
		cache: cache,
	}
}

func (r *CachedURLRepository) Create(ctx context.Context, params postgres.CreateURLParams, codeFor func(id int64) string) (*models.ShortURL, error) {
	url, err := r.next.Create(ctx, params, codeFor)
	if err != nil {
		return nil, err
	}

	// A stale projection under this code must not outlive the new row.
	_ = r.cache.Invalidate(ctx, url.ShortCode)

	return url, nil
}

func (r *CachedURLRepository) GetRedirectByCode(ctx context.Context, shortCode string) (*models.RedirectProjection, error) {
	if proj, _ := r.cache.Get(ctx, shortCode); proj != nil {
		return proj, nil
	}

	proj, err := r.next.GetRedirectByCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	_ = r.cache.Set(ctx, shortCode, proj)

	return proj, nil
}

func (r *CachedURLRepository) IncrementClickCount(ctx context.Context, shortCode string) (bool, error) {
	return r.next.IncrementClickCount(ctx, shortCode)
}

func (r *CachedURLRepository) GetByID(ctx context.Context, id int64) (*models.ShortURL, error) {
	return r.next.GetByID(ctx, id)
}

func (r *CachedURLRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.ShortURL, error) {
	return r.next.GetByShortCode(ctx, shortCode)
}
