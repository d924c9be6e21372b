package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/vadimbarashkov/shortlink/internal/models"
)

const (
	// HistoryPageSize is the fixed page size for click history queries.
	HistoryPageSize = 50

	// realTimeWindow is the rolling window for the real-time click view.
	realTimeWindow = 24 * time.Hour
)

var (
	// ErrInvalidPage is returned for pages below 1.
	ErrInvalidPage = errors.New("page must be 1 or greater")
	// ErrInvalidDateRange is returned when the range start is after its end.
	ErrInvalidDateRange = errors.New("date range start must not be after its end")
)

// ClickRepository defines the read side over persisted click events plus
// retention cleanup.
type ClickRepository interface {
	CountClicks(ctx context.Context, shortURLID int64, rng models.DateRange) (int64, error)
	CountByCountry(ctx context.Context, shortURLID int64, rng models.DateRange) ([]models.LabelCount, error)
	CountByDeviceType(ctx context.Context, shortURLID int64, rng models.DateRange) ([]models.LabelCount, error)
	CountByTrafficSource(ctx context.Context, shortURLID int64, rng models.DateRange) ([]models.LabelCount, error)
	RecentClicks(ctx context.Context, shortURLID int64, limit int) ([]models.ClickEvent, error)
	ListClicks(ctx context.Context, shortURLID int64, rng models.DateRange, limit, offset int) ([]models.ClickEvent, int64, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AnalyticsService provides read-only aggregation over click events.
type AnalyticsService struct {
	clicks ClickRepository
}

// NewAnalyticsService creates a new instance of AnalyticsService with the
// provided click repository.
func NewAnalyticsService(clicks ClickRepository) *AnalyticsService {
	return &AnalyticsService{
		clicks: clicks,
	}
}

// TotalClicks returns the total click count for a short URL, optionally
// bounded by an inclusive date range.
func (s *AnalyticsService) TotalClicks(ctx context.Context, shortURLID int64, rng models.DateRange) (int64, error) {
	const op = "service.AnalyticsService.TotalClicks"

	if !rng.Valid() {
		return 0, fmt.Errorf("%s: %w", op, ErrInvalidDateRange)
	}

	count, err := s.clicks.CountClicks(ctx, shortURLID, rng)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to count clicks: %w", op, err)
	}

	return count, nil
}

func (s *AnalyticsService) breakdown(
	ctx context.Context,
	op string,
	rng models.DateRange,
	query func(context.Context) ([]models.LabelCount, error),
) (map[string]int64, error) {
	if !rng.Valid() {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidDateRange)
	}

	counts, err := query(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to group clicks: %w", op, err)
	}

	return lo.SliceToMap(counts, func(c models.LabelCount) (string, int64) {
		return c.Label, c.Count
	}), nil
}

// ClicksByCountry returns a country to click count mapping.
func (s *AnalyticsService) ClicksByCountry(ctx context.Context, shortURLID int64, rng models.DateRange) (map[string]int64, error) {
	const op = "service.AnalyticsService.ClicksByCountry"

	return s.breakdown(ctx, op, rng, func(ctx context.Context) ([]models.LabelCount, error) {
		return s.clicks.CountByCountry(ctx, shortURLID, rng)
	})
}

// ClicksByDeviceType returns a device type to click count mapping.
func (s *AnalyticsService) ClicksByDeviceType(ctx context.Context, shortURLID int64, rng models.DateRange) (map[string]int64, error) {
	const op = "service.AnalyticsService.ClicksByDeviceType"

	return s.breakdown(ctx, op, rng, func(ctx context.Context) ([]models.LabelCount, error) {
		return s.clicks.CountByDeviceType(ctx, shortURLID, rng)
	})
}

// ClicksByTrafficSource returns a traffic source to click count mapping.
func (s *AnalyticsService) ClicksByTrafficSource(ctx context.Context, shortURLID int64, rng models.DateRange) (map[string]int64, error) {
	const op = "service.AnalyticsService.ClicksByTrafficSource"

	return s.breakdown(ctx, op, rng, func(ctx context.Context) ([]models.LabelCount, error) {
		return s.clicks.CountByTrafficSource(ctx, shortURLID, rng)
	})
}

// RecentClicks returns the most recent clicks, newest first.
func (s *AnalyticsService) RecentClicks(ctx context.Context, shortURLID int64, limit int) ([]models.ClickEvent, error) {
	const op = "service.AnalyticsService.RecentClicks"

	if limit < 1 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidPage)
	}

	events, err := s.clicks.RecentClicks(ctx, shortURLID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get recent clicks: %w", op, err)
	}

	return events, nil
}

// ClickHistory returns one page of click history with paging metadata.
// Pages are 1-based with a fixed page size.
func (s *AnalyticsService) ClickHistory(ctx context.Context, shortURLID int64, page int, rng models.DateRange) (*models.ClickPage, error) {
	const op = "service.AnalyticsService.ClickHistory"

	if page < 1 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidPage)
	}
	if !rng.Valid() {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidDateRange)
	}

	offset := (page - 1) * HistoryPageSize

	events, total, err := s.clicks.ListClicks(ctx, shortURLID, rng, HistoryPageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list clicks: %w", op, err)
	}

	totalPages := int((total + HistoryPageSize - 1) / HistoryPageSize)

	return &models.ClickPage{
		Clicks:     events,
		Page:       page,
		PageSize:   HistoryPageSize,
		TotalCount: total,
		TotalPages: totalPages,
	}, nil
}

// RealTimeClicks returns the click count over the last 24 hours. The
// window is recomputed on every call; nothing is cached.
func (s *AnalyticsService) RealTimeClicks(ctx context.Context, shortURLID int64) (int64, error) {
	const op = "service.AnalyticsService.RealTimeClicks"

	from := time.Now().UTC().Add(-realTimeWindow)

	count, err := s.clicks.CountClicks(ctx, shortURLID, models.DateRange{From: &from})
	if err != nil {
		return 0, fmt.Errorf("%s: failed to count clicks: %w", op, err)
	}

	return count, nil
}

// CleanupOldClicks irreversibly deletes all click events older than the
// retention period and returns the number of deleted rows.
func (s *AnalyticsService) CleanupOldClicks(ctx context.Context, retention time.Duration) (int64, error) {
	const op = "service.AnalyticsService.CleanupOldClicks"

	cutoff := time.Now().UTC().Add(-retention)

	deleted, err := s.clicks.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to delete old clicks: %w", op, err)
	}

	return deleted, nil
}
