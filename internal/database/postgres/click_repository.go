package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vadimbarashkov/shortlink/internal/models"
)

type clickEventRecord struct {
	ID             int64     `db:"id"`
	ShortURLID     int64     `db:"short_url_id"`
	ClickedAt      time.Time `db:"clicked_at"`
	IP             string    `db:"ip"`
	SessionID      string    `db:"session_id"`
	UserAgent      string    `db:"user_agent"`
	Browser        string    `db:"browser"`
	OS             string    `db:"os"`
	Device         string    `db:"device"`
	DeviceType     string    `db:"device_type"`
	Country        string    `db:"country"`
	City           string    `db:"city"`
	Referrer       string    `db:"referrer"`
	ReferrerDomain string    `db:"referrer_domain"`
	TrafficSource  string    `db:"traffic_source"`
	UTMSource      string    `db:"utm_source"`
	UTMMedium      string    `db:"utm_medium"`
	UTMCampaign    string    `db:"utm_campaign"`
	UTMTerm        string    `db:"utm_term"`
	UTMContent     string    `db:"utm_content"`
}

func (r *clickEventRecord) ToClickEvent() models.ClickEvent {
	return models.ClickEvent{
		ID:             r.ID,
		ShortURLID:     r.ShortURLID,
		ClickedAt:      r.ClickedAt,
		IP:             r.IP,
		SessionID:      r.SessionID,
		UserAgent:      r.UserAgent,
		Browser:        r.Browser,
		OS:             r.OS,
		Device:         r.Device,
		DeviceType:     r.DeviceType,
		Country:        r.Country,
		City:           r.City,
		Referrer:       r.Referrer,
		ReferrerDomain: r.ReferrerDomain,
		TrafficSource:  models.TrafficSource(r.TrafficSource),
		UTMSource:      r.UTMSource,
		UTMMedium:      r.UTMMedium,
		UTMCampaign:    r.UTMCampaign,
		UTMTerm:        r.UTMTerm,
		UTMContent:     r.UTMContent,
	}
}

type labelCountRecord struct {
	Label string `db:"label"`
	Count int64  `db:"count"`
}

type ClickRepository struct {
	db *sqlx.DB
}

func NewClickRepository(db *sqlx.DB) *ClickRepository {
	return &ClickRepository{
		db: db,
	}
}

// Insert persists an enriched click event. Click events are append-only;
// there is no update path.
func (r *ClickRepository) Insert(ctx context.Context, event models.ClickEvent) error {
	const op = "database.postgres.ClickRepository.Insert"

	query := `INSERT INTO click_events(
			short_url_id, clicked_at, ip, session_id, user_agent,
			browser, os, device, device_type, country, city,
			referrer, referrer_domain, traffic_source,
			utm_source, utm_medium, utm_campaign, utm_term, utm_content)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err := r.db.ExecContext(ctx, query,
		event.ShortURLID, event.ClickedAt, event.IP, event.SessionID, event.UserAgent,
		event.Browser, event.OS, event.Device, event.DeviceType, event.Country, event.City,
		event.Referrer, event.ReferrerDomain, string(event.TrafficSource),
		event.UTMSource, event.UTMMedium, event.UTMCampaign, event.UTMTerm, event.UTMContent)
	if err != nil {
		return fmt.Errorf("%s: failed to insert click event: %w", op, err)
	}

	return nil
}

// rangeClause appends inclusive date bounds to a query. The starting
// placeholder index follows the already bound arguments.
func rangeClause(rng models.DateRange, args []any) (string, []any) {
	var sb strings.Builder

	if rng.From != nil {
		args = append(args, *rng.From)
		fmt.Fprintf(&sb, " AND clicked_at >= $%d", len(args))
	}
	if rng.To != nil {
		args = append(args, *rng.To)
		fmt.Fprintf(&sb, " AND clicked_at <= $%d", len(args))
	}

	return sb.String(), args
}

// CountClicks returns the total number of clicks for a short URL,
// optionally bounded by an inclusive date range.
func (r *ClickRepository) CountClicks(ctx context.Context, shortURLID int64, rng models.DateRange) (int64, error) {
	const op = "database.postgres.ClickRepository.CountClicks"

	args := []any{shortURLID}
	clause, args := rangeClause(rng, args)
	query := `SELECT count(*) FROM click_events WHERE short_url_id = $1` + clause

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("%s: failed to count click events: %w", op, err)
	}

	return count, nil
}

func (r *ClickRepository) countByColumn(ctx context.Context, op, column string, shortURLID int64, rng models.DateRange) ([]models.LabelCount, error) {
	args := []any{shortURLID}
	clause, args := rangeClause(rng, args)
	query := fmt.Sprintf(`SELECT %s AS label, count(*) AS count
		FROM click_events
		WHERE short_url_id = $1%s
		GROUP BY %s
		ORDER BY count DESC`, column, clause, column)

	var recs []labelCountRecord
	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to group click events: %w", op, err)
	}

	counts := make([]models.LabelCount, len(recs))
	for i, rec := range recs {
		counts[i] = models.LabelCount{Label: rec.Label, Count: rec.Count}
	}

	return counts, nil
}

// CountByCountry returns click counts grouped by country.
func (r *ClickRepository) CountByCountry(ctx context.Context, shortURLID int64, rng models.DateRange) ([]models.LabelCount, error) {
	const op = "database.postgres.ClickRepository.CountByCountry"
	return r.countByColumn(ctx, op, "country", shortURLID, rng)
}

// CountByDeviceType returns click counts grouped by device type.
func (r *ClickRepository) CountByDeviceType(ctx context.Context, shortURLID int64, rng models.DateRange) ([]models.LabelCount, error) {
	const op = "database.postgres.ClickRepository.CountByDeviceType"
	return r.countByColumn(ctx, op, "device_type", shortURLID, rng)
}

// CountByTrafficSource returns click counts grouped by traffic source.
func (r *ClickRepository) CountByTrafficSource(ctx context.Context, shortURLID int64, rng models.DateRange) ([]models.LabelCount, error) {
	const op = "database.postgres.ClickRepository.CountByTrafficSource"
	return r.countByColumn(ctx, op, "traffic_source", shortURLID, rng)
}

// RecentClicks returns the most recent clicks for a short URL,
// newest first.
func (r *ClickRepository) RecentClicks(ctx context.Context, shortURLID int64, limit int) ([]models.ClickEvent, error) {
	const op = "database.postgres.ClickRepository.RecentClicks"

	query := `SELECT * FROM click_events
		WHERE short_url_id = $1
		ORDER BY clicked_at DESC
		LIMIT $2`

	var recs []clickEventRecord
	if err := r.db.SelectContext(ctx, &recs, query, shortURLID, limit); err != nil {
		return nil, fmt.Errorf("%s: failed to select click events: %w", op, err)
	}

	events := make([]models.ClickEvent, len(recs))
	for i, rec := range recs {
		events[i] = rec.ToClickEvent()
	}

	return events, nil
}

// ListClicks returns one page of click history, newest first, along with
// the total row count for the same filter.
func (r *ClickRepository) ListClicks(ctx context.Context, shortURLID int64, rng models.DateRange, limit, offset int) ([]models.ClickEvent, int64, error) {
	const op = "database.postgres.ClickRepository.ListClicks"

	total, err := r.CountClicks(ctx, shortURLID, rng)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	args := []any{shortURLID}
	clause, args := rangeClause(rng, args)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT * FROM click_events
		WHERE short_url_id = $1%s
		ORDER BY clicked_at DESC
		LIMIT $%d OFFSET $%d`, clause, len(args)-1, len(args))

	var recs []clickEventRecord
	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to select click events: %w", op, err)
	}

	events := make([]models.ClickEvent, len(recs))
	for i, rec := range recs {
		events[i] = rec.ToClickEvent()
	}

	return events, total, nil
}

// DeleteBefore removes all click events older than the cutoff and returns
// how many rows were deleted. The deletion is irreversible.
func (r *ClickRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const op = "database.postgres.ClickRepository.DeleteBefore"

	query := `DELETE FROM click_events WHERE clicked_at < $1`

	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to delete click events: %w", op, err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}

	return deleted, nil
}
