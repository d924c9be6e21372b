package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vadimbarashkov/shortlink/internal/database"
	"github.com/vadimbarashkov/shortlink/internal/models"
)

type shortURLRecord struct {
	ID           int64          `db:"id"`
	ShortCode    sql.NullString `db:"short_code"`
	OriginalURL  string         `db:"original_url"`
	UserID       int64          `db:"user_id"`
	IsActive     bool           `db:"is_active"`
	ExpiresAt    *time.Time     `db:"expires_at"`
	ClickLimit   *int64         `db:"click_limit"`
	ClickCount   int64          `db:"click_count"`
	PasswordHash *string        `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r *shortURLRecord) ToShortURL() *models.ShortURL {
	return &models.ShortURL{
		ID:           r.ID,
		ShortCode:    r.ShortCode.String,
		OriginalURL:  r.OriginalURL,
		UserID:       r.UserID,
		IsActive:     r.IsActive,
		ExpiresAt:    r.ExpiresAt,
		ClickLimit:   r.ClickLimit,
		ClickCount:   r.ClickCount,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type redirectRecord struct {
	ID           int64      `db:"id"`
	OriginalURL  string     `db:"original_url"`
	IsActive     bool       `db:"is_active"`
	ExpiresAt    *time.Time `db:"expires_at"`
	ClickLimit   *int64     `db:"click_limit"`
	ClickCount   int64      `db:"click_count"`
	PasswordHash *string    `db:"password_hash"`
}

func (r *redirectRecord) ToProjection() *models.RedirectProjection {
	return &models.RedirectProjection{
		ID:           r.ID,
		OriginalURL:  r.OriginalURL,
		IsActive:     r.IsActive,
		ExpiresAt:    r.ExpiresAt,
		ClickLimit:   r.ClickLimit,
		ClickCount:   r.ClickCount,
		PasswordHash: r.PasswordHash,
	}
}

// CreateURLParams carries the fields needed to insert a new short URL.
// CustomCode, when set, must already be validated by the caller.
type CreateURLParams struct {
	OriginalURL  string
	UserID       int64
	CustomCode   *string
	ExpiresAt    *time.Time
	ClickLimit   *int64
	PasswordHash *string
}

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{
		db: db,
	}
}

// Create inserts a new short URL and assigns its code within a single
// transaction. With a custom code the code is written directly; otherwise
// the row is inserted first and codeFor derives the code from the
// generated id, so the code is collision-free without retries.
func (r *URLRepository) Create(ctx context.Context, params CreateURLParams, codeFor func(id int64) string) (*models.ShortURL, error) {
	const op = "database.postgres.URLRepository.Create"

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer tx.Rollback() //nolint:errcheck

	rec := new(shortURLRecord)
	query := `INSERT INTO short_urls(short_code, original_url, user_id, expires_at, click_limit, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *`

	err = tx.GetContext(ctx, rec, query,
		params.CustomCode, params.OriginalURL, params.UserID,
		params.ExpiresAt, params.ClickLimit, params.PasswordHash)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to create url record: %w", op, err)
	}

	if params.CustomCode == nil {
		query = `UPDATE short_urls
			SET short_code = $1
			WHERE id = $2
			RETURNING *`

		if err := tx.GetContext(ctx, rec, query, codeFor(rec.ID), rec.ID); err != nil {
			return nil, fmt.Errorf("%s: failed to assign short code: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return rec.ToShortURL(), nil
}

// GetRedirectByCode fetches the minimal projection used on the redirect
// hot path.
func (r *URLRepository) GetRedirectByCode(ctx context.Context, shortCode string) (*models.RedirectProjection, error) {
	const op = "database.postgres.URLRepository.GetRedirectByCode"

	rec := new(redirectRecord)
	query := `SELECT id, original_url, is_active, expires_at, click_limit, click_count, password_hash
		FROM short_urls
		WHERE short_code = $1`

	err := r.db.GetContext(ctx, rec, query, shortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get redirect record: %w", op, err)
	}

	return rec.ToProjection(), nil
}

// IncrementClickCount atomically bumps the click counter for a code.
// The click-limit guard is part of the statement, so concurrent redirects
// can never push the counter past the limit. It reports whether a row
// was updated.
func (r *URLRepository) IncrementClickCount(ctx context.Context, shortCode string) (bool, error) {
	const op = "database.postgres.URLRepository.IncrementClickCount"

	query := `UPDATE short_urls
		SET click_count = click_count + 1, updated_at = now()
		WHERE short_code = $1
			AND (click_limit IS NULL OR click_count < click_limit)`

	res, err := r.db.ExecContext(ctx, query, shortCode)
	if err != nil {
		return false, fmt.Errorf("%s: failed to increment click count: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}

	return affected > 0, nil
}

// GetByID retrieves a full short URL record by its id.
func (r *URLRepository) GetByID(ctx context.Context, id int64) (*models.ShortURL, error) {
	const op = "database.postgres.URLRepository.GetByID"

	rec := new(shortURLRecord)
	query := `SELECT * FROM short_urls WHERE id = $1`

	err := r.db.GetContext(ctx, rec, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	return rec.ToShortURL(), nil
}

// GetByShortCode retrieves a full short URL record by its code.
func (r *URLRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.ShortURL, error) {
	const op = "database.postgres.URLRepository.GetByShortCode"

	rec := new(shortURLRecord)
	query := `SELECT * FROM short_urls WHERE short_code = $1`

	err := r.db.GetContext(ctx, rec, query, shortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	return rec.ToShortURL(), nil
}
