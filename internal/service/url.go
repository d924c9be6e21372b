package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vadimbarashkov/shortlink/internal/database"
	"github.com/vadimbarashkov/shortlink/internal/database/postgres"
	"github.com/vadimbarashkov/shortlink/internal/models"
	"github.com/vadimbarashkov/shortlink/internal/shortcode"
)

// ErrURLInaccessible is returned when a short code exists but may not be
// redirected. The message is deliberately generic: which access condition
// failed (inactive, expired or over the click limit) is never disclosed.
var ErrURLInaccessible = errors.New("url is not accessible")

// URLRepository defines the interface for working with short URLs at the
// business logic layer.
type URLRepository interface {
	// Create inserts a new short URL, assigning either the pre-validated
	// custom code or one derived from the generated id via codeFor.
	Create(ctx context.Context, params postgres.CreateURLParams, codeFor func(id int64) string) (*models.ShortURL, error)

	// GetRedirectByCode fetches the minimal redirect projection by code.
	GetRedirectByCode(ctx context.Context, shortCode string) (*models.RedirectProjection, error)

	// IncrementClickCount atomically bumps the click counter, reporting
	// whether a row was updated.
	IncrementClickCount(ctx context.Context, shortCode string) (bool, error)

	// GetByID retrieves a full short URL record by its id.
	GetByID(ctx context.Context, id int64) (*models.ShortURL, error)

	// GetByShortCode retrieves a full short URL record by its code.
	GetByShortCode(ctx context.Context, shortCode string) (*models.ShortURL, error)
}

// TrackingQueue accepts raw click tracking jobs without blocking.
type TrackingQueue interface {
	Enqueue(job models.ClickTrackingJob) bool
}

// RequestMeta carries the raw tracking inputs captured synchronously from
// the inbound redirect request.
type RequestMeta struct {
	IP        string
	SessionID string
	UserAgent string
	Referrer  string
	UTM       models.UTMParams
}

// CreateShortURLParams describes a link creation request.
type CreateShortURLParams struct {
	OriginalURL string
	UserID      int64
	CustomCode  *string
	ExpiresAt   *time.Time
	ClickLimit  *int64
	Password    *string
}

// URLService implements short URL creation and redirect resolution.
type URLService struct {
	repo   URLRepository
	queue  TrackingQueue
	logger *slog.Logger
}

// NewURLService creates a new instance of URLService with the provided
// repository, tracking queue and logger.
func NewURLService(repo URLRepository, queue TrackingQueue, logger *slog.Logger) *URLService {
	return &URLService{
		repo:   repo,
		queue:  queue,
		logger: logger,
	}
}

// CreateShortURL stores a new short URL. Custom codes are validated
// against length, character and reserved word rules before hitting the
// repository; without a custom code the collision-free id-derived code is
// assigned inside the repository transaction.
func (s *URLService) CreateShortURL(ctx context.Context, params CreateShortURLParams) (*models.ShortURL, error) {
	const op = "service.URLService.CreateShortURL"

	if params.CustomCode != nil {
		if err := shortcode.ValidateCustomCode(*params.CustomCode); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	repoParams := postgres.CreateURLParams{
		OriginalURL: params.OriginalURL,
		UserID:      params.UserID,
		CustomCode:  params.CustomCode,
		ExpiresAt:   params.ExpiresAt,
		ClickLimit:  params.ClickLimit,
	}

	if params.Password != nil && *params.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*params.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
		}

		hashStr := string(hash)
		repoParams.PasswordHash = &hashStr
	}

	url, err := s.repo.Create(ctx, repoParams, shortcode.Encode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create short url: %w", op, err)
	}

	return url, nil
}

// GetShortURL retrieves the full short URL record for a code. Used by
// the read side to resolve codes to ids.
func (s *URLService) GetShortURL(ctx context.Context, shortCode string) (*models.ShortURL, error) {
	const op = "service.URLService.GetShortURL"

	url, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url: %w", op, err)
	}

	return url, nil
}

// GetRedirectInfo resolves a short code for redirecting. It enforces the
// accessibility predicate, bumps the click counter and enqueues a
// tracking job, then returns immediately. Counter and tracking failures
// are logged but never fail the redirect.
func (s *URLService) GetRedirectInfo(ctx context.Context, shortCode string, meta RequestMeta) (*models.RedirectInfo, error) {
	const op = "service.URLService.GetRedirectInfo"

	proj, err := s.repo.GetRedirectByCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	if !proj.Accessible(time.Now().UTC()) {
		return nil, fmt.Errorf("%s: %w", op, ErrURLInaccessible)
	}

	if ok, err := s.repo.IncrementClickCount(ctx, shortCode); err != nil || !ok {
		s.logger.Warn("failed to increment click count",
			slog.String("short_code", shortCode), slog.Any("err", err))
	}

	s.queue.Enqueue(models.ClickTrackingJob{
		ShortURLID: proj.ID,
		ClickedAt:  time.Now().UTC(),
		IP:         meta.IP,
		SessionID:  meta.SessionID,
		UserAgent:  meta.UserAgent,
		Referrer:   meta.Referrer,
		UTM:        meta.UTM,
	})

	return &models.RedirectInfo{
		OriginalURL:       proj.OriginalURL,
		PasswordProtected: proj.PasswordProtected(),
	}, nil
}

// VerifyPassword compares a candidate against the stored password hash of
// the short URL with the given id.
func (s *URLService) VerifyPassword(ctx context.Context, id int64, candidate string) (bool, error) {
	const op = "service.URLService.VerifyPassword"

	url, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("%s: failed to get url: %w", op, err)
	}

	if url.PasswordHash == nil {
		return false, nil
	}

	err = bcrypt.CompareHashAndPassword([]byte(*url.PasswordHash), []byte(candidate))

	return err == nil, nil
}

// GetURLIfPasswordCorrect returns the destination URL only when the
// candidate password matches. An unknown code and a wrong password both
// yield an empty destination, so callers cannot tell them apart.
func (s *URLService) GetURLIfPasswordCorrect(ctx context.Context, shortCode, candidate string) (string, error) {
	const op = "service.URLService.GetURLIfPasswordCorrect"

	url, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, database.ErrURLNotFound) {
			return "", nil
		}

		return "", fmt.Errorf("%s: failed to get url: %w", op, err)
	}

	if url.PasswordHash == nil {
		return "", nil
	}

	if bcrypt.CompareHashAndPassword([]byte(*url.PasswordHash), []byte(candidate)) != nil {
		return "", nil
	}

	return url.OriginalURL, nil
}
