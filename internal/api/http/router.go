package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"

	"github.com/vadimbarashkov/shortlink/internal/models"
	"github.com/vadimbarashkov/shortlink/internal/service"
)

// URLService defines the interface for the core URL shortening business logic.
type URLService interface {
	// CreateShortURL creates a short URL from the given parameters.
	// It returns the created record or an error if creation fails.
	CreateShortURL(ctx context.Context, params service.CreateShortURLParams) (*models.ShortURL, error)

	// GetShortURL retrieves the short URL record for a given short code.
	GetShortURL(ctx context.Context, shortCode string) (*models.ShortURL, error)

	// GetRedirectInfo resolves a short code to its destination, enforcing
	// access conditions and queueing the click for tracking.
	GetRedirectInfo(ctx context.Context, shortCode string, meta service.RequestMeta) (*models.RedirectInfo, error)

	// GetURLIfPasswordCorrect returns the destination URL when the
	// password matches, and an empty string otherwise.
	GetURLIfPasswordCorrect(ctx context.Context, shortCode, candidate string) (string, error)
}

// AnalyticsService defines the interface for click analytics queries.
type AnalyticsService interface {
	TotalClicks(ctx context.Context, shortURLID int64, rng models.DateRange) (int64, error)
	ClicksByCountry(ctx context.Context, shortURLID int64, rng models.DateRange) (map[string]int64, error)
	ClicksByDeviceType(ctx context.Context, shortURLID int64, rng models.DateRange) (map[string]int64, error)
	ClicksByTrafficSource(ctx context.Context, shortURLID int64, rng models.DateRange) (map[string]int64, error)
	RecentClicks(ctx context.Context, shortURLID int64, limit int) ([]models.ClickEvent, error)
	ClickHistory(ctx context.Context, shortURLID int64, page int, rng models.DateRange) (*models.ClickPage, error)
	RealTimeClicks(ctx context.Context, shortURLID int64) (int64, error)
}

// getValidate initializes a new validator instance for validating incoming request payloads.
// It customizes tag name extraction from struct fields to match JSON tags.
func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes and returns a new HTTP router with all routes and middleware configured.
func NewRouter(logger *httplog.Logger, urlSvc URLService, analyticsSvc AnalyticsService) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	validate := getValidate()

	r.Get("/ping", handlePing)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/links", func(r chi.Router) {
			r.Post("/", handleCreateLink(urlSvc, validate))

			r.Route("/{shortCode}", func(r chi.Router) {
				r.Get("/stats", handleLinkStats(urlSvc, analyticsSvc))
				r.Get("/stats/realtime", handleRealTimeStats(urlSvc, analyticsSvc))
				r.Get("/clicks", handleClickHistory(urlSvc, analyticsSvc))
				r.Get("/clicks/recent", handleRecentClicks(urlSvc, analyticsSvc))
			})
		})
	})

	r.Route("/{shortCode}", func(r chi.Router) {
		r.Get("/", handleRedirect(urlSvc))
		r.Post("/verify", handleVerifyPassword(urlSvc, validate))
	})

	return r
}
