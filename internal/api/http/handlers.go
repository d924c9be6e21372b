package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/vadimbarashkov/shortlink/internal/database"
	"github.com/vadimbarashkov/shortlink/internal/models"
	"github.com/vadimbarashkov/shortlink/internal/service"
	"github.com/vadimbarashkov/shortlink/internal/shortcode"
	"github.com/vadimbarashkov/shortlink/pkg/response"
)

// handlePing handles health check requests to ensure the server is running.
func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

// handleRedirect handles GET requests to resolve a short code.
//
// Raw tracking inputs are captured synchronously and the redirect is
// issued immediately; enrichment and persistence happen on the
// background worker. Inaccessible codes get a uniform 403 that never
// discloses which access condition failed.
func handleRedirect(svc URLService) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		info, err := svc.GetRedirectInfo(r.Context(), shortCode, requestMeta(w, r))
		if err != nil {
			switch {
			case errors.Is(err, database.ErrURLNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
			case errors.Is(err, service.ErrURLInaccessible):
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.ForbiddenResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}

			return
		}

		if info.PasswordProtected {
			render.Status(r, http.StatusOK)
			render.JSON(w, r, redirectResponse{PasswordRequired: true})
			return
		}

		http.Redirect(w, r, info.OriginalURL, http.StatusFound)
	}
}

// handleVerifyPassword handles POST requests to unlock a password-protected
// short URL.
//
// The response never distinguishes an unknown code from a wrong password.
func handleVerifyPassword(svc URLService, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleVerifyPassword"

	return func(w http.ResponseWriter, r *http.Request) {
		var req passwordRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		shortCode := chi.URLParam(r, "shortCode")

		url, err := svc.GetURLIfPasswordCorrect(r.Context(), shortCode, req.Password)
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		if url == "" {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.ResourceNotFoundResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, redirectResponse{URL: url})
	}
}

// handleCreateLink handles POST requests to create a short URL.
//
// Custom codes are validated before hitting storage; without one the code
// is derived from the database id.
func handleCreateLink(svc URLService, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleCreateLink"
	const successMsg = "The URL has been shortened successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req linkRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		url, err := svc.CreateShortURL(r.Context(), service.CreateShortURLParams{
			OriginalURL: req.URL,
			CustomCode:  req.CustomCode,
			ExpiresAt:   req.ExpiresAt,
			ClickLimit:  req.ClickLimit,
			Password:    req.Password,
		})
		if err != nil {
			switch {
			case errors.Is(err, database.ErrShortCodeExists):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.Response{
					Status:  response.StatusError,
					Error:   "Short Code Exists",
					Message: "The requested short code is already taken.",
				})
			case isCustomCodeError(err):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Response{
					Status:  response.StatusError,
					Error:   "Invalid Custom Code",
					Message: err.Error(),
				})
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}

			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(successMsg, toLinkResponse(url)))
	}
}

// handleLinkStats handles GET requests for totals and breakdowns of a
// short URL, optionally date-bounded.
func handleLinkStats(urlSvc URLService, analyticsSvc AnalyticsService) http.HandlerFunc {
	const op = "api.http.handleLinkStats"
	const successMsg = "The URL statistics retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		rng, err := dateRange(r)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		url, ok := resolveShortURL(w, r, urlSvc, op)
		if !ok {
			return
		}

		ctx := r.Context()

		var stats statsResponse

		stats.TotalClicks, err = analyticsSvc.TotalClicks(ctx, url.ID, rng)
		if err == nil {
			stats.ByCountry, err = analyticsSvc.ClicksByCountry(ctx, url.ID, rng)
		}
		if err == nil {
			stats.ByDeviceType, err = analyticsSvc.ClicksByDeviceType(ctx, url.ID, rng)
		}
		if err == nil {
			stats.ByTrafficSource, err = analyticsSvc.ClicksByTrafficSource(ctx, url.ID, rng)
		}
		if err != nil {
			writeAnalyticsError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, stats))
	}
}

// handleRealTimeStats handles GET requests for the rolling 24 hour click
// count.
func handleRealTimeStats(urlSvc URLService, analyticsSvc AnalyticsService) http.HandlerFunc {
	const op = "api.http.handleRealTimeStats"
	const successMsg = "The real-time statistics retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		url, ok := resolveShortURL(w, r, urlSvc, op)
		if !ok {
			return
		}

		clicks, err := analyticsSvc.RealTimeClicks(r.Context(), url.ID)
		if err != nil {
			writeAnalyticsError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, realTimeResponse{Clicks: clicks}))
	}
}

// handleClickHistory handles GET requests for paginated click history.
func handleClickHistory(urlSvc URLService, analyticsSvc AnalyticsService) http.HandlerFunc {
	const op = "api.http.handleClickHistory"
	const successMsg = "The click history retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		page := 1
		if raw := r.URL.Query().Get("page"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.BadRequestResponse)
				return
			}
			page = parsed
		}

		rng, err := dateRange(r)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		url, ok := resolveShortURL(w, r, urlSvc, op)
		if !ok {
			return
		}

		history, err := analyticsSvc.ClickHistory(r.Context(), url.ID, page, rng)
		if err != nil {
			writeAnalyticsError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toClickPageResponse(history)))
	}
}

// handleRecentClicks handles GET requests for the most recent clicks.
func handleRecentClicks(urlSvc URLService, analyticsSvc AnalyticsService) http.HandlerFunc {
	const op = "api.http.handleRecentClicks"
	const successMsg = "The recent clicks retrieved successfully."
	const defaultLimit = 10

	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.BadRequestResponse)
				return
			}
			limit = parsed
		}

		url, ok := resolveShortURL(w, r, urlSvc, op)
		if !ok {
			return
		}

		events, err := analyticsSvc.RecentClicks(r.Context(), url.ID, limit)
		if err != nil {
			writeAnalyticsError(w, r, op, err)
			return
		}

		clicks := make([]clickResponse, len(events))
		for i, event := range events {
			clicks[i] = toClickResponse(event)
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, clicks))
	}
}

// isCustomCodeError reports whether the error came from custom code
// validation.
func isCustomCodeError(err error) bool {
	return errors.Is(err, shortcode.ErrInvalidLength) ||
		errors.Is(err, shortcode.ErrInvalidCharacter) ||
		errors.Is(err, shortcode.ErrReservedCode)
}

// resolveShortURL maps the shortCode path parameter to its record,
// writing the error response on failure.
func resolveShortURL(w http.ResponseWriter, r *http.Request, svc URLService, op string) (*models.ShortURL, bool) {
	shortCode := chi.URLParam(r, "shortCode")

	url, err := svc.GetShortURL(r.Context(), shortCode)
	if err != nil {
		if errors.Is(err, database.ErrURLNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.ResourceNotFoundResponse)
			return nil, false
		}

		httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerErrorResponse)
		return nil, false
	}

	return url, true
}

// writeAnalyticsError maps analytics service errors onto HTTP responses.
func writeAnalyticsError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidPage), errors.Is(err, service.ErrInvalidDateRange):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Response{
			Status:  response.StatusError,
			Error:   "Validation Error",
			Message: err.Error(),
		})
	default:
		httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerErrorResponse)
	}
}
