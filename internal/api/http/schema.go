package http

import (
	"time"

	"github.com/vadimbarashkov/shortlink/internal/models"
)

// linkRequest represents the request payload for creating a short URL.
type linkRequest struct {
	URL        string     `json:"url" validate:"required,url"`
	CustomCode *string    `json:"custom_code,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	ClickLimit *int64     `json:"click_limit,omitempty" validate:"omitempty,min=1"`
	Password   *string    `json:"password,omitempty"`
}

// linkResponse represents the response payload for a short URL.
type linkResponse struct {
	ID                int64      `json:"id"`
	ShortCode         string     `json:"short_code"`
	URL               string     `json:"url"`
	IsActive          bool       `json:"is_active"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	ClickLimit        *int64     `json:"click_limit,omitempty"`
	ClickCount        int64      `json:"click_count"`
	PasswordProtected bool       `json:"password_protected"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func toLinkResponse(url *models.ShortURL) linkResponse {
	return linkResponse{
		ID:                url.ID,
		ShortCode:         url.ShortCode,
		URL:               url.OriginalURL,
		IsActive:          url.IsActive,
		ExpiresAt:         url.ExpiresAt,
		ClickLimit:        url.ClickLimit,
		ClickCount:        url.ClickCount,
		PasswordProtected: url.PasswordHash != nil,
		CreatedAt:         url.CreatedAt,
		UpdatedAt:         url.UpdatedAt,
	}
}

// passwordRequest represents the request payload for unlocking a
// password-protected short URL.
type passwordRequest struct {
	Password string `json:"password" validate:"required"`
}

// redirectResponse is returned instead of a redirect when the short URL
// is password protected.
type redirectResponse struct {
	PasswordRequired bool   `json:"password_required"`
	URL              string `json:"url,omitempty"`
}

// statsResponse bundles totals and breakdowns for a short URL.
type statsResponse struct {
	TotalClicks     int64            `json:"total_clicks"`
	ByCountry       map[string]int64 `json:"by_country"`
	ByDeviceType    map[string]int64 `json:"by_device_type"`
	ByTrafficSource map[string]int64 `json:"by_traffic_source"`
}

// realTimeResponse reports clicks over the rolling 24 hour window.
type realTimeResponse struct {
	Clicks int64 `json:"clicks"`
}

// clickResponse represents a single enriched click event.
type clickResponse struct {
	ID             int64     `json:"id"`
	ClickedAt      time.Time `json:"clicked_at"`
	SessionID      string    `json:"session_id"`
	Browser        string    `json:"browser"`
	OS             string    `json:"os"`
	Device         string    `json:"device"`
	DeviceType     string    `json:"device_type"`
	Country        string    `json:"country"`
	City           string    `json:"city"`
	ReferrerDomain string    `json:"referrer_domain"`
	TrafficSource  string    `json:"traffic_source"`
	UTMSource      string    `json:"utm_source,omitempty"`
	UTMMedium      string    `json:"utm_medium,omitempty"`
	UTMCampaign    string    `json:"utm_campaign,omitempty"`
}

func toClickResponse(event models.ClickEvent) clickResponse {
	return clickResponse{
		ID:             event.ID,
		ClickedAt:      event.ClickedAt,
		SessionID:      event.SessionID,
		Browser:        event.Browser,
		OS:             event.OS,
		Device:         event.Device,
		DeviceType:     event.DeviceType,
		Country:        event.Country,
		City:           event.City,
		ReferrerDomain: event.ReferrerDomain,
		TrafficSource:  string(event.TrafficSource),
		UTMSource:      event.UTMSource,
		UTMMedium:      event.UTMMedium,
		UTMCampaign:    event.UTMCampaign,
	}
}

// clickPageResponse represents one page of click history.
type clickPageResponse struct {
	Clicks     []clickResponse `json:"clicks"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalCount int64           `json:"total_count"`
	TotalPages int             `json:"total_pages"`
}

func toClickPageResponse(page *models.ClickPage) clickPageResponse {
	clicks := make([]clickResponse, len(page.Clicks))
	for i, event := range page.Clicks {
		clicks[i] = toClickResponse(event)
	}

	return clickPageResponse{
		Clicks:     clicks,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalCount: page.TotalCount,
		TotalPages: page.TotalPages,
	}
}
