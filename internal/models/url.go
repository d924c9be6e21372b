package models

import "time"

// ShortURL represents a shortened URL and its associated metadata.
type ShortURL struct {
	// ID is the unique identifier for the shortened URL record.
	ID int64
	// ShortCode is the short code associated with the original URL.
	// It is assigned exactly once at creation time and never changes.
	ShortCode string
	// OriginalURL is the original, full-length URL that the short code points to.
	OriginalURL string
	// UserID references the owner of the shortened URL.
	UserID int64
	// IsActive indicates whether the shortened URL can still be redirected.
	IsActive bool
	// ExpiresAt is an optional point in time after which the URL stops redirecting.
	ExpiresAt *time.Time
	// ClickLimit is an optional maximum number of redirects allowed.
	ClickLimit *int64
	// ClickCount tracks the number of times the shortened URL has been accessed.
	ClickCount int64
	// PasswordHash holds the bcrypt hash for password-protected URLs.
	PasswordHash *string
	// CreatedAt is the timestamp indicating when the shortened URL was created.
	CreatedAt time.Time
	// UpdatedAt is the timestamp indicating when the shortened URL was last updated.
	UpdatedAt time.Time
}

// RedirectProjection is the narrow read used on the redirect hot path.
// It carries only the fields needed to decide accessibility and respond.
type RedirectProjection struct {
	ID           int64
	OriginalURL  string
	IsActive     bool
	ExpiresAt    *time.Time
	ClickLimit   *int64
	ClickCount   int64
	PasswordHash *string
}

// PasswordProtected reports whether resolving the URL requires a password.
func (p *RedirectProjection) PasswordProtected() bool {
	return p.PasswordHash != nil && *p.PasswordHash != ""
}

// Accessible reports whether the URL may still be redirected at the given time.
// The URL must be active, not expired and under its click limit.
func (p *RedirectProjection) Accessible(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.ExpiresAt != nil && p.ExpiresAt.Before(now) {
		return false
	}
	if p.ClickLimit != nil && p.ClickCount >= *p.ClickLimit {
		return false
	}
	return true
}

// RedirectInfo is the result of resolving a short code.
type RedirectInfo struct {
	// OriginalURL is the destination to redirect to.
	OriginalURL string
	// PasswordProtected indicates that the caller must verify a password
	// before being given the destination.
	PasswordProtected bool
}
