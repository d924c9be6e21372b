package http

import (
	"net"
	"net/http"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/vadimbarashkov/shortlink/internal/models"
	"github.com/vadimbarashkov/shortlink/internal/service"
)

const sessionCookieName = "sl_session"

// clientIP extracts the client address, preferring proxy headers over the
// raw connection address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xr := strings.TrimSpace(r.Header.Get("X-Real-IP")); xr != "" {
		return xr
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

// sessionID returns the anonymous session id from the request cookie,
// minting and setting a new one when absent.
func sessionID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	id, err := gonanoid.New()
	if err != nil {
		return ""
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// requestMeta captures the raw tracking inputs from the inbound request.
func requestMeta(w http.ResponseWriter, r *http.Request) service.RequestMeta {
	query := r.URL.Query()

	return service.RequestMeta{
		IP:        clientIP(r),
		SessionID: sessionID(w, r),
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
		UTM: models.UTMParams{
			Source:   query.Get("utm_source"),
			Medium:   query.Get("utm_medium"),
			Campaign: query.Get("utm_campaign"),
			Term:     query.Get("utm_term"),
			Content:  query.Get("utm_content"),
		},
	}
}

// dateRange parses optional RFC 3339 "from" and "to" query parameters.
func dateRange(r *http.Request) (models.DateRange, error) {
	var rng models.DateRange

	if from := r.URL.Query().Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return rng, err
		}
		rng.From = &t
	}

	if to := r.URL.Query().Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return rng, err
		}
		rng.To = &t
	}

	return rng, nil
}
