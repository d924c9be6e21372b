// Package trafficsource classifies click origins from UTM parameters
// and HTTP referrers into a closed set of traffic sources.
package trafficsource

import (
	"net/url"
	"strings"

	"github.com/vadimbarashkov/shortlink/internal/models"
)

// searchDomains are domain fragments identifying search engines.
// Matching is substring based, so "google.com" also matches
// "images.google.com".
var searchDomains = []string{
	"google.com",
	"bing.com",
	"yahoo.com",
	"duckduckgo.com",
	"baidu.com",
	"yandex.ru",
	"yandex.com",
	"ecosia.org",
}

// socialDomains are domain fragments identifying social platforms.
var socialDomains = []string{
	"facebook.com",
	"fb.com",
	"twitter.com",
	"x.com",
	"t.co",
	"instagram.com",
	"linkedin.com",
	"pinterest.com",
	"reddit.com",
	"tiktok.com",
	"youtube.com",
	"threads.net",
	"mastodon.social",
}

// searchSourceNames and socialSourceNames identify well known platforms
// when they appear in a utm_source value ("facebook", "google_ads", ...).
var searchSourceNames = []string{
	"google",
	"bing",
	"yahoo",
	"duckduckgo",
	"baidu",
	"yandex",
	"ecosia",
}

var socialSourceNames = []string{
	"facebook",
	"twitter",
	"instagram",
	"linkedin",
	"pinterest",
	"reddit",
	"tiktok",
	"youtube",
	"threads",
	"mastodon",
}

// mediumSources maps a normalized utm_medium value to a traffic source.
var mediumSources = map[string]models.TrafficSource{
	"email":    models.TrafficSourceEmail,
	"social":   models.TrafficSourceSocial,
	"cpc":      models.TrafficSourcePaidSearch,
	"ppc":      models.TrafficSourcePaidSearch,
	"paid":     models.TrafficSourcePaidSearch,
	"organic":  models.TrafficSourceOrganicSearch,
	"referral": models.TrafficSourceReferral,
	"display":  models.TrafficSourceDisplay,
}

// Classify determines the traffic source of a click. UTM attribution wins
// over the referrer; an empty referrer and no UTM source means a direct
// visit.
func Classify(utm models.UTMParams, referrer string) models.TrafficSourceInfo {
	domain := ExtractDomain(referrer)

	if utm.Source != "" {
		return models.TrafficSourceInfo{
			Source:         classifyUTM(utm),
			ReferrerDomain: domain,
		}
	}

	if referrer != "" {
		return models.TrafficSourceInfo{
			Source:         classifyDomain(domain),
			ReferrerDomain: domain,
		}
	}

	return models.TrafficSourceInfo{Source: models.TrafficSourceDirect}
}

// ExtractDomain returns the lowercase host of the referrer URL,
// or an empty string when the referrer cannot be parsed.
func ExtractDomain(referrer string) string {
	if referrer == "" {
		return ""
	}

	u, err := url.Parse(referrer)
	if err != nil {
		return ""
	}

	return strings.ToLower(u.Hostname())
}

func classifyUTM(utm models.UTMParams) models.TrafficSource {
	if src, ok := mediumSources[strings.ToLower(utm.Medium)]; ok {
		return src
	}

	source := strings.ToLower(utm.Source)

	if matchesAny(source, socialSourceNames) {
		return models.TrafficSourceSocial
	}
	if matchesAny(source, searchSourceNames) {
		return models.TrafficSourceSearch
	}

	return models.TrafficSourceCampaign
}

func classifyDomain(domain string) models.TrafficSource {
	if domain != "" {
		if matchesAny(domain, searchDomains) {
			return models.TrafficSourceSearch
		}
		if matchesAny(domain, socialDomains) {
			return models.TrafficSourceSocial
		}
	}

	return models.TrafficSourceReferral
}

func matchesAny(s string, fragments []string) bool {
	for _, fragment := range fragments {
		if strings.Contains(s, fragment) {
			return true
		}
	}

	return false
}
