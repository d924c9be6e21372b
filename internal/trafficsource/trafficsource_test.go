package trafficsource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vadimbarashkov/shortlink/internal/models"
)

func TestClassify(t *testing.T) {
	t.Run("utm wins over referrer", func(t *testing.T) {
		info := Classify(models.UTMParams{
			Source: "newsletter",
			Medium: "email",
		}, "https://google.com")

		assert.Equal(t, models.TrafficSourceEmail, info.Source)
		assert.Equal(t, "google.com", info.ReferrerDomain)
	})

	t.Run("utm medium mapping", func(t *testing.T) {
		cases := []struct {
			medium string
			want   models.TrafficSource
		}{
			{"email", models.TrafficSourceEmail},
			{"social", models.TrafficSourceSocial},
			{"cpc", models.TrafficSourcePaidSearch},
			{"ppc", models.TrafficSourcePaidSearch},
			{"paid", models.TrafficSourcePaidSearch},
			{"organic", models.TrafficSourceOrganicSearch},
			{"referral", models.TrafficSourceReferral},
			{"display", models.TrafficSourceDisplay},
			{"EMAIL", models.TrafficSourceEmail},
		}

		for _, tc := range cases {
			info := Classify(models.UTMParams{Source: "campaign1", Medium: tc.medium}, "")
			assert.Equalf(t, tc.want, info.Source, "medium %q", tc.medium)
		}
	})

	t.Run("unknown medium falls back to utm source", func(t *testing.T) {
		info := Classify(models.UTMParams{Source: "facebook", Medium: "banner"}, "")
		assert.Equal(t, models.TrafficSourceSocial, info.Source)

		info = Classify(models.UTMParams{Source: "google_ads", Medium: "banner"}, "")
		assert.Equal(t, models.TrafficSourceSearch, info.Source)

		info = Classify(models.UTMParams{Source: "spring_sale", Medium: "banner"}, "")
		assert.Equal(t, models.TrafficSourceCampaign, info.Source)
	})

	t.Run("search referrer", func(t *testing.T) {
		info := Classify(models.UTMParams{}, "https://www.google.com/search?q=x")

		assert.Equal(t, models.TrafficSourceSearch, info.Source)
		assert.Equal(t, "www.google.com", info.ReferrerDomain)
	})

	t.Run("search referrer matches subdomains", func(t *testing.T) {
		info := Classify(models.UTMParams{}, "https://images.google.com/some/page")

		assert.Equal(t, models.TrafficSourceSearch, info.Source)
		assert.Equal(t, "images.google.com", info.ReferrerDomain)
	})

	t.Run("social referrer is case insensitive", func(t *testing.T) {
		info := Classify(models.UTMParams{}, "https://M.FACEBOOK.com/profile")

		assert.Equal(t, models.TrafficSourceSocial, info.Source)
		assert.Equal(t, "m.facebook.com", info.ReferrerDomain)
	})

	t.Run("other referrer is referral", func(t *testing.T) {
		info := Classify(models.UTMParams{}, "https://blog.example.com/post")

		assert.Equal(t, models.TrafficSourceReferral, info.Source)
		assert.Equal(t, "blog.example.com", info.ReferrerDomain)
	})

	t.Run("no utm and no referrer is direct", func(t *testing.T) {
		info := Classify(models.UTMParams{}, "")

		assert.Equal(t, models.TrafficSourceDirect, info.Source)
		assert.Empty(t, info.ReferrerDomain)
	})

	t.Run("malformed referrer never panics", func(t *testing.T) {
		info := Classify(models.UTMParams{}, "://not a url")

		assert.Equal(t, models.TrafficSourceReferral, info.Source)
		assert.Empty(t, info.ReferrerDomain)
	})
}

func TestExtractDomain(t *testing.T) {
	cases := []struct {
		referrer string
		want     string
	}{
		{"https://www.google.com/search?q=x", "www.google.com"},
		{"http://Example.COM/path", "example.com"},
		{"https://example.com:8080/path", "example.com"},
		{"://not a url", ""},
		{"", ""},
	}

	for _, tc := range cases {
		assert.Equalf(t, tc.want, ExtractDomain(tc.referrer), "referrer %q", tc.referrer)
	}
}
