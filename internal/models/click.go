package models

import "time"

// TrafficSource is a closed classification of where a click came from.
type TrafficSource string

const (
	TrafficSourceDirect        TrafficSource = "Direct"
	TrafficSourceSearch        TrafficSource = "Search"
	TrafficSourceOrganicSearch TrafficSource = "Organic Search"
	TrafficSourcePaidSearch    TrafficSource = "Paid Search"
	TrafficSourceSocial        TrafficSource = "Social"
	TrafficSourceEmail         TrafficSource = "Email"
	TrafficSourceReferral      TrafficSource = "Referral"
	TrafficSourceDisplay       TrafficSource = "Display"
	TrafficSourceCampaign      TrafficSource = "Campaign"
)

// UTMParams holds the five marketing attribution query parameters
// captured from the inbound redirect request.
type UTMParams struct {
	Source   string
	Medium   string
	Campaign string
	Term     string
	Content  string
}

// TrafficSourceInfo is the result of classifying a click's origin.
type TrafficSourceInfo struct {
	Source         TrafficSource
	ReferrerDomain string
}

// UserAgentInfo holds the fields derived from a raw User-Agent header.
type UserAgentInfo struct {
	BrowserName    string
	BrowserVersion string
	OSName         string
	OSVersion      string
	DeviceName     string
	DeviceType     string
}

// ClickTrackingJob is the transient queue payload captured synchronously
// on the redirect path. It carries only raw inputs; enrichment happens
// later on the background worker.
type ClickTrackingJob struct {
	ShortURLID int64
	ClickedAt  time.Time
	IP         string
	SessionID  string
	UserAgent  string
	Referrer   string
	UTM        UTMParams
}

// ClickEvent is one immutable, enriched record of a resolved redirect.
// It is created only by the background worker and never updated.
type ClickEvent struct {
	ID         int64
	ShortURLID int64
	ClickedAt  time.Time
	IP         string
	SessionID  string
	UserAgent  string

	Browser    string
	OS         string
	Device     string
	DeviceType string

	Country string
	City    string

	Referrer       string
	ReferrerDomain string
	TrafficSource  TrafficSource

	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	UTMTerm     string
	UTMContent  string
}

// LabelCount is a generic label-to-count pair used by breakdown queries.
type LabelCount struct {
	Label string
	Count int64
}

// DateRange bounds an analytics query. Both ends are optional and inclusive.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Valid reports whether the range is well formed (from not after to).
func (r DateRange) Valid() bool {
	if r.From == nil || r.To == nil {
		return true
	}
	return !r.From.After(*r.To)
}

// ClickPage is one page of click history plus paging metadata.
type ClickPage struct {
	Clicks     []ClickEvent
	Page       int
	PageSize   int
	TotalCount int64
	TotalPages int
}
