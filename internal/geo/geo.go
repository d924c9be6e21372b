// Package geo resolves client IP addresses to approximate locations.
package geo

import (
	"fmt"
	"net"

	geoip2 "github.com/oschwald/geoip2-golang"
)

// Unknown is used when a location cannot be determined.
const Unknown = "Unknown"

// Location is the country/city pair attached to a click event.
type Location struct {
	Country string
	City    string
}

// UnknownLocation is returned whenever a lookup fails for any reason.
var UnknownLocation = Location{Country: Unknown, City: Unknown}

// Resolver maps an IP address to an approximate location. Implementations
// must never fail the caller; unknown input yields UnknownLocation.
type Resolver interface {
	Resolve(ip string) Location
	Close() error
}

// MaxMindResolver resolves locations from a local MaxMind GeoIP2 database.
type MaxMindResolver struct {
	reader *geoip2.Reader
}

// NewMaxMindResolver opens the GeoIP2 database at the given path.
func NewMaxMindResolver(path string) (*MaxMindResolver, error) {
	const op = "geo.NewMaxMindResolver"

	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open geoip database: %w", op, err)
	}

	return &MaxMindResolver{reader: reader}, nil
}

// Resolve looks up the country and city for an IP address. Private,
// invalid or unresolvable addresses yield UnknownLocation.
func (r *MaxMindResolver) Resolve(ip string) Location {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return UnknownLocation
	}

	record, err := r.reader.City(parsed)
	if err != nil {
		return UnknownLocation
	}

	loc := UnknownLocation

	if name := record.Country.Names["en"]; name != "" {
		loc.Country = name
	}
	if name := record.City.Names["en"]; name != "" {
		loc.City = name
	}

	return loc
}

// Close releases the underlying database reader.
func (r *MaxMindResolver) Close() error {
	return r.reader.Close()
}

// NoopResolver is used when no geolocation database is configured.
type NoopResolver struct{}

func (NoopResolver) Resolve(string) Location { return UnknownLocation }
func (NoopResolver) Close() error            { return nil }
