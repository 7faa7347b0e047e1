package external

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"skylog/internal/types"
)

// defaultNominatimBaseURL is the OpenStreetMap Nominatim search endpoint.
// Nominatim's usage policy requires a descriptive User-Agent, which the
// BaseClient injects on every request.
const defaultNominatimBaseURL = "https://nominatim.openstreetmap.org"

// MapPoint is a resolved map center for OpenStreetMap/Leaflet consumers.
type MapPoint struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Zoom        int     `json:"zoom"`
	DisplayName string  `json:"displayName,omitempty"`
}

// DefaultMapZoom is the zoom level returned for resolved map centers,
// shared with the literal-coordinate map path.
const DefaultMapZoom = 12

// NominatimClient wraps the OpenStreetMap Nominatim geocoding API, used by
// the map enrichment endpoint.
type NominatimClient struct {
	base    *BaseClient
	baseURL string
}

// NewNominatimClient creates a Nominatim client. baseURL may be empty to use
// the public endpoint.
func NewNominatimClient(base *BaseClient, baseURL string) *NominatimClient {
	if baseURL == "" {
		baseURL = defaultNominatimBaseURL
	}
	return &NominatimClient{base: base, baseURL: baseURL}
}

// nominatimEntry is the wire shape of one Nominatim search result.
// Nominatim returns lat/lon as strings.
type nominatimEntry struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Search resolves a free-text location to a map center using the first
// Nominatim result. An empty result list maps to a location not-found error.
func (c *NominatimClient) Search(ctx context.Context, location string) (*MapPoint, error) {
	q := url.Values{}
	q.Set("q", location)
	q.Set("format", "json")
	q.Set("limit", "1")

	u := fmt.Sprintf("%s/search?%s", c.baseURL, q.Encode())

	var entries []nominatimEntry
	if err := c.base.GetJSON(ctx, u, types.ErrCodeUpstreamEnrichment, &entries); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, types.NewAppError(types.ErrCodeNotFoundLocation,
			"location not found on the map", nil)
	}

	e := entries[0]
	lat, err := strconv.ParseFloat(e.Lat, 64)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamEnrichment,
			"map provider returned malformed coordinates", err)
	}
	lon, err := strconv.ParseFloat(e.Lon, 64)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamEnrichment,
			"map provider returned malformed coordinates", err)
	}

	return &MapPoint{
		Lat:         lat,
		Lon:         lon,
		Zoom:        DefaultMapZoom,
		DisplayName: e.DisplayName,
	}, nil
}
