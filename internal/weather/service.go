// Package weather implements location resolution and weather retrieval on
// top of the OpenWeatherMap client. It owns the location classifier that
// decides whether user input is a coordinate pair, a US zip code, or a
// free-text place name, and the collapsing of 3-hourly forecast samples
// into daily entries.
package weather

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"skylog/internal/external"
	"skylog/internal/types"
)

// maxForecastDays caps the collapsed forecast length.
const maxForecastDays = 5

// Provider is the weather data source consumed by the service. It is
// implemented by *external.OpenWeatherClient and by test fakes.
type Provider interface {
	GeocodeDirect(ctx context.Context, query string) (*types.GeoResult, error)
	GeocodeZip(ctx context.Context, zip string) (*types.GeoResult, error)
	CurrentWeather(ctx context.Context, lat, lon float64) (*types.CurrentConditions, error)
	Forecast(ctx context.Context, lat, lon float64) ([]external.ForecastSample, error)
}

// Service resolves locations and fetches weather through the injected
// provider.
type Service struct {
	provider Provider
	logger   *slog.Logger
}

// NewService creates a weather Service.
func NewService(provider Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{provider: provider, logger: logger}
}

// LocationKind classifies raw location input.
type LocationKind int

const (
	// KindFreeText is the fallback: resolve through direct geocoding.
	KindFreeText LocationKind = iota
	// KindCoordinates is a literal "lat,lon" pair within valid ranges.
	KindCoordinates
	// KindUSZip is a 5-digit US zip code.
	KindUSZip
)

// Classify determines how a raw location string should be resolved.
// Precedence: literal in-range coordinates, then 5-digit US zip, then free
// text. A coordinate-shaped string with out-of-range values falls through to
// free text, as does a zip-like string with extra characters ("12345,67").
func Classify(location string) (LocationKind, types.Coordinates) {
	if lat, lon, ok := parseCoordinatePair(location); ok {
		return KindCoordinates, types.Coordinates{Lat: lat, Lon: lon}
	}
	if isUSZip(location) {
		return KindUSZip, types.Coordinates{}
	}
	return KindFreeText, types.Coordinates{}
}

// parseCoordinatePair attempts to read location as "lat,lon". Both parts
// must be plain decimal numbers and within coordinate ranges.
func parseCoordinatePair(location string) (float64, float64, bool) {
	parts := strings.Split(location, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	// ParseFloat accepts "NaN", which compares false against every bound.
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return 0, 0, false
	}
	if lat < types.MinLat || lat > types.MaxLat || lon < types.MinLon || lon > types.MaxLon {
		return 0, 0, false
	}
	return lat, lon, true
}

// isUSZip reports whether location is exactly five ASCII digits.
func isUSZip(location string) bool {
	if len(location) != 5 {
		return false
	}
	for _, r := range location {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Resolve turns raw location input into coordinates and a canonical display
// name. Literal coordinates skip the geocoder entirely; their display name
// is the "lat, lon" pair itself.
func (s *Service) Resolve(ctx context.Context, location string) (*types.GeoResult, error) {
	kind, coords := Classify(location)

	switch kind {
	case KindCoordinates:
		return &types.GeoResult{
			Lat:  coords.Lat,
			Lon:  coords.Lon,
			Name: fmt.Sprintf("%g, %g", coords.Lat, coords.Lon),
		}, nil
	case KindUSZip:
		return s.provider.GeocodeZip(ctx, location)
	default:
		return s.provider.GeocodeDirect(ctx, location)
	}
}

// CollapseDaily reduces 3-hourly forecast samples to at most five daily
// entries. Each calendar day (UTC) contributes its first sample, preserving
// first-seen order.
func CollapseDaily(samples []external.ForecastSample) []types.ForecastDay {
	days := make([]types.ForecastDay, 0, maxForecastDays)
	seen := make(map[string]struct{}, maxForecastDays)

	for _, sample := range samples {
		date := time.Unix(sample.Dt, 0).UTC().Format(types.DateOnly)
		if _, ok := seen[date]; ok {
			continue
		}
		if len(days) >= maxForecastDays {
			break
		}
		seen[date] = struct{}{}

		day := types.ForecastDay{
			Date:     date,
			Temp:     sample.Main.Temp,
			TempMin:  sample.Main.TempMin,
			TempMax:  sample.Main.TempMax,
			Humidity: sample.Main.Humidity,
			Dt:       sample.Dt,
		}
		if len(sample.Weather) > 0 {
			w := sample.Weather[0]
			day.Weather = &w
		}
		wind := sample.Wind
		day.Wind = &wind

		days = append(days, day)
	}
	return days
}

// GetByLocation resolves the location and fetches current conditions and the
// collapsed forecast. The two weather calls run concurrently; the first
// failure cancels the other.
func (s *Service) GetByLocation(ctx context.Context, location string) (*types.LocationWeather, error) {
	geo, err := s.Resolve(ctx, location)
	if err != nil {
		return nil, err
	}

	var (
		current *types.CurrentConditions
		samples []external.ForecastSample
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.provider.CurrentWeather(gctx, geo.Lat, geo.Lon)
		return err
	})
	g.Go(func() error {
		var err error
		samples, err = s.provider.Forecast(gctx, geo.Lat, geo.Lon)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &types.LocationWeather{
		Location: types.LocationInfo{
			Name:    geo.Name,
			Country: geo.Country,
			State:   geo.State,
			Coordinates: types.Coordinates{
				Lat: geo.Lat,
				Lon: geo.Lon,
			},
		},
		Current:  current,
		Forecast: CollapseDaily(samples),
	}, nil
}
