package weather

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skylog/internal/external"
	"skylog/internal/types"
)

// --- Mock Provider ---

type mockProvider struct {
	geocodeDirectFn  func(ctx context.Context, query string) (*types.GeoResult, error)
	geocodeZipFn     func(ctx context.Context, zip string) (*types.GeoResult, error)
	currentWeatherFn func(ctx context.Context, lat, lon float64) (*types.CurrentConditions, error)
	forecastFn       func(ctx context.Context, lat, lon float64) ([]external.ForecastSample, error)

	directCalls []string
	zipCalls    []string
}

func (m *mockProvider) GeocodeDirect(ctx context.Context, query string) (*types.GeoResult, error) {
	m.directCalls = append(m.directCalls, query)
	if m.geocodeDirectFn != nil {
		return m.geocodeDirectFn(ctx, query)
	}
	return &types.GeoResult{Lat: 40.71, Lon: -74.01, Name: "New York", Country: "US", State: "New York"}, nil
}

func (m *mockProvider) GeocodeZip(ctx context.Context, zip string) (*types.GeoResult, error) {
	m.zipCalls = append(m.zipCalls, zip)
	if m.geocodeZipFn != nil {
		return m.geocodeZipFn(ctx, zip)
	}
	return &types.GeoResult{Lat: 40.75, Lon: -73.99, Name: "New York", Country: "US"}, nil
}

func (m *mockProvider) CurrentWeather(ctx context.Context, lat, lon float64) (*types.CurrentConditions, error) {
	if m.currentWeatherFn != nil {
		return m.currentWeatherFn(ctx, lat, lon)
	}
	return &types.CurrentConditions{Temp: 21.5, Humidity: 55, Timezone: -18000}, nil
}

func (m *mockProvider) Forecast(ctx context.Context, lat, lon float64) ([]external.ForecastSample, error) {
	if m.forecastFn != nil {
		return m.forecastFn(ctx, lat, lon)
	}
	return nil, nil
}

// --- Classify Tests ---

func TestClassify_Coordinates(t *testing.T) {
	kind, coords := Classify("40.7128,-74.006")
	assert.Equal(t, KindCoordinates, kind)
	assert.InDelta(t, 40.7128, coords.Lat, 1e-9)
	assert.InDelta(t, -74.006, coords.Lon, 1e-9)

	// Whitespace around the comma is tolerated.
	kind, _ = Classify("40.7128, -74.006")
	assert.Equal(t, KindCoordinates, kind)

	// Integer-valued pairs still classify as coordinates.
	kind, _ = Classify("-90,180")
	assert.Equal(t, KindCoordinates, kind)
}

func TestClassify_OutOfRangeCoordinatesFallToFreeText(t *testing.T) {
	kind, _ := Classify("95,10")
	assert.Equal(t, KindFreeText, kind)

	kind, _ = Classify("45,181")
	assert.Equal(t, KindFreeText, kind)

	// ParseFloat accepts NaN and Inf spellings; neither is a usable
	// coordinate, so they fall through to the geocoder.
	for _, loc := range []string{"NaN,50", "50,NaN", "nan,nan", "Inf,0", "50,-inf"} {
		kind, coords := Classify(loc)
		assert.Equal(t, KindFreeText, kind, "location %q", loc)
		assert.Zero(t, coords, "location %q", loc)
	}
}

func TestClassify_USZip(t *testing.T) {
	kind, _ := Classify("10001")
	assert.Equal(t, KindUSZip, kind)
}

func TestClassify_ZipLikeWithTrailingPartIsFreeText(t *testing.T) {
	// "12345,67" parses as an out-of-range latitude, so it is neither a
	// coordinate pair nor a bare zip.
	kind, _ := Classify("12345,67")
	assert.Equal(t, KindFreeText, kind)
}

func TestClassify_FreeText(t *testing.T) {
	for _, loc := range []string{"London", "1234", "123456", "10001a", "Paris, France, Europe"} {
		kind, _ := Classify(loc)
		assert.Equal(t, KindFreeText, kind, "location %q", loc)
	}
}

// --- Resolve Tests ---

func TestResolve_CoordinatesSkipGeocoder(t *testing.T) {
	provider := &mockProvider{}
	svc := NewService(provider, nil)

	geo, err := svc.Resolve(context.Background(), "40.5,-73.9")
	require.NoError(t, err)
	assert.Equal(t, 40.5, geo.Lat)
	assert.Equal(t, -73.9, geo.Lon)
	assert.Equal(t, "40.5, -73.9", geo.Name)
	assert.Empty(t, provider.directCalls)
	assert.Empty(t, provider.zipCalls)
}

func TestResolve_ZipUsesZipEndpoint(t *testing.T) {
	provider := &mockProvider{}
	svc := NewService(provider, nil)

	geo, err := svc.Resolve(context.Background(), "10001")
	require.NoError(t, err)
	assert.Equal(t, "New York", geo.Name)
	assert.Equal(t, []string{"10001"}, provider.zipCalls)
	assert.Empty(t, provider.directCalls)
}

func TestResolve_FreeTextUsesDirectGeocoding(t *testing.T) {
	provider := &mockProvider{}
	svc := NewService(provider, nil)

	geo, err := svc.Resolve(context.Background(), "London")
	require.NoError(t, err)
	assert.Equal(t, "New York", geo.Name) // canonical name from the geocoder
	assert.Equal(t, []string{"London"}, provider.directCalls)
}

// --- CollapseDaily Tests ---

func sampleAt(ts time.Time, temp float64) external.ForecastSample {
	s := external.ForecastSample{Dt: ts.Unix()}
	s.Main.Temp = temp
	s.Main.Humidity = 60
	s.Weather = []types.WeatherDescription{{Main: "Clouds", Description: "scattered clouds"}}
	return s
}

func TestCollapseDaily_FirstSamplePerDay(t *testing.T) {
	day := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	samples := []external.ForecastSample{
		sampleAt(day.Add(6*time.Hour), 10),
		sampleAt(day.Add(9*time.Hour), 14),
		sampleAt(day.Add(12*time.Hour), 18),
		sampleAt(day.AddDate(0, 0, 1).Add(3*time.Hour), 11),
		sampleAt(day.AddDate(0, 0, 1).Add(15*time.Hour), 20),
	}

	days := CollapseDaily(samples)
	require.Len(t, days, 2)
	assert.Equal(t, "2026-04-10", days[0].Date)
	assert.Equal(t, 10.0, days[0].Temp) // first sample wins
	assert.Equal(t, "2026-04-11", days[1].Date)
	assert.Equal(t, 11.0, days[1].Temp)
	require.NotNil(t, days[0].Weather)
	assert.Equal(t, "scattered clouds", days[0].Weather.Description)
}

func TestCollapseDaily_CapsAtFiveDays(t *testing.T) {
	day := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	var samples []external.ForecastSample
	for i := 0; i < 7; i++ {
		samples = append(samples, sampleAt(day.AddDate(0, 0, i), float64(i)))
	}

	days := CollapseDaily(samples)
	require.Len(t, days, maxForecastDays)
	assert.Equal(t, "2026-04-10", days[0].Date)
	assert.Equal(t, "2026-04-14", days[4].Date)
}

func TestCollapseDaily_Empty(t *testing.T) {
	assert.Empty(t, CollapseDaily(nil))
}

// --- GetByLocation Tests ---

func TestGetByLocation_BundlesCurrentAndForecast(t *testing.T) {
	day := time.Date(2026, 4, 10, 6, 0, 0, 0, time.UTC)
	provider := &mockProvider{
		forecastFn: func(ctx context.Context, lat, lon float64) ([]external.ForecastSample, error) {
			return []external.ForecastSample{sampleAt(day, 12)}, nil
		},
	}
	svc := NewService(provider, nil)

	result, err := svc.GetByLocation(context.Background(), "London")
	require.NoError(t, err)
	assert.Equal(t, "New York", result.Location.Name)
	assert.Equal(t, "US", result.Location.Country)
	assert.Equal(t, 40.71, result.Location.Coordinates.Lat)
	require.NotNil(t, result.Current)
	assert.Equal(t, 21.5, result.Current.Temp)
	require.Len(t, result.Forecast, 1)
	assert.Equal(t, "2026-04-10", result.Forecast[0].Date)
}

func TestGetByLocation_GeocodeFailureShortCircuits(t *testing.T) {
	provider := &mockProvider{
		geocodeDirectFn: func(ctx context.Context, query string) (*types.GeoResult, error) {
			return nil, types.NewAppError(types.ErrCodeNotFoundLocation, "location not found", nil)
		},
	}
	svc := NewService(provider, nil)

	_, err := svc.GetByLocation(context.Background(), "Nowhereville")
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeNotFoundLocation, appErr.Code)
}

func TestGetByLocation_WeatherFailurePropagates(t *testing.T) {
	provider := &mockProvider{
		currentWeatherFn: func(ctx context.Context, lat, lon float64) (*types.CurrentConditions, error) {
			return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "upstream returned 503 after retries", nil)
		},
	}
	svc := NewService(provider, nil)

	_, err := svc.GetByLocation(context.Background(), "London")
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeUpstreamWeather, appErr.Code)
}
