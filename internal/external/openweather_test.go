package external

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"skylog/internal/types"
)

func newOpenWeatherTestClient(t *testing.T, handler http.HandlerFunc) (*OpenWeatherClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewOpenWeatherClient(newTestClient(t, DefaultRetryPolicy()), OpenWeatherClientConfig{
		APIKey:      "test-key",
		DataBaseURL: server.URL,
		GeoBaseURL:  server.URL,
	})
	return client, server
}

func TestGeocodeDirect_Success(t *testing.T) {
	var gotPath, gotQuery string
	client, _ := newOpenWeatherTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[{"lat":51.5073,"lon":-0.1276,"name":"London","country":"GB","state":"England"}]`))
	})

	result, err := client.GeocodeDirect(context.Background(), "London")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if gotPath != "/direct" {
		t.Errorf("expected /direct path, got %q", gotPath)
	}
	if gotQuery != "q=London&limit=1&appid=test-key" {
		t.Errorf("unexpected query: %q", gotQuery)
	}
	if result.Name != "London" || result.Country != "GB" || result.Lat != 51.5073 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestGeocodeDirect_EmptyResultIsNotFound(t *testing.T) {
	client, _ := newOpenWeatherTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := client.GeocodeDirect(context.Background(), "Xyzzyville")

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != types.ErrCodeNotFoundLocation {
		t.Errorf("expected not_found_location, got %s", appErr.Code)
	}
}

func TestGeocodeZip_PinsCountryToUS(t *testing.T) {
	var gotQuery string
	client, _ := newOpenWeatherTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"lat":40.7484,"lon":-73.9967,"name":"New York","country":"US"}`))
	})

	result, err := client.GeocodeZip(context.Background(), "10001")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if gotQuery != "zip=10001,US&appid=test-key" {
		t.Errorf("unexpected query: %q", gotQuery)
	}
	if result.Name != "New York" || result.Country != "US" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestCurrentWeather_MapsResponse(t *testing.T) {
	var gotQuery string
	client, _ := newOpenWeatherTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{
			"main": {"temp": 18.5, "feels_like": 17.9, "temp_min": 16.0, "temp_max": 20.1, "pressure": 1013, "humidity": 72},
			"weather": [{"id": 500, "main": "Rain", "description": "light rain", "icon": "10d"}],
			"wind": {"speed": 4.1, "deg": 250},
			"clouds": {"all": 75},
			"visibility": 10000,
			"dt": 1746100800,
			"timezone": -14400,
			"name": "New York",
			"sys": {"country": "US"}
		}`))
	})

	current, err := client.CurrentWeather(context.Background(), 40.7128, -74.006)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if gotQuery != "lat=40.7128&lon=-74.006&units=metric&appid=test-key" {
		t.Errorf("unexpected query: %q", gotQuery)
	}
	if current.Temp != 18.5 || current.Humidity != 72 {
		t.Errorf("unexpected conditions: %+v", current)
	}
	if current.Timezone != -14400 {
		t.Errorf("expected UTC offset -14400, got %d", current.Timezone)
	}
	if current.Country != "US" {
		t.Errorf("expected country US, got %q", current.Country)
	}
	if current.Weather == nil || current.Weather.Description != "light rain" {
		t.Errorf("unexpected weather block: %+v", current.Weather)
	}
}

func TestForecast_ReturnsRawSamples(t *testing.T) {
	client, _ := newOpenWeatherTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"list": [
			{"dt": 1746100800, "main": {"temp": 17.0, "humidity": 60}},
			{"dt": 1746111600, "main": {"temp": 19.5, "humidity": 55}}
		]}`))
	})

	samples, err := client.Forecast(context.Background(), 40.7128, -74.006)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0].Main.Temp != 17.0 || samples[1].Main.Humidity != 55 {
		t.Errorf("unexpected samples: %+v", samples)
	}
}

func TestOpenWeather_404MapsToLocationNotFound(t *testing.T) {
	client, _ := newOpenWeatherTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	})

	_, err := client.CurrentWeather(context.Background(), 0, 0)

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != types.ErrCodeNotFoundLocation {
		t.Errorf("expected not_found_location for 404, got %s", appErr.Code)
	}
}

func TestOpenWeather_401MapsToUpstreamCode(t *testing.T) {
	client, _ := newOpenWeatherTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
	})

	_, err := client.GeocodeDirect(context.Background(), "London")

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != types.ErrCodeUpstreamGeocoder {
		t.Errorf("expected upstream_geocoder_unavailable, got %s", appErr.Code)
	}
}
