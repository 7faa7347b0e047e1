package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"skylog/internal/types"
)

// Default OpenWeatherMap endpoints. Overridable for tests.
const (
	defaultOWMDataBaseURL = "https://api.openweathermap.org/data/2.5"
	defaultOWMGeoBaseURL  = "https://api.openweathermap.org/geo/1.0"
)

// OpenWeatherClient wraps the OpenWeatherMap geocoding and weather APIs.
// All calls request metric units.
type OpenWeatherClient struct {
	base        *BaseClient
	apiKey      string
	dataBaseURL string
	geoBaseURL  string
}

// OpenWeatherClientConfig holds the construction parameters for an
// OpenWeatherClient. DataBaseURL and GeoBaseURL default to the public
// endpoints when empty.
type OpenWeatherClientConfig struct {
	APIKey      string
	DataBaseURL string
	GeoBaseURL  string
}

// NewOpenWeatherClient creates an OpenWeatherMap client on top of the given
// BaseClient.
func NewOpenWeatherClient(base *BaseClient, cfg OpenWeatherClientConfig) *OpenWeatherClient {
	dataURL := cfg.DataBaseURL
	if dataURL == "" {
		dataURL = defaultOWMDataBaseURL
	}
	geoURL := cfg.GeoBaseURL
	if geoURL == "" {
		geoURL = defaultOWMGeoBaseURL
	}
	return &OpenWeatherClient{
		base:        base,
		apiKey:      cfg.APIKey,
		dataBaseURL: dataURL,
		geoBaseURL:  geoURL,
	}
}

// geoEntry is the wire shape of one geocoding result.
type geoEntry struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state"`
}

// currentResponse is the wire shape of the current-weather endpoint.
type currentResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Pressure  int     `json:"pressure"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []types.WeatherDescription `json:"weather"`
	Wind    types.Wind                 `json:"wind"`
	Clouds  struct {
		All int `json:"all"`
	} `json:"clouds"`
	Visibility int    `json:"visibility"`
	Dt         int64  `json:"dt"`
	Timezone   int    `json:"timezone"`
	Name       string `json:"name"`
	Sys        struct {
		Country string `json:"country"`
	} `json:"sys"`
}

// ForecastSample is one raw 3-hourly forecast slot from the 5-day forecast
// endpoint. Collapsing samples into daily entries is the weather service's
// concern, not the client's.
type ForecastSample struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp     float64 `json:"temp"`
		TempMin  float64 `json:"temp_min"`
		TempMax  float64 `json:"temp_max"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []types.WeatherDescription `json:"weather"`
	Wind    types.Wind                 `json:"wind"`
}

// forecastResponse is the wire shape of the 5-day forecast endpoint.
type forecastResponse struct {
	List []ForecastSample `json:"list"`
}

// GeocodeDirect resolves a free-text place name to coordinates using the
// direct geocoding endpoint with limit=1. An empty result list maps to a
// location not-found error.
func (c *OpenWeatherClient) GeocodeDirect(ctx context.Context, query string) (*types.GeoResult, error) {
	u := fmt.Sprintf("%s/direct?q=%s&limit=1&appid=%s",
		c.geoBaseURL, url.QueryEscape(query), url.QueryEscape(c.apiKey))

	var entries []geoEntry
	if err := c.get(ctx, u, types.ErrCodeUpstreamGeocoder, &entries); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, types.NewAppError(types.ErrCodeNotFoundLocation,
			"location not found, check the spelling or try a different format", nil)
	}

	e := entries[0]
	return &types.GeoResult{
		Lat:     e.Lat,
		Lon:     e.Lon,
		Name:    e.Name,
		Country: e.Country,
		State:   e.State,
	}, nil
}

// GeocodeZip resolves a 5-digit US zip code to coordinates using the zip
// geocoding endpoint. The country is pinned to US.
func (c *OpenWeatherClient) GeocodeZip(ctx context.Context, zip string) (*types.GeoResult, error) {
	u := fmt.Sprintf("%s/zip?zip=%s,US&appid=%s",
		c.geoBaseURL, url.QueryEscape(zip), url.QueryEscape(c.apiKey))

	var e geoEntry
	if err := c.get(ctx, u, types.ErrCodeUpstreamGeocoder, &e); err != nil {
		return nil, err
	}
	return &types.GeoResult{
		Lat:     e.Lat,
		Lon:     e.Lon,
		Name:    e.Name,
		Country: e.Country,
	}, nil
}

// CurrentWeather fetches current conditions for the given coordinates in
// metric units.
func (c *OpenWeatherClient) CurrentWeather(ctx context.Context, lat, lon float64) (*types.CurrentConditions, error) {
	u := fmt.Sprintf("%s/weather?lat=%g&lon=%g&units=metric&appid=%s",
		c.dataBaseURL, lat, lon, url.QueryEscape(c.apiKey))

	var resp currentResponse
	if err := c.get(ctx, u, types.ErrCodeUpstreamWeather, &resp); err != nil {
		return nil, err
	}

	cur := &types.CurrentConditions{
		Temp:       resp.Main.Temp,
		FeelsLike:  resp.Main.FeelsLike,
		TempMin:    resp.Main.TempMin,
		TempMax:    resp.Main.TempMax,
		Pressure:   resp.Main.Pressure,
		Humidity:   resp.Main.Humidity,
		Wind:       &resp.Wind,
		Clouds:     resp.Clouds.All,
		Visibility: resp.Visibility,
		Dt:         resp.Dt,
		Timezone:   resp.Timezone,
		Name:       resp.Name,
		Country:    resp.Sys.Country,
	}
	if len(resp.Weather) > 0 {
		cur.Weather = &resp.Weather[0]
	}
	return cur, nil
}

// Forecast fetches the raw 3-hourly 5-day forecast for the given coordinates
// in metric units.
func (c *OpenWeatherClient) Forecast(ctx context.Context, lat, lon float64) ([]ForecastSample, error) {
	u := fmt.Sprintf("%s/forecast?lat=%g&lon=%g&units=metric&appid=%s",
		c.dataBaseURL, lat, lon, url.QueryEscape(c.apiKey))

	var resp forecastResponse
	if err := c.get(ctx, u, types.ErrCodeUpstreamWeather, &resp); err != nil {
		return nil, err
	}
	return resp.List, nil
}

// get is the shared fetch path for OpenWeatherMap calls. It behaves like
// BaseClient.GetJSON except that a 404 is mapped to a location not-found
// error rather than an upstream failure, matching how the geocoding
// endpoints signal unknown places.
func (c *OpenWeatherClient) get(ctx context.Context, u string, code types.ErrorCode, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build upstream request", err)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		var appErr *types.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return types.NewAppError(code, "upstream request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return types.NewAppError(types.ErrCodeNotFoundLocation,
			"location not found, verify the location and try again", nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return types.NewAppError(code,
			fmt.Sprintf("upstream returned status %d", resp.StatusCode),
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodySize))
	if err := dec.Decode(out); err != nil {
		return types.NewAppError(code, "failed to decode upstream response", err)
	}
	return nil
}
