// Package types defines the domain model, error taxonomy, and validation
// rules shared by every layer of the service. It has no dependencies on the
// HTTP, database, or upstream-client packages.
package types

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"regexp"
	"time"
)

// DateOnly is the calendar-date layout used throughout the API.
const DateOnly = "2006-01-02"

// Coordinates is a geographic point. Lat must be within [-90, 90] and
// Lon within [-180, 180].
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DateRange is an inclusive calendar-date interval. Both bounds carry a
// zero time-of-day in UTC; only the date component is meaningful.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the span of the range in whole days (end minus start).
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start) / (24 * time.Hour))
}

// WeatherDescription is the condition summary block returned by the
// weather provider (e.g. "Rain" / "light rain").
type WeatherDescription struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Wind holds wind speed (m/s) and direction (degrees).
type Wind struct {
	Speed float64 `json:"speed"`
	Deg   float64 `json:"deg"`
	Gust  float64 `json:"gust,omitempty"`
}

// CurrentConditions is the projection of the provider's current-weather
// response that the service stores and returns. Temperatures are Celsius.
type CurrentConditions struct {
	Temp       float64             `json:"temp"`
	FeelsLike  float64             `json:"feels_like"`
	TempMin    float64             `json:"temp_min"`
	TempMax    float64             `json:"temp_max"`
	Pressure   int                 `json:"pressure"`
	Humidity   int                 `json:"humidity"`
	Weather    *WeatherDescription `json:"weather,omitempty"`
	Wind       *Wind               `json:"wind,omitempty"`
	Clouds     int                 `json:"clouds"`
	Visibility int                 `json:"visibility"`
	Dt         int64               `json:"dt"`
	// Timezone is the UTC offset of the location in seconds, as reported
	// by the weather provider.
	Timezone int    `json:"timezone"`
	Name     string `json:"name,omitempty"`
	Country  string `json:"country,omitempty"`
}

// ForecastDay is one collapsed daily slot of the 5-day forecast: the first
// sub-daily sample seen for its calendar day.
type ForecastDay struct {
	Date     string              `json:"date"` // YYYY-MM-DD
	Temp     float64             `json:"temp"`
	TempMin  float64             `json:"temp_min"`
	TempMax  float64             `json:"temp_max"`
	Humidity int                 `json:"humidity"`
	Weather  *WeatherDescription `json:"weather,omitempty"`
	Wind     *Wind               `json:"wind,omitempty"`
	Dt       int64               `json:"dt"`
}

// WeatherSnapshot is the opaque weather payload captured when a query is
// created or its location is updated. It is stored as-is and never
// re-validated.
type WeatherSnapshot struct {
	Current  *CurrentConditions `json:"current,omitempty"`
	Forecast []ForecastDay      `json:"forecast,omitempty"`
}

// GeoResult is the outcome of resolving a free-text location string.
type GeoResult struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Name        string  `json:"name"`
	Country     string  `json:"country,omitempty"`
	State       string  `json:"state,omitempty"`
}

// LocationInfo is the location block returned by weather search responses.
type LocationInfo struct {
	Name        string      `json:"name"`
	Country     string      `json:"country,omitempty"`
	State       string      `json:"state,omitempty"`
	Coordinates Coordinates `json:"coordinates"`
}

// LocationWeather bundles the resolved location with its current conditions
// and collapsed forecast. It is the payload of POST /api/weather/search.
type LocationWeather struct {
	Location LocationInfo       `json:"location"`
	Current  *CurrentConditions `json:"current"`
	Forecast []ForecastDay      `json:"forecast"`
}

// WeatherQuery is the persisted record of a user-saved weather lookup.
// The store exclusively owns persisted copies; request/response values are
// transient and owned by the handling request.
type WeatherQuery struct {
	ID          string          `json:"id"`
	Location    string          `json:"location"`
	DateRange   DateRange       `json:"dateRange"`
	WeatherData WeatherSnapshot `json:"weatherData"`
	Coordinates Coordinates     `json:"coordinates"`
	Country     string          `json:"country,omitempty"`
	// Timezone is the location's UTC offset in seconds, captured from the
	// weather snapshot at create/update time.
	Timezone    int             `json:"timezone"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// recordIDPattern matches the opaque record identifier shape: 24 hex
// characters. Uppercase is accepted on input; generated IDs are lowercase.
var recordIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// NewRecordID generates a new record identifier: 4 big-endian bytes of unix
// seconds followed by 8 random bytes, hex-encoded to 24 lowercase characters.
// The timestamp prefix keeps freshly created IDs roughly sortable.
func NewRecordID() string {
	var b [12]byte
	binary.BigEndian.PutUint32(b[:4], uint32(time.Now().Unix()))
	// crypto/rand.Read never fails on supported platforms.
	_, _ = rand.Read(b[4:])
	return hex.EncodeToString(b[:])
}

// IsValidRecordID reports whether id has the expected opaque-id shape.
func IsValidRecordID(id string) bool {
	return recordIDPattern.MatchString(id)
}
