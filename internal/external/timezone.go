package external

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"skylog/internal/types"
)

// defaultTimeZoneBaseURL is the Google Time Zone API endpoint base.
const defaultTimeZoneBaseURL = "https://maps.googleapis.com/maps/api"

// TimeZoneInfo is the timezone lookup result for a coordinate pair.
// Offsets are in seconds.
type TimeZoneInfo struct {
	TimeZoneID   string `json:"timeZoneId"`
	TimeZoneName string `json:"timeZoneName"`
	RawOffset    int    `json:"rawOffset"`
	DstOffset    int    `json:"dstOffset"`
}

// TimeZoneClient wraps the Google Time Zone API, used by the timezone
// enrichment endpoint.
type TimeZoneClient struct {
	base    *BaseClient
	apiKey  string
	baseURL string
	nowFn   func() time.Time // for testability; defaults to time.Now
}

// NewTimeZoneClient creates a Time Zone API client. baseURL may be empty to
// use the public endpoint.
func NewTimeZoneClient(base *BaseClient, apiKey, baseURL string) *TimeZoneClient {
	if baseURL == "" {
		baseURL = defaultTimeZoneBaseURL
	}
	return &TimeZoneClient{base: base, apiKey: apiKey, baseURL: baseURL, nowFn: time.Now}
}

// timeZoneResponse is the wire shape of the Time Zone API. The API reports
// failures through the status field with a 200 HTTP status.
type timeZoneResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"errorMessage"`
	TimeZoneID   string `json:"timeZoneId"`
	TimeZoneName string `json:"timeZoneName"`
	RawOffset    int    `json:"rawOffset"`
	DstOffset    int    `json:"dstOffset"`
}

// Lookup returns timezone information for the given coordinates at the
// current instant.
func (c *TimeZoneClient) Lookup(ctx context.Context, lat, lon float64) (*TimeZoneInfo, error) {
	q := url.Values{}
	q.Set("location", fmt.Sprintf("%g,%g", lat, lon))
	q.Set("timestamp", fmt.Sprintf("%d", c.nowFn().Unix()))
	q.Set("key", c.apiKey)

	u := fmt.Sprintf("%s/timezone/json?%s", c.baseURL, q.Encode())

	var resp timeZoneResponse
	if err := c.base.GetJSON(ctx, u, types.ErrCodeUpstreamEnrichment, &resp); err != nil {
		return nil, err
	}

	if resp.Status != "OK" {
		msg := resp.ErrorMessage
		if msg == "" {
			msg = "timezone lookup failed with status " + resp.Status
		}
		return nil, types.NewAppError(types.ErrCodeUpstreamEnrichment, msg, nil)
	}

	return &TimeZoneInfo{
		TimeZoneID:   resp.TimeZoneID,
		TimeZoneName: resp.TimeZoneName,
		RawOffset:    resp.RawOffset,
		DstOffset:    resp.DstOffset,
	}, nil
}
