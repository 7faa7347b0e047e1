package external

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"skylog/internal/types"
)

func newNominatimTestClient(t *testing.T, handler http.HandlerFunc) *NominatimClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewNominatimClient(newTestClient(t, DefaultRetryPolicy()), server.URL)
}

func TestNominatimSearch_Success(t *testing.T) {
	var gotQuery, gotUserAgent string
	client := newNominatimTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotUserAgent = r.Header.Get("User-Agent")
		w.Write([]byte(`[{"lat":"35.6764225","lon":"139.650027","display_name":"Tokyo, Japan"}]`))
	})

	point, err := client.Search(context.Background(), "Tokyo")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if gotQuery != "format=json&limit=1&q=Tokyo" {
		t.Errorf("unexpected query: %q", gotQuery)
	}
	// Nominatim's usage policy requires an identifying User-Agent.
	if gotUserAgent == "" {
		t.Error("expected a User-Agent header on nominatim requests")
	}

	if point.Lat != 35.6764225 || point.Lon != 139.650027 {
		t.Errorf("unexpected coordinates: %+v", point)
	}
	if point.Zoom != DefaultMapZoom {
		t.Errorf("expected default zoom %d, got %d", DefaultMapZoom, point.Zoom)
	}
	if point.DisplayName != "Tokyo, Japan" {
		t.Errorf("unexpected display name: %q", point.DisplayName)
	}
}

func TestNominatimSearch_EmptyResultIsNotFound(t *testing.T) {
	client := newNominatimTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := client.Search(context.Background(), "Xyzzyville")

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != types.ErrCodeNotFoundLocation {
		t.Errorf("expected not_found_location, got %s", appErr.Code)
	}
}

func TestNominatimSearch_MalformedCoordinates(t *testing.T) {
	client := newNominatimTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"not-a-number","lon":"139.65","display_name":"Broken"}]`))
	})

	_, err := client.Search(context.Background(), "Tokyo")

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != types.ErrCodeUpstreamEnrichment {
		t.Errorf("expected upstream_enrichment_unavailable, got %s", appErr.Code)
	}
}
