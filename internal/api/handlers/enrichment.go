package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"skylog/internal/core"
	"skylog/internal/external"
	"skylog/internal/types"
)

// VideoSearcher finds travel videos for a location. Implemented by
// *external.YouTubeClient.
type VideoSearcher interface {
	SearchTravelVideos(ctx context.Context, location string) ([]external.Video, error)
}

// MapResolver resolves a free-text location to a map center. Implemented by
// *external.NominatimClient.
type MapResolver interface {
	Search(ctx context.Context, location string) (*external.MapPoint, error)
}

// TimeZoneResolver looks up timezone information for coordinates.
// Implemented by *external.TimeZoneClient.
type TimeZoneResolver interface {
	Lookup(ctx context.Context, lat, lon float64) (*external.TimeZoneInfo, error)
}

// EnrichmentHandler serves the /api/additional endpoints: YouTube travel
// videos, map centers, and timezone lookups. Any resolver left nil (because
// its provider key is not configured) degrades that endpoint to 503 without
// affecting the others.
type EnrichmentHandler struct {
	videos   VideoSearcher
	maps     MapResolver
	timezone TimeZoneResolver
	logger   *slog.Logger
}

// NewEnrichmentHandler creates a new EnrichmentHandler. Nil resolvers are
// allowed and mark the corresponding provider as unconfigured.
func NewEnrichmentHandler(videos VideoSearcher, maps MapResolver, timezone TimeZoneResolver, logger *slog.Logger) *EnrichmentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrichmentHandler{
		videos:   videos,
		maps:     maps,
		timezone: timezone,
		logger:   logger,
	}
}

// RegisterRoutes mounts enrichment routes on the provided chi.Router.
func (h *EnrichmentHandler) RegisterRoutes(r chi.Router) {
	r.Route("/additional", func(r chi.Router) {
		r.Get("/youtube/{location}", h.YouTube)
		r.Get("/map", h.Map)
		r.Get("/timezone/{lat}/{lon}", h.TimeZone)
	})
}

// YouTube handles GET /api/additional/youtube/{location}.
func (h *EnrichmentHandler) YouTube(w http.ResponseWriter, r *http.Request) {
	if h.videos == nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeProviderNotConfigured,
			"YouTube API key not configured", nil))
		return
	}

	raw, err := url.PathUnescape(chi.URLParam(r, "location"))
	if err != nil {
		raw = chi.URLParam(r, "location")
	}
	location, appErr := types.ValidateLocation(raw)
	if appErr != nil {
		core.Error(w, r, appErr)
		return
	}

	videos, err := h.videos.SearchTravelVideos(r.Context(), location)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Success: true,
		Data:    videos,
	})
}

// Map handles GET /api/additional/map. With lat/lon query parameters the
// coordinates are validated and echoed back with a default zoom; with a
// location parameter the map center is resolved through the geocoder.
// One of the two inputs is required.
func (h *EnrichmentHandler) Map(w http.ResponseWriter, r *http.Request) {
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	location := r.URL.Query().Get("location")

	if latStr != "" && lonStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lon, errLon := strconv.ParseFloat(lonStr, 64)
		if errLat != nil || errLon != nil {
			core.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidCoordinates,
				"lat and lon must be decimal numbers", nil))
			return
		}
		if appErr := types.ValidateCoordinates(lat, lon); appErr != nil {
			core.Error(w, r, appErr)
			return
		}

		core.JSON(w, r, http.StatusOK, core.APIResponse{
			Success: true,
			Data:    external.MapPoint{Lat: lat, Lon: lon, Zoom: external.DefaultMapZoom},
		})
		return
	}

	if location != "" {
		if h.maps == nil {
			core.Error(w, r, types.NewAppError(types.ErrCodeProviderNotConfigured,
				"map provider not configured", nil))
			return
		}

		point, err := h.maps.Search(r.Context(), location)
		if err != nil {
			core.Error(w, r, err)
			return
		}

		core.JSON(w, r, http.StatusOK, core.APIResponse{
			Success: true,
			Data:    point,
		})
		return
	}

	core.Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField,
		"either location or coordinates (lat, lon) are required", nil))
}

// TimeZone handles GET /api/additional/timezone/{lat}/{lon}.
func (h *EnrichmentHandler) TimeZone(w http.ResponseWriter, r *http.Request) {
	if h.timezone == nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeProviderNotConfigured,
			"Google Maps API key not configured", nil))
		return
	}

	lat, errLat := strconv.ParseFloat(chi.URLParam(r, "lat"), 64)
	lon, errLon := strconv.ParseFloat(chi.URLParam(r, "lon"), 64)
	if errLat != nil || errLon != nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidCoordinates,
			"lat and lon must be decimal numbers", nil))
		return
	}
	if appErr := types.ValidateCoordinates(lat, lon); appErr != nil {
		core.Error(w, r, appErr)
		return
	}

	info, err := h.timezone.Lookup(r.Context(), lat, lon)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Success: true,
		Data:    info,
	})
}
