// Package handlers contains the HTTP handler implementations for the skylog
// API.
//
// This file implements the weather handler: real-time search plus CRUD on
// stored weather queries. Handler dependencies are defined as local
// interfaces following the injection pattern used across the package, so
// tests can substitute fakes without touching the concrete service or
// repository types.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"skylog/internal/core"
	"skylog/internal/db"
	"skylog/internal/types"
)

// WeatherFetcher resolves a location and returns its current conditions and
// collapsed forecast. Implemented by *weather.Service.
type WeatherFetcher interface {
	GetByLocation(ctx context.Context, location string) (*types.LocationWeather, error)
}

// QueryStore defines the data access contract for stored weather queries.
// Mirrors the concrete db.WeatherQueryRepository methods used by this
// handler.
type QueryStore interface {
	Create(ctx context.Context, q *types.WeatherQuery) error
	GetByID(ctx context.Context, id string) (*types.WeatherQuery, error)
	List(ctx context.Context, opts db.ListOptions) ([]*types.WeatherQuery, types.PageInfo, error)
	Update(ctx context.Context, q *types.WeatherQuery) error
	Delete(ctx context.Context, id string) (*types.WeatherQuery, error)
}

// --- Request Models ---

// SearchRequest is the request body for POST /api/weather/search.
type SearchRequest struct {
	Location string `json:"location"`
}

// DateRangeInput carries the raw date strings of a create/update request.
type DateRangeInput struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CreateQueryRequest is the request body for POST /api/weather/queries.
// Location and dates carry domain-specific validation with their own error
// codes; the struct tags cover the remaining structural limits.
type CreateQueryRequest struct {
	Location  string          `json:"location"`
	DateRange *DateRangeInput `json:"dateRange"`
	Notes     string          `json:"notes" validate:"max=2000"`
}

// UpdateQueryRequest is the request body for PUT /api/weather/queries/{id}.
// All fields are optional; absent fields leave the stored value untouched.
type UpdateQueryRequest struct {
	Location  *string         `json:"location"`
	DateRange *DateRangeInput `json:"dateRange"`
	Notes     *string         `json:"notes" validate:"omitempty,max=2000"`
}

// --- Handler ---

// WeatherHandler serves real-time weather search and the stored query CRUD
// endpoints.
type WeatherHandler struct {
	fetcher   WeatherFetcher
	store     QueryStore
	validator *core.Validator
	logger    *slog.Logger
}

// NewWeatherHandler creates a new WeatherHandler with the provided
// dependencies.
func NewWeatherHandler(fetcher WeatherFetcher, store QueryStore, validator *core.Validator, logger *slog.Logger) *WeatherHandler {
	if validator == nil {
		validator = core.NewValidator(logger)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WeatherHandler{
		fetcher:   fetcher,
		store:     store,
		validator: validator,
		logger:    logger,
	}
}

// RegisterRoutes mounts weather routes on the provided chi.Router.
func (h *WeatherHandler) RegisterRoutes(r chi.Router) {
	r.Route("/weather", func(r chi.Router) {
		r.Post("/search", h.Search)

		r.Route("/queries", func(r chi.Router) {
			r.Post("/", h.Create)
			r.Get("/", h.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Get)
				r.Put("/", h.Update)
				r.Delete("/", h.Delete)
			})
		})
	})
}

// Search handles POST /api/weather/search. It resolves the location and
// returns live weather without persisting anything.
func (h *WeatherHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	location, appErr := types.ValidateLocation(req.Location)
	if appErr != nil {
		core.Error(w, r, appErr)
		return
	}

	result, err := h.fetcher.GetByLocation(r.Context(), location)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Success: true,
		Data:    result,
	})
}

// Create handles POST /api/weather/queries.
//
//  1. Decode and validate location, date range, and notes.
//  2. Fetch a complete weather snapshot for the location.
//  3. Persist the record using the geocoder's canonical location name.
//  4. Return 201 Created with the stored document.
func (h *WeatherHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateQueryRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	location, appErr := types.ValidateLocation(req.Location)
	if appErr != nil {
		core.Error(w, r, appErr)
		return
	}

	var start, end string
	if req.DateRange != nil {
		start, end = req.DateRange.Start, req.DateRange.End
	}
	dateRange, appErr := types.ValidateDateRange(start, end)
	if appErr != nil {
		core.Error(w, r, appErr)
		return
	}

	snapshot, err := h.fetcher.GetByLocation(r.Context(), location)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	query := &types.WeatherQuery{
		Location:  snapshot.Location.Name,
		DateRange: dateRange,
		WeatherData: types.WeatherSnapshot{
			Current:  snapshot.Current,
			Forecast: snapshot.Forecast,
		},
		Coordinates: snapshot.Location.Coordinates,
		Country:     snapshot.Location.Country,
		Notes:       req.Notes,
	}
	if snapshot.Current != nil {
		query.Timezone = snapshot.Current.Timezone
	}

	if err := h.store.Create(r.Context(), query); err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusCreated, core.APIResponse{
		Success: true,
		Message: "weather query saved successfully",
		Data:    query,
	})
}

// List handles GET /api/weather/queries with limit/skip/sort query
// parameters. Malformed numeric parameters fall back to their defaults.
func (h *WeatherHandler) List(w http.ResponseWriter, r *http.Request) {
	opts := db.ListOptions{
		Sort: r.URL.Query().Get("sort"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Limit = n
		}
	}
	if v := r.URL.Query().Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Skip = n
		}
	}

	queries, page, err := h.store.List(r.Context(), opts)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Success:    true,
		Data:       queries,
		Pagination: &page,
	})
}

// recordIDParam extracts the {id} path parameter lowercased. Generated IDs
// are lowercase hex; lowercasing here lets uppercase renditions of an
// existing ID resolve to the same record.
func recordIDParam(r *http.Request) string {
	return strings.ToLower(chi.URLParam(r, "id"))
}

// Get handles GET /api/weather/queries/{id}. The ID shape is validated
// before any store access.
func (h *WeatherHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := recordIDParam(r)
	if appErr := types.ValidateRecordID(id); appErr != nil {
		core.Error(w, r, appErr)
		return
	}

	query, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Success: true,
		Data:    query,
	})
}

// Update handles PUT /api/weather/queries/{id}. Present fields are merged
// into the stored record; a location change triggers a fresh weather fetch
// and replaces the snapshot, coordinates, country, and timezone together.
func (h *WeatherHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := recordIDParam(r)
	if appErr := types.ValidateRecordID(id); appErr != nil {
		core.Error(w, r, appErr)
		return
	}

	var req UpdateQueryRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	query, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	if req.Location != nil {
		location, appErr := types.ValidateLocation(*req.Location)
		if appErr != nil {
			core.Error(w, r, appErr)
			return
		}

		snapshot, err := h.fetcher.GetByLocation(r.Context(), location)
		if err != nil {
			core.Error(w, r, err)
			return
		}

		query.Location = snapshot.Location.Name
		query.Coordinates = snapshot.Location.Coordinates
		query.Country = snapshot.Location.Country
		query.WeatherData = types.WeatherSnapshot{
			Current:  snapshot.Current,
			Forecast: snapshot.Forecast,
		}
		if snapshot.Current != nil {
			query.Timezone = snapshot.Current.Timezone
		}
	}

	if req.DateRange != nil {
		dateRange, appErr := types.ValidateDateRange(req.DateRange.Start, req.DateRange.End)
		if appErr != nil {
			core.Error(w, r, appErr)
			return
		}
		query.DateRange = dateRange
	}

	if req.Notes != nil {
		query.Notes = *req.Notes
	}

	if err := h.store.Update(r.Context(), query); err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Success: true,
		Message: "weather query updated successfully",
		Data:    query,
	})
}

// Delete handles DELETE /api/weather/queries/{id} and echoes the deleted
// document back to the client.
func (h *WeatherHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := recordIDParam(r)
	if appErr := types.ValidateRecordID(id); appErr != nil {
		core.Error(w, r, appErr)
		return
	}

	query, err := h.store.Delete(r.Context(), id)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Success: true,
		Message: "weather query deleted successfully",
		Data:    query,
	})
}
