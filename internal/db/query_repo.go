package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"skylog/internal/types"
)

// List pagination bounds. Requests above MaxListLimit are clamped rather
// than rejected.
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// sortColumns whitelists the API sort keys and maps them to their backing
// columns. Anything outside this map falls back to the default sort.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"location":  "location",
}

// ListOptions controls pagination and ordering for List.
type ListOptions struct {
	// Limit is the page size. Zero or negative selects DefaultListLimit;
	// values above MaxListLimit are clamped.
	Limit int
	// Skip is the number of records to pass over before the page starts.
	Skip int
	// Sort is the API sort key, optionally prefixed with '-' for descending
	// order (e.g. "-createdAt"). Unknown keys fall back to "-createdAt".
	Sort string
}

// WeatherQueryRepository provides data access for the weather_queries table.
type WeatherQueryRepository struct {
	db DBTX
}

// NewWeatherQueryRepository creates a new WeatherQueryRepository backed by
// the given database connection (pool or transaction).
func NewWeatherQueryRepository(db DBTX) *WeatherQueryRepository {
	return &WeatherQueryRepository{db: db}
}

// queryColumns defines the standard set of columns selected for weather
// query reads. Used consistently across all query methods to avoid column
// drift.
const queryColumns = `q.id, q.location, q.date_range_start, q.date_range_end,
	q.weather_data, q.lat, q.lon, q.country, q.timezone, q.notes,
	q.created_at, q.updated_at`

// scanQuery scans a single weather query row into a types.WeatherQuery.
// The columns must match the order defined in queryColumns.
func scanQuery(row pgx.Row) (*types.WeatherQuery, error) {
	var q types.WeatherQuery
	err := row.Scan(
		&q.ID,
		&q.Location,
		&q.DateRange.Start,
		&q.DateRange.End,
		&q.WeatherData,
		&q.Coordinates.Lat,
		&q.Coordinates.Lon,
		&q.Country,
		&q.Timezone,
		&q.Notes,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Create inserts a new weather query record. It assigns a fresh record ID
// and creation timestamps before writing; the passed struct is updated in
// place so the caller can return it directly.
func (r *WeatherQueryRepository) Create(ctx context.Context, q *types.WeatherQuery) error {
	now := time.Now().UTC()
	q.ID = types.NewRecordID()
	q.CreatedAt = now
	q.UpdatedAt = now

	_, err := r.db.Exec(ctx,
		`INSERT INTO weather_queries (id, location, date_range_start, date_range_end,
		 weather_data, lat, lon, country, timezone, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		q.ID,
		q.Location,
		q.DateRange.Start,
		q.DateRange.End,
		q.WeatherData,
		q.Coordinates.Lat,
		q.Coordinates.Lon,
		q.Country,
		q.Timezone,
		q.Notes,
		q.CreatedAt,
		q.UpdatedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create weather query", err)
	}
	return nil
}

// GetByID retrieves a weather query by its record ID.
// Returns a not-found error when no record matches.
func (r *WeatherQueryRepository) GetByID(ctx context.Context, id string) (*types.WeatherQuery, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+queryColumns+`
		 FROM weather_queries q
		 WHERE q.id = $1`,
		id,
	)

	q, err := scanQuery(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundQuery, "weather query not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve weather query", err)
	}
	return q, nil
}

// List returns one page of weather queries plus pagination metadata. The
// total count reflects the full table so clients can compute page counts.
func (r *WeatherQueryRepository) List(ctx context.Context, opts ListOptions) ([]*types.WeatherQuery, types.PageInfo, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	skip := opts.Skip
	if skip < 0 {
		skip = 0
	}
	orderBy := resolveSort(opts.Sort)

	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM weather_queries`,
	).Scan(&total); err != nil {
		return nil, types.PageInfo{}, types.NewAppError(types.ErrCodeInternalDB, "failed to count weather queries", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+queryColumns+`
		 FROM weather_queries q
		 ORDER BY `+orderBy+`
		 LIMIT $1 OFFSET $2`,
		limit, skip,
	)
	if err != nil {
		return nil, types.PageInfo{}, types.NewAppError(types.ErrCodeInternalDB, "failed to list weather queries", err)
	}
	defer rows.Close()

	queries := make([]*types.WeatherQuery, 0, limit)
	for rows.Next() {
		q, err := scanQuery(rows)
		if err != nil {
			return nil, types.PageInfo{}, types.NewAppError(types.ErrCodeInternalDB, "failed to scan weather query", err)
		}
		queries = append(queries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, types.PageInfo{}, types.NewAppError(types.ErrCodeInternalDB, "failed to read weather queries", err)
	}

	page := types.PageInfo{
		Total:   total,
		Limit:   limit,
		Skip:    skip,
		HasMore: total > skip+len(queries),
	}
	return queries, page, nil
}

// ListAll returns every weather query ordered newest first. Used by the
// export endpoints, which always operate on the full record set.
func (r *WeatherQueryRepository) ListAll(ctx context.Context) ([]*types.WeatherQuery, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+queryColumns+`
		 FROM weather_queries q
		 ORDER BY q.created_at DESC`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list weather queries", err)
	}
	defer rows.Close()

	var queries []*types.WeatherQuery
	for rows.Next() {
		q, err := scanQuery(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan weather query", err)
		}
		queries = append(queries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to read weather queries", err)
	}
	return queries, nil
}

// Update writes the mutable fields of an existing record. The caller passes
// the full WeatherQuery struct with the merged state; updated_at is advanced
// here and reflected back into the struct.
func (r *WeatherQueryRepository) Update(ctx context.Context, q *types.WeatherQuery) error {
	q.UpdatedAt = time.Now().UTC()

	tag, err := r.db.Exec(ctx,
		`UPDATE weather_queries
		 SET location = $1,
		     date_range_start = $2,
		     date_range_end = $3,
		     weather_data = $4,
		     lat = $5,
		     lon = $6,
		     country = $7,
		     timezone = $8,
		     notes = $9,
		     updated_at = $10
		 WHERE id = $11`,
		q.Location,
		q.DateRange.Start,
		q.DateRange.End,
		q.WeatherData,
		q.Coordinates.Lat,
		q.Coordinates.Lon,
		q.Country,
		q.Timezone,
		q.Notes,
		q.UpdatedAt,
		q.ID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update weather query", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundQuery, "weather query not found", nil)
	}
	return nil
}

// Delete removes a record and returns the deleted row so the API can echo
// it back to the client.
func (r *WeatherQueryRepository) Delete(ctx context.Context, id string) (*types.WeatherQuery, error) {
	row := r.db.QueryRow(ctx,
		`DELETE FROM weather_queries
		 WHERE id = $1
		 RETURNING id, location, date_range_start, date_range_end,
		           weather_data, lat, lon, country, timezone, notes,
		           created_at, updated_at`,
		id,
	)

	q, err := scanQuery(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundQuery, "weather query not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to delete weather query", err)
	}
	return q, nil
}

// resolveSort maps an API sort key to an ORDER BY clause. A '-' prefix
// selects descending order. Unknown keys fall back to newest first.
func resolveSort(sort string) string {
	if sort == "" {
		sort = "-createdAt"
	}

	dir := "ASC"
	key := sort
	if strings.HasPrefix(sort, "-") {
		dir = "DESC"
		key = sort[1:]
	}

	col, ok := sortColumns[key]
	if !ok {
		return "q.created_at DESC"
	}
	return fmt.Sprintf("q.%s %s", col, dir)
}
