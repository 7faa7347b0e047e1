package types

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Validation constraint constants.
const (
	MinLat            = -90.0
	MaxLat            = 90.0
	MinLon            = -180.0
	MaxLon            = 180.0
	MaxLocationLength = 200
	MaxDateRangeDays  = 365
)

// ValidateLocation normalizes and validates a free-text location string.
// It fails when the string is empty after trimming or longer than 200
// characters; on success it returns the trimmed value.
func ValidateLocation(location string) (string, *AppError) {
	trimmed := strings.TrimSpace(location)
	if trimmed == "" {
		return "", NewAppError(ErrCodeValidationInvalidLocation,
			"location is required and cannot be empty", nil)
	}
	if utf8.RuneCountInString(trimmed) > MaxLocationLength {
		return "", NewAppError(ErrCodeValidationInvalidLocation,
			fmt.Sprintf("location is too long (max %d characters)", MaxLocationLength), nil)
	}
	return trimmed, nil
}

// parseCalendarDate parses a calendar date in YYYY-MM-DD form, also accepting
// a full RFC 3339 timestamp whose date component is taken. The result is
// normalized to midnight UTC.
func parseCalendarDate(s string) (time.Time, bool) {
	if t, err := time.Parse(DateOnly, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// ValidateDateRange parses and validates a start/end calendar-date pair.
// Invariants: both bounds present and parseable, end >= start, and the span
// must not exceed 365 days.
func ValidateDateRange(start, end string) (DateRange, *AppError) {
	if start == "" || end == "" {
		return DateRange{}, NewAppError(ErrCodeValidationInvalidDateRange,
			"both start and end dates are required", nil)
	}
	startDate, ok := parseCalendarDate(start)
	if !ok {
		return DateRange{}, NewAppError(ErrCodeValidationInvalidDateRange,
			"invalid start date format, use YYYY-MM-DD", nil)
	}
	endDate, ok := parseCalendarDate(end)
	if !ok {
		return DateRange{}, NewAppError(ErrCodeValidationInvalidDateRange,
			"invalid end date format, use YYYY-MM-DD", nil)
	}
	if endDate.Before(startDate) {
		return DateRange{}, NewAppError(ErrCodeValidationInvalidDateRange,
			"end date must be after or equal to start date", nil)
	}
	r := DateRange{Start: startDate, End: endDate}
	if r.Days() > MaxDateRangeDays {
		return DateRange{}, NewAppError(ErrCodeValidationInvalidDateRange,
			fmt.Sprintf("date range cannot exceed %d days", MaxDateRangeDays), nil)
	}
	return r, nil
}

// ValidateCoordinates checks that a coordinate pair is within the valid
// latitude/longitude ranges.
func ValidateCoordinates(lat, lon float64) *AppError {
	if lat < MinLat || lat > MaxLat {
		return NewAppErrorWithDetails(ErrCodeValidationInvalidCoordinates,
			"latitude must be between -90 and 90", nil,
			map[string]any{"lat": lat})
	}
	if lon < MinLon || lon > MaxLon {
		return NewAppErrorWithDetails(ErrCodeValidationInvalidCoordinates,
			"longitude must be between -180 and 180", nil,
			map[string]any{"lon": lon})
	}
	return nil
}

// ValidateRecordID checks that an identifier has the store's opaque-id shape
// (24 hex characters). Handlers call this on path parameters before any
// store access.
func ValidateRecordID(id string) *AppError {
	if !IsValidRecordID(id) {
		return NewAppError(ErrCodeValidationInvalidID, "invalid query ID format", nil)
	}
	return nil
}
