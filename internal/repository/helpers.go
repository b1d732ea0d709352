package repository

import (
	"database/sql"
	"time"
)

const dateLayout = "2006-01-02"

// parseNullableTime parses a sql.NullString into a *time.Time using the given
// layout. NULL, empty, and unparseable values map to nil.
func parseNullableTime(s sql.NullString, layout string) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(layout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// nullableTimeToString converts a *time.Time into a SQLite-storable value,
// nil pointer becoming SQL NULL.
func nullableTimeToString(t *time.Time, layout string) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(layout)
}

// nullableStringToPtr converts a *string to a SQLite-storable value.
func nullableStringToPtr(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

// nowUTC returns the current UTC time formatted as RFC3339.
func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}
