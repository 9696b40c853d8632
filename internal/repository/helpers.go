package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/idia-astro/ilifudb/internal/domain"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// parseNullableTime parses a sql.NullString into a *time.Time.
// Returns nil if the value is NULL, empty, or fails to parse.
func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := parseTimestamp(s.String)
	if err != nil {
		return nil
	}
	return &t
}

// parseTimestamp accepts RFC3339 text as written by this package and the
// RFC3339Nano form database/sql produces when scanning a TIMESTAMPTZ.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// nullableTimeToString converts a *time.Time to a value suitable for storage.
// Returns nil (SQL NULL) if the pointer is nil, otherwise the RFC3339 string.
func nullableTimeToString(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// nullableInt64ToValue converts a *int64 to a value suitable for storage.
func nullableInt64ToValue(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

// nullableStringToValue converts a *string to a value suitable for storage.
func nullableStringToValue(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

// emptyToNull stores "" as SQL NULL for optional text columns.
func emptyToNull(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

// levelArgs expands a position into the five nullable level parameters.
func levelArgs(pos domain.TreePosition) []any {
	levels := pos.Levels()
	out := make([]any, domain.MaxTreeDepth)
	for i, l := range levels {
		if l != nil {
			out[i] = *l
		}
	}
	return out
}

// prefixClause matches rows whose first len(pos) levels equal pos.
func prefixClause(pos domain.TreePosition) (string, []any) {
	if pos.IsRoot() {
		return "1 = 1", nil
	}
	parts := make([]string, len(pos))
	args := make([]any, len(pos))
	for i, v := range pos {
		parts[i] = fmt.Sprintf("level%d = ?", i+1)
		args[i] = v
	}
	return strings.Join(parts, " AND "), args
}

// treeOrder sorts rows depth-first by position. NULL levels sort first on
// both SQLite and PostgreSQL.
const treeOrder = `ORDER BY COALESCE(level1, 0), COALESCE(level2, 0), COALESCE(level3, 0),
		COALESCE(level4, 0), COALESCE(level5, 0)`

// nowUTC returns the current UTC time truncated to the stored precision.
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
