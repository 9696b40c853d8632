package repository

import (
	"errors"
	"fmt"

	"github.com/idia-astro/ilifudb/internal/db"
)

var (
	// ErrNotFound is returned when no record matches a lookup.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a write violates a unique constraint.
	ErrAlreadyExists = errors.New("already exists")
)

// mapWriteError translates driver constraint failures into repository sentinels.
func mapWriteError(what string, err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w: %v", what, ErrAlreadyExists, err)
	case db.IsForeignKeyViolation(err):
		return fmt.Errorf("%s: referenced record %w: %v", what, ErrNotFound, err)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
