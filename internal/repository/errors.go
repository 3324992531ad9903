package repository

import "github.com/cockroachdb/errors"

// Implementations mark driver errors with these so callers stay driver agnostic.
// A missing row is reported as sql.ErrNoRows.
var (
	ErrDuplicate        = errors.New("duplicate row")
	ErrMissingReference = errors.New("referenced row does not exist")
)
