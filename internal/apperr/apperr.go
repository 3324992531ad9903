// Package apperr classifies errors raised by the document workflow.
//
// Every error that reaches the HTTP layer is marked with one category below and
// carries a hint that is safe to show to the end user. The wrapped chain keeps the
// underlying cause for logs.
package apperr

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// Category markers. Test with errors.Is.
var (
	ErrValidation     = errors.New("validation error")
	ErrNotFound       = errors.New("resource not found")
	ErrTransport      = errors.New("storage transport error")
	ErrPartialFailure = errors.New("operation partially failed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
)

const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeTransport      = "STORAGE_ERROR"
	CodePartialFailure = "PARTIAL_FAILURE"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeConflict       = "CONFLICT"
	CodeInternal       = "INTERNAL_ERROR"
)

type category struct {
	marker  error
	code    string
	status  int
	message string
}

// Order matters: a partial failure may wrap a transport error.
var categories = []category{
	{ErrPartialFailure, CodePartialFailure, http.StatusInternalServerError, "operation partially failed"},
	{ErrValidation, CodeValidation, http.StatusBadRequest, "invalid request"},
	{ErrNotFound, CodeNotFound, http.StatusNotFound, "resource not found"},
	{ErrUnauthorized, CodeUnauthorized, http.StatusUnauthorized, "authentication required"},
	{ErrForbidden, CodeForbidden, http.StatusForbidden, "access denied"},
	{ErrConflict, CodeConflict, http.StatusConflict, "resource already exists"},
	{ErrTransport, CodeTransport, http.StatusBadGateway, "storage backend error"},
}

func mark(err error, marker error, hint string) error {
	if hint != "" {
		err = errors.WithHint(err, hint)
	}
	return errors.Mark(err, marker)
}

// Validation returns a validation error whose message is shown to the caller as is.
func Validation(msg string) error {
	return mark(errors.New(msg), ErrValidation, msg)
}

// Validationf is Validation with formatting.
func Validationf(format string, args ...any) error {
	err := errors.Newf(format, args...)
	return mark(err, ErrValidation, err.Error())
}

// NotFound reports a missing resource, e.g. NotFound("document").
func NotFound(what string) error {
	return mark(errors.Newf("%s not found", what), ErrNotFound, what+" not found")
}

// Transport wraps a storage backend failure. The backend message is kept in the hint.
func Transport(err error, op string) error {
	return mark(errors.Wrap(err, op), ErrTransport, op+": "+err.Error())
}

// PartialFailure wraps the failing second step of a two step operation.
func PartialFailure(err error, msg string) error {
	return mark(errors.Wrap(err, msg), ErrPartialFailure, msg)
}

// Unauthorized reports a missing or invalid credential.
func Unauthorized(msg string) error {
	return mark(errors.New(msg), ErrUnauthorized, msg)
}

// Forbidden reports an authenticated caller acting outside its scope.
func Forbidden(msg string) error {
	return mark(errors.New(msg), ErrForbidden, msg)
}

// Conflict reports a uniqueness violation.
func Conflict(err error, msg string) error {
	return mark(errors.Wrap(err, msg), ErrConflict, msg)
}

func lookup(err error) (category, bool) {
	for _, c := range categories {
		if errors.Is(err, c.marker) {
			return c, true
		}
	}
	return category{}, false
}

// Code returns the machine readable code for err.
func Code(err error) string {
	if c, ok := lookup(err); ok {
		return c.code
	}
	return CodeInternal
}

// HTTPStatus returns the HTTP status that represents err.
func HTTPStatus(err error) int {
	if c, ok := lookup(err); ok {
		return c.status
	}
	return http.StatusInternalServerError
}

// Message returns the safe user facing message for err. Unclassified errors never
// leak their text.
func Message(err error) string {
	c, ok := lookup(err)
	if !ok {
		return "internal server error"
	}
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		return hints[0]
	}
	return c.message
}
