package repository

import (
	"context"

	"companydocs/internal/model"
)

// DocumentRepository defines data access for document metadata using SQL queries only.
// No business logic here, strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	// It must only be called once the object is confirmed stored.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID, or sql.ErrNoRows.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns a filtered, sorted page of a company's documents and the total
	// count matching the filters.
	List(ctx context.Context, q DocumentQuery) (*PageResult[model.Document], error)

	// Update applies a metadata-only patch and returns the updated row, or sql.ErrNoRows.
	Update(ctx context.Context, id string, patch model.DocumentPatch) (*model.Document, error)

	// Delete removes a document by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}

// SortField is a sortable document column.
type SortField string

const (
	SortByName      SortField = "name"
	SortByCreatedAt SortField = "created_at"
	SortBySize      SortField = "file_size"
	SortByMimeType  SortField = "mime_type"
)

// ParseSortField accepts the column names plus the "size" alias.
func ParseSortField(s string) (SortField, bool) {
	switch s {
	case "name":
		return SortByName, true
	case "created_at", "":
		return SortByCreatedAt, true
	case "size", "file_size":
		return SortBySize, true
	case "mime_type":
		return SortByMimeType, true
	}
	return "", false
}

// DocumentQuery filters and orders a company's documents.
type DocumentQuery struct {
	CompanyID    string
	NameContains string // case-insensitive substring
	MimePrefix   string // e.g. "image/" or "application/pdf"
	PublicOnly   bool
	SortField    SortField
	SortDesc     bool
	PageQuery
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
