// Package cache keeps document metadata close to the API so repeated reads of the
// same document skip the database. Signed URLs are never cached.
package cache

import (
	"context"

	"companydocs/internal/model"
)

// DocumentCache stores document rows by ID.
type DocumentCache interface {
	// Get reports ok=false on a miss.
	Get(ctx context.Context, id string) (doc *model.Document, ok bool, err error)
	Set(ctx context.Context, doc *model.Document) error
	Delete(ctx context.Context, id string) error
}

// NoopCache is used when no cache backend is configured. Every read misses.
type NoopCache struct{}

var _ DocumentCache = NoopCache{}

func (NoopCache) Get(context.Context, string) (*model.Document, bool, error) { return nil, false, nil }
func (NoopCache) Set(context.Context, *model.Document) error                 { return nil }
func (NoopCache) Delete(context.Context, string) error                       { return nil }
