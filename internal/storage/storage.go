package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"companydocs/internal/config"
)

// Package storage contains file/object storage abstractions for S3-compatible object stores.
// Implementations must avoid using local disk where the backend allows streaming.

// ErrObjectNotFound is returned by Get and Stat when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1.
// ContentType and Metadata are optional.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// PresignOptions tune a signed retrieval URL. A non-empty DownloadName asks the
// backend to serve the object as an attachment with that file name.
type PresignOptions struct {
	DownloadName string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a reusable, S3-compatible object storage client interface.
// Methods use context and streaming readers; no retries are performed.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Stat returns object info without content, or ErrObjectNotFound.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// Delete removes an object by key. Deleting a missing key succeeds.
	Delete(ctx context.Context, key string) error
	// List returns every object whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration, opt PresignOptions) (string, error)
}

// New builds the backend selected by cfg.Storage.Driver.
func New(ctx context.Context, cfg *config.AppConfig) (Storage, error) {
	switch cfg.Storage.Driver {
	case "", "minio":
		return NewMinIO(ctx, cfg.MinIO)
	case "s3":
		return NewS3(ctx, cfg.S3)
	default:
		return nil, errors.Newf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

// CompanyPrefix is the key prefix under which every object of a company lives.
func CompanyPrefix(category, companyID string) string {
	return strings.Trim(category, "/") + "/" + companyID + "/"
}

// BuildObjectKey returns "<category>/<company-id>/<unix-millis>-<document-id>-<name>".
// The document ID keeps two uploads of the same name in the same millisecond apart.
func BuildObjectKey(category, companyID, documentID, originalName string, now time.Time) string {
	return fmt.Sprintf("%s%d-%s-%s", CompanyPrefix(category, companyID), now.UnixMilli(), documentID, SanitizeName(originalName))
}

// SanitizeName reduces a client supplied file name to a safe single path segment.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	var b strings.Builder
	lastUnderscore := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "file"
	}
	return out
}

func contentDisposition(name string) string {
	return fmt.Sprintf(`attachment; filename="%s"`, strings.ReplaceAll(SanitizeName(name), `"`, ""))
}
