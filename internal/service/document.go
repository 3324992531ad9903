package service

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"companydocs/internal/apperr"
	"companydocs/internal/cache"
	"companydocs/internal/filemeta"
	"companydocs/internal/model"
	"companydocs/internal/repository"
	"companydocs/internal/storage"
	"companydocs/internal/validation"
)

const (
	DefaultListLimit       = 20
	MaxListLimit           = 100
	DefaultSignedURLExpiry = 60 * time.Second
	DefaultCategory        = "company-documents"
)

// UploadInput is one file to store for a company. Size is the declared byte count.
type UploadInput struct {
	CompanyID    string
	Filename     string
	ContentType  string
	Size         int64
	Reader       io.Reader
	IsPublic     bool
	DocumentType *model.DocumentType
}

// ListInput carries the raw list parameters. Sort is a column name ("name",
// "created_at", "size", "mime_type") and Order is "asc" or "desc".
type ListInput struct {
	CompanyID  string
	Name       string
	MimePrefix string
	PublicOnly bool
	Sort       string
	Order      string
	Limit      int
	Offset     int
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items  []model.Document `json:"data"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// SignedURL is a short-lived retrieval link. It is never persisted.
type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload validates the file, stores the object, then records its metadata.
	// If the metadata insert fails the stored object is removed again.
	Upload(ctx context.Context, in UploadInput) (*model.Document, error)

	// List returns a filtered, sorted page of a company's documents.
	List(ctx context.Context, in ListInput) (*DocumentListResult, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Update changes metadata only; the stored object is untouched.
	Update(ctx context.Context, id string, patch model.DocumentPatch) (*model.Document, error)

	// SetVisibility flips the is_public flag.
	SetVisibility(ctx context.Context, id string, isPublic bool) (*model.Document, error)

	// SignedURL returns a time-limited URL for the stored object. With download set
	// the object is served as an attachment named after the document.
	SignedURL(ctx context.Context, id string, download bool) (*SignedURL, error)

	// Delete removes the stored object, then the metadata row.
	Delete(ctx context.Context, id string) error
}

// DocumentOptions tunes a DocumentService. Zero values select the defaults.
type DocumentOptions struct {
	Category        string
	SignedURLExpiry time.Duration
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store     storage.Storage
	repo      repository.DocumentRepository
	companies repository.CompanyRepository
	validator *validation.FileValidator
	cache     cache.DocumentCache
	log       *zap.Logger

	category string
	expiry   time.Duration
	now      func() time.Time
	newID    func() string
}

// NewDocumentService constructs a new DocumentService. A nil cache disables caching
// and a nil logger discards logs.
func NewDocumentService(
	store storage.Storage,
	repo repository.DocumentRepository,
	companies repository.CompanyRepository,
	validator *validation.FileValidator,
	docCache cache.DocumentCache,
	log *zap.Logger,
	opts DocumentOptions,
) DocumentService {
	if docCache == nil {
		docCache = cache.NoopCache{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Category == "" {
		opts.Category = DefaultCategory
	}
	if opts.SignedURLExpiry <= 0 {
		opts.SignedURLExpiry = DefaultSignedURLExpiry
	}
	return &documentService{
		store:     store,
		repo:      repo,
		companies: companies,
		validator: validator,
		cache:     docCache,
		log:       log,
		category:  opts.Category,
		expiry:    opts.SignedURLExpiry,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (s *documentService) Upload(ctx context.Context, in UploadInput) (*model.Document, error) {
	if in.CompanyID == "" {
		return nil, apperr.Validation("company id is required")
	}
	if in.Reader == nil {
		return nil, apperr.Validation("file content is required")
	}
	name := filepath.Base(strings.ReplaceAll(strings.TrimSpace(in.Filename), "\\", "/"))
	if name == "." || name == "/" {
		name = ""
	}
	if err := s.validator.Validate(validation.FileCandidate{
		Name:     name,
		Size:     in.Size,
		MimeType: in.ContentType,
	}); err != nil {
		return nil, err
	}

	if _, err := s.companies.FindByID(ctx, in.CompanyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("company")
		}
		return nil, errors.Wrap(err, "load company")
	}

	br := bufio.NewReaderSize(in.Reader, validation.SniffLen)
	head, err := br.Peek(validation.SniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "read upload")
	}
	contentType := validation.SniffContentType(head, in.ContentType)

	now := s.now().UTC()
	id := s.newID()
	key := storage.BuildObjectKey(s.category, in.CompanyID, id, name, now)

	info, err := s.store.Put(ctx, key, br, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: contentType,
		Metadata:    map[string]string{"company-id": in.CompanyID},
	})
	if err != nil {
		return nil, apperr.Transport(err, "upload object")
	}

	meta := filemeta.Parse(name)
	docType := in.DocumentType
	if docType == nil {
		docType = meta.Type
	}
	size := info.Size
	if size <= 0 {
		size = in.Size
	}

	doc := &model.Document{
		ID:                id,
		CompanyID:         in.CompanyID,
		Name:              name,
		FilePath:          key,
		FileSize:          size,
		MimeType:          contentType,
		IsPublic:          in.IsPublic,
		DocumentType:      docType,
		DocumentVersion:   meta.Version,
		DocumentReference: meta.Reference,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// A duplicate path belongs to another row; its object must stay.
		if errors.Is(err, repository.ErrDuplicate) {
			s.log.Error("object key collision on upload", zap.String("file_path", key), zap.Error(err))
			return nil, apperr.Conflict(err, "a document already exists at this path")
		}
		// The object is already stored; remove it even if the request was cancelled.
		if delErr := s.store.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.log.Error("orphaned object after failed metadata insert",
				zap.String("file_path", key),
				zap.Error(err),
				zap.NamedError("cleanup_error", delErr),
			)
			return nil, apperr.PartialFailure(errors.CombineErrors(err, delErr),
				"file was stored but its metadata could not be saved and cleanup failed")
		}
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, apperr.NotFound("company")
		}
		return nil, errors.Wrap(err, "save document metadata")
	}

	s.log.Info("document uploaded",
		zap.String("document_id", stored.ID),
		zap.String("company_id", stored.CompanyID),
		zap.Int64("file_size", stored.FileSize),
		zap.String("mime_type", stored.MimeType),
	)
	return stored, nil
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, in ListInput) (*DocumentListResult, error) {
	if in.CompanyID == "" {
		return nil, apperr.Validation("company id is required")
	}
	field, ok := repository.ParseSortField(strings.ToLower(strings.TrimSpace(in.Sort)))
	if !ok {
		return nil, apperr.Validationf("cannot sort by %q", in.Sort)
	}
	var desc bool
	switch strings.ToLower(strings.TrimSpace(in.Order)) {
	case "":
		desc = field == repository.SortByCreatedAt
	case "asc":
		desc = false
	case "desc":
		desc = true
	default:
		return nil, apperr.Validationf("order must be asc or desc, got %q", in.Order)
	}

	limit := in.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}

	if _, err := s.companies.FindByID(ctx, in.CompanyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("company")
		}
		return nil, errors.Wrap(err, "load company")
	}

	res, err := s.repo.List(ctx, repository.DocumentQuery{
		CompanyID:    in.CompanyID,
		NameContains: strings.TrimSpace(in.Name),
		MimePrefix:   strings.TrimSpace(in.MimePrefix),
		PublicOnly:   in.PublicOnly,
		SortField:    field,
		SortDesc:     desc,
		PageQuery:    repository.PageQuery{Limit: limit, Offset: offset},
	})
	if err != nil {
		return nil, errors.Wrap(err, "list documents")
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total, Limit: limit, Offset: offset}, nil
}

// Get returns a document by ID, reading through the cache.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, apperr.Validation("document id is required")
	}
	if doc, ok, err := s.cache.Get(ctx, id); err != nil {
		s.log.Warn("document cache read failed", zap.String("document_id", id), zap.Error(err))
	} else if ok {
		return doc, nil
	}

	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("document")
		}
		return nil, errors.Wrap(err, "load document")
	}
	if err := s.cache.Set(ctx, doc); err != nil {
		s.log.Warn("document cache write failed", zap.String("document_id", id), zap.Error(err))
	}
	return doc, nil
}

func (s *documentService) Update(ctx context.Context, id string, patch model.DocumentPatch) (*model.Document, error) {
	if id == "" {
		return nil, apperr.Validation("document id is required")
	}
	if patch.Empty() {
		return nil, apperr.Validation("no fields to update")
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperr.Validation("document name cannot be empty")
		}
		if strings.ContainsAny(name, "/\\") {
			return nil, apperr.Validation("document name cannot contain path separators")
		}
		patch.Name = &name
	}

	doc, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("document")
		}
		return nil, errors.Wrap(err, "update document")
	}
	s.invalidate(ctx, id)
	return doc, nil
}

func (s *documentService) SetVisibility(ctx context.Context, id string, isPublic bool) (*model.Document, error) {
	return s.Update(ctx, id, model.DocumentPatch{IsPublic: &isPublic})
}

func (s *documentService) SignedURL(ctx context.Context, id string, download bool) (*SignedURL, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return signDocument(ctx, s.store, doc, download, s.expiry, s.now)
}

// signDocument checks the object exists, then signs it. There is no fallback to an
// unsigned URL: any signing failure is returned to the caller.
func signDocument(ctx context.Context, store storage.Storage, doc *model.Document, download bool, expiry time.Duration, now func() time.Time) (*SignedURL, error) {
	if _, err := store.Stat(ctx, doc.FilePath); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, apperr.NotFound("stored file")
		}
		return nil, apperr.Transport(err, "stat object")
	}

	var opt storage.PresignOptions
	if download {
		opt.DownloadName = doc.Name
	}
	issued := now()
	u, err := store.PresignGet(ctx, doc.FilePath, expiry, opt)
	if err != nil {
		return nil, apperr.Transport(err, "sign url")
	}
	return &SignedURL{URL: u, ExpiresAt: issued.Add(expiry).UTC()}, nil
}

// Delete removes a document from storage, then deletes its record.
func (s *documentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperr.Validation("document id is required")
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("document")
		}
		return errors.Wrap(err, "load document")
	}

	// Storage first: on failure the row stays so the object is never orphaned
	// without a reference. A missing object counts as removed.
	if err := s.store.Delete(ctx, doc.FilePath); err != nil {
		return apperr.Transport(err, "delete object")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.log.Error("document row not deleted after object removal",
			zap.String("document_id", id),
			zap.String("file_path", doc.FilePath),
			zap.Error(err),
		)
		return apperr.PartialFailure(err, "file was removed but the document record could not be deleted, retry the deletion")
	}
	s.invalidate(ctx, id)

	s.log.Info("document deleted", zap.String("document_id", id), zap.String("company_id", doc.CompanyID))
	return nil
}

func (s *documentService) invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, id); err != nil {
		s.log.Warn("document cache invalidation failed", zap.String("document_id", id), zap.Error(err))
	}
}
