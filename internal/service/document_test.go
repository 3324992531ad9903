package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"companydocs/internal/apperr"
	cacheMocks "companydocs/internal/cache/mocks"
	"companydocs/internal/model"
	"companydocs/internal/repository"
	repoMocks "companydocs/internal/repository/mocks"
	"companydocs/internal/storage"
	storeMocks "companydocs/internal/storage/mocks"
	"companydocs/internal/validation"
)

const mib = 1 << 20

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type documentMocks struct {
	store     *storeMocks.MockStorage
	repo      *repoMocks.MockDocumentRepository
	companies *repoMocks.MockCompanyRepository
	cache     *cacheMocks.MockDocumentCache
}

func (m documentMocks) assert(t *testing.T) {
	m.store.AssertExpectations(t)
	m.repo.AssertExpectations(t)
	m.companies.AssertExpectations(t)
	m.cache.AssertExpectations(t)
}

func newTestDocumentService() (*documentService, documentMocks) {
	m := documentMocks{
		store:     new(storeMocks.MockStorage),
		repo:      new(repoMocks.MockDocumentRepository),
		companies: new(repoMocks.MockCompanyRepository),
		cache:     new(cacheMocks.MockDocumentCache),
	}
	v := validation.NewFileValidator(50*mib, []string{".pdf", ".txt", ".png"})
	svc := NewDocumentService(m.store, m.repo, m.companies, v, m.cache, nil, DocumentOptions{}).(*documentService)
	svc.now = func() time.Time { return fixedNow }
	svc.newID = func() string { return "doc-1" }
	return svc, m
}

func putReturnsKey(size int64) func(context.Context, string, io.Reader, storage.PutObjectOptions) storage.ObjectInfo {
	return func(_ context.Context, key string, _ io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
		return storage.ObjectInfo{Key: key, Size: size, ContentType: opt.ContentType}
	}
}

func TestDocumentService_Upload(t *testing.T) {
	ctx := context.Background()
	company := &model.Company{ID: "C1", Name: "Acme"}
	wantKey := "company-documents/C1/1717243200000-doc-1-invoice.pdf"

	tests := []struct {
		name       string
		in         UploadInput
		setupMocks func(m documentMocks)
		wantMarker error
		wantMsg    string
		check      func(t *testing.T, doc *model.Document)
	}{
		{
			name: "invoice is stored private by default",
			in: UploadInput{
				CompanyID:   "C1",
				Filename:    "invoice.pdf",
				ContentType: "application/pdf",
				Size:        2 * mib,
				Reader:      strings.NewReader("%PDF-1.4 test"),
			},
			setupMocks: func(m documentMocks) {
				m.companies.On("FindByID", ctx, "C1").Return(company, nil)
				m.store.On("Put", ctx, wantKey, mock.Anything, storage.PutObjectOptions{
					Size:        2 * mib,
					ContentType: "application/pdf",
					Metadata:    map[string]string{"company-id": "C1"},
				}).Return(putReturnsKey(2*mib), nil)
				m.repo.On("Create", ctx, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.Name == "invoice.pdf" &&
						doc.FilePath == wantKey &&
						doc.FileSize == 2*mib &&
						doc.MimeType == "application/pdf" &&
						!doc.IsPublic &&
						doc.DocumentType != nil && *doc.DocumentType == model.DocumentTypeInvoice &&
						doc.CreatedAt.Equal(fixedNow)
				})).Return(func() *model.Document {
					invoice := model.DocumentTypeInvoice
					return &model.Document{
						ID: "doc-1", CompanyID: "C1", Name: "invoice.pdf", FilePath: wantKey,
						FileSize: 2 * mib, MimeType: "application/pdf", DocumentType: &invoice,
					}
				}(), nil)
			},
			check: func(t *testing.T, doc *model.Document) {
				assert.Equal(t, "doc-1", doc.ID)
				assert.False(t, doc.IsPublic)
			},
		},
		{
			name: "content type is sniffed when not declared",
			in: UploadInput{
				CompanyID: "C1",
				Filename:  "scan_v3 ref-AB12.pdf",
				Size:      13,
				Reader:    strings.NewReader("%PDF-1.4 test"),
				IsPublic:  true,
			},
			setupMocks: func(m documentMocks) {
				m.companies.On("FindByID", ctx, "C1").Return(company, nil)
				m.store.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "company-documents/C1/") && strings.HasSuffix(key, "-scan_v3_ref-AB12.pdf")
				}), mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
					return opt.ContentType == "application/pdf"
				})).Return(putReturnsKey(13), nil)
				m.repo.On("Create", ctx, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.MimeType == "application/pdf" &&
						doc.IsPublic &&
						doc.DocumentVersion != nil && *doc.DocumentVersion == 3 &&
						doc.DocumentReference != nil && *doc.DocumentReference == "AB12"
				})).Return(&model.Document{ID: "doc-2"}, nil)
			},
			check: func(t *testing.T, doc *model.Document) {
				assert.Equal(t, "doc-2", doc.ID)
			},
		},
		{
			name: "60 MiB file is rejected before any call",
			in: UploadInput{
				CompanyID:   "C1",
				Filename:    "huge.pdf",
				ContentType: "application/pdf",
				Size:        60 * mib,
				Reader:      strings.NewReader("x"),
			},
			setupMocks: func(m documentMocks) {},
			wantMarker: apperr.ErrValidation,
			wantMsg:    "file size 60 MiB exceeds the 50 MiB limit",
		},
		{
			name: "disallowed extension",
			in: UploadInput{
				CompanyID: "C1",
				Filename:  "setup.exe",
				Size:      10,
				Reader:    strings.NewReader("MZ"),
			},
			setupMocks: func(m documentMocks) {},
			wantMarker: apperr.ErrValidation,
			wantMsg:    `file type ".exe" is not allowed`,
		},
		{
			name:       "nil reader",
			in:         UploadInput{CompanyID: "C1", Filename: "a.txt", Size: 1},
			setupMocks: func(m documentMocks) {},
			wantMarker: apperr.ErrValidation,
		},
		{
			name: "unknown company",
			in: UploadInput{
				CompanyID: "nope",
				Filename:  "a.txt",
				Size:      5,
				Reader:    strings.NewReader("hello"),
			},
			setupMocks: func(m documentMocks) {
				m.companies.On("FindByID", ctx, "nope").Return(nil, sql.ErrNoRows)
			},
			wantMarker: apperr.ErrNotFound,
			wantMsg:    "company not found",
		},
		{
			name: "storage error",
			in: UploadInput{
				CompanyID: "C1",
				Filename:  "a.txt",
				Size:      5,
				Reader:    strings.NewReader("hello"),
			},
			setupMocks: func(m documentMocks) {
				m.companies.On("FindByID", ctx, "C1").Return(company, nil)
				m.store.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("storage fail"))
			},
			wantMarker: apperr.ErrTransport,
			wantMsg:    "upload object: storage fail",
		},
		{
			name: "repository error with successful rollback",
			in: UploadInput{
				CompanyID: "C1",
				Filename:  "a.txt",
				Size:      5,
				Reader:    strings.NewReader("hello"),
			},
			setupMocks: func(m documentMocks) {
				m.companies.On("FindByID", ctx, "C1").Return(company, nil)
				m.store.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(putReturnsKey(5), nil)
				m.repo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				m.store.On("Delete", mock.Anything, "company-documents/C1/1717243200000-doc-1-a.txt").Return(nil)
			},
			wantMsg: "save document metadata: db fail",
		},
		{
			name: "duplicate path keeps the existing object",
			in: UploadInput{
				CompanyID: "C1",
				Filename:  "a.txt",
				Size:      5,
				Reader:    strings.NewReader("hello"),
			},
			setupMocks: func(m documentMocks) {
				m.companies.On("FindByID", ctx, "C1").Return(company, nil)
				m.store.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(putReturnsKey(5), nil)
				m.repo.On("Create", ctx, mock.Anything).
					Return(nil, errors.Mark(errors.New("duplicate key value"), repository.ErrDuplicate))
			},
			wantMarker: apperr.ErrConflict,
		},
		{
			name: "repository error with failed rollback",
			in: UploadInput{
				CompanyID: "C1",
				Filename:  "a.txt",
				Size:      5,
				Reader:    strings.NewReader("hello"),
			},
			setupMocks: func(m documentMocks) {
				m.companies.On("FindByID", ctx, "C1").Return(company, nil)
				m.store.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(putReturnsKey(5), nil)
				m.repo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				m.store.On("Delete", mock.Anything, mock.Anything).Return(errors.New("delete fail"))
			},
			wantMarker: apperr.ErrPartialFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestDocumentService()
			tt.setupMocks(m)

			doc, err := svc.Upload(ctx, tt.in)

			if tt.wantMarker != nil || tt.wantMsg != "" {
				require.Error(t, err)
				assert.Nil(t, doc)
				if tt.wantMarker != nil {
					assert.True(t, errors.Is(err, tt.wantMarker), "unexpected error class: %v", err)
				}
				if tt.wantMsg != "" {
					assert.Contains(t, err.Error()+" "+apperr.Message(err), tt.wantMsg)
				}
			} else {
				require.NoError(t, err)
				tt.check(t, doc)
			}
			m.assert(t)
		})
	}
}

// memStore keeps objects in a map.
type memStore struct {
	objects map[string][]byte
}

func newMemStore() *memStore { return &memStore{objects: map[string][]byte{}} }

func (s *memStore) Put(_ context.Context, key string, r io.Reader, opt storage.PutObjectOptions) (storage.ObjectInfo, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	s.objects[key] = b
	return storage.ObjectInfo{Key: key, Size: int64(len(b)), ContentType: opt.ContentType}, nil
}

func (s *memStore) Get(_ context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	b, ok := s.objects[key]
	if !ok {
		return nil, storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return io.NopCloser(strings.NewReader(string(b))), storage.ObjectInfo{Key: key, Size: int64(len(b))}, nil
}

func (s *memStore) Stat(_ context.Context, key string) (storage.ObjectInfo, error) {
	b, ok := s.objects[key]
	if !ok {
		return storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return storage.ObjectInfo{Key: key, Size: int64(len(b))}, nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *memStore) List(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for k, b := range s.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, storage.ObjectInfo{Key: k, Size: int64(len(b))})
		}
	}
	return out, nil
}

func (s *memStore) PresignGet(_ context.Context, key string, _ time.Duration, _ storage.PresignOptions) (string, error) {
	return "https://objects.local/" + key, nil
}

// uniquePathRepo enforces the UNIQUE file_path constraint of the documents table.
type uniquePathRepo struct {
	repoMocks.MockDocumentRepository
	byID map[string]*model.Document
}

func (r *uniquePathRepo) Create(_ context.Context, doc *model.Document) (*model.Document, error) {
	for _, d := range r.byID {
		if d.FilePath == doc.FilePath {
			return nil, errors.Mark(errors.New("duplicate file_path"), repository.ErrDuplicate)
		}
	}
	cp := *doc
	r.byID[doc.ID] = &cp
	return &cp, nil
}

func (r *uniquePathRepo) FindByID(_ context.Context, id string) (*model.Document, error) {
	d, ok := r.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return d, nil
}

func TestDocumentService_Upload_SameNameSameInstant(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	repo := &uniquePathRepo{byID: map[string]*model.Document{}}
	companies := new(repoMocks.MockCompanyRepository)
	companies.On("FindByID", ctx, "C1").Return(&model.Company{ID: "C1"}, nil)

	v := validation.NewFileValidator(50*mib, []string{".pdf"})
	svc := NewDocumentService(store, repo, companies, v, nil, nil, DocumentOptions{}).(*documentService)
	svc.now = func() time.Time { return fixedNow }
	ids := []string{"doc-a", "doc-b"}
	svc.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	upload := func(body string) *model.Document {
		doc, err := svc.Upload(ctx, UploadInput{
			CompanyID:   "C1",
			Filename:    "invoice.pdf",
			ContentType: "application/pdf",
			Size:        int64(len(body)),
			Reader:      strings.NewReader(body),
		})
		require.NoError(t, err)
		return doc
	}
	first := upload("%PDF-1.4 first")
	second := upload("%PDF-1.4 second")

	assert.NotEqual(t, first.FilePath, second.FilePath)
	assert.Equal(t, "%PDF-1.4 first", string(store.objects[first.FilePath]))
	assert.Equal(t, "%PDF-1.4 second", string(store.objects[second.FilePath]))

	for _, doc := range []*model.Document{first, second} {
		u, err := svc.SignedURL(ctx, doc.ID, false)
		require.NoError(t, err)
		assert.Equal(t, "https://objects.local/"+doc.FilePath, u.URL)
	}
}

func TestDocumentService_Upload_RejectedFileTouchesNothing(t *testing.T) {
	svc, m := newTestDocumentService()

	_, err := svc.Upload(context.Background(), UploadInput{
		CompanyID: "C1",
		Filename:  "big.pdf",
		Size:      60 * mib,
		Reader:    strings.NewReader("x"),
	})

	assert.True(t, errors.Is(err, apperr.ErrValidation))
	m.companies.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	m.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDocumentService_List(t *testing.T) {
	ctx := context.Background()
	company := &model.Company{ID: "C1"}

	tests := []struct {
		name       string
		in         ListInput
		setupMocks func(m documentMocks)
		wantMarker error
		wantErr    bool
		checkRes   func(t *testing.T, res *DocumentListResult)
	}{
		{
			name: "defaults",
			in:   ListInput{CompanyID: "C1"},
			setupMocks: func(m documentMocks) {
				m.companies.On("FindByID", ctx, "C1").Return(company, nil)
				m.repo.On("List", ctx, repository.DocumentQuery{
					CompanyID: "C1",
					SortField: repository.SortByCreatedAt,
					SortDesc:  true,
					PageQuery: repository.PageQuery{Limit: 20, Offset: 0},
				}).Return(&repository.PageResult[model.Document]{
					Items: []model.Document{{ID: "1", Name: "invoice.pdf", MimeType: "application/pdf"}},
					Total: 1,
				}, nil)
			},
			checkRes: func(t *testing.T, res *DocumentListResult) {
				require.Len(t, res.Items, 1)
				assert.Equal(t, "invoice.pdf", res.Items[0].Name)
				assert.Equal(t, 1, res.Total)
				assert.Equal(t, 20, res.Limit)
			},
		},
		{
			name: "filters, name sort ascending and clamped limit",
			in: ListInput{
				CompanyID:  "C1",
				Name:       " inv ",
				MimePrefix: "application/",
				PublicOnly: true,
				Sort:       "name",
				Limit:      1000,
				Offset:     -5,
			},
			setupMocks: func(m documentMocks) {
				m.companies.On("FindByID", ctx, "C1").Return(company, nil)
				m.repo.On("List", ctx, repository.DocumentQuery{
					CompanyID:    "C1",
					NameContains: "inv",
					MimePrefix:   "application/",
					PublicOnly:   true,
					SortField:    repository.SortByName,
					SortDesc:     false,
					PageQuery:    repository.PageQuery{Limit: 100, Offset: 0},
				}).Return(&repository.PageResult[model.Document]{Items: []model.Document{}, Total: 0}, nil)
			},
			checkRes: func(t *testing.T, res *DocumentListResult) {
				assert.Equal(t, 100, res.Limit)
				assert.Equal(t, 0, res.Offset)
			},
		},
		{
			name: "size alias with explicit order",
			in:   ListInput{CompanyID: "C1", Sort: "size", Order: "DESC", Limit: 5, Offset: 10},
			setupMocks: func(m documentMocks) {
				m.companies.On("FindByID", ctx, "C1").Return(company, nil)
				m.repo.On("List", ctx, repository.DocumentQuery{
					CompanyID: "C1",
					SortField: repository.SortBySize,
					SortDesc:  true,
					PageQuery: repository.PageQuery{Limit: 5, Offset: 10},
				}).Return(&repository.PageResult[model.Document]{Items: []model.Document{}}, nil)
			},
		},
		{
			name:       "unknown sort field",
			in:         ListInput{CompanyID: "C1", Sort: "owner"},
			setupMocks: func(m documentMocks) {},
			wantMarker: apperr.ErrValidation,
		},
		{
			name:       "bad order",
			in:         ListInput{CompanyID: "C1", Order: "sideways"},
			setupMocks: func(m documentMocks) {},
			wantMarker: apperr.ErrValidation,
		},
		{
			name: "unknown company",
			in:   ListInput{CompanyID: "C9"},
			setupMocks: func(m documentMocks) {
				m.companies.On("FindByID", ctx, "C9").Return(nil, sql.ErrNoRows)
			},
			wantMarker: apperr.ErrNotFound,
		},
		{
			name: "repository error",
			in:   ListInput{CompanyID: "C1"},
			setupMocks: func(m documentMocks) {
				m.companies.On("FindByID", ctx, "C1").Return(company, nil)
				m.repo.On("List", ctx, mock.Anything).Return(nil, errors.New("db fail"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestDocumentService()
			tt.setupMocks(m)

			res, err := svc.List(ctx, tt.in)

			switch {
			case tt.wantMarker != nil:
				assert.True(t, errors.Is(err, tt.wantMarker), "unexpected error: %v", err)
			case tt.wantErr:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				if tt.checkRes != nil {
					tt.checkRes(t, res)
				}
			}
			m.assert(t)
		})
	}
}

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("cache hit skips the database", func(t *testing.T) {
		svc, m := newTestDocumentService()
		m.cache.On("Get", ctx, "doc-1").Return(&model.Document{ID: "doc-1"}, true, nil)

		doc, err := svc.Get(ctx, "doc-1")

		require.NoError(t, err)
		assert.Equal(t, "doc-1", doc.ID)
		m.repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("cache miss fills the cache", func(t *testing.T) {
		svc, m := newTestDocumentService()
		stored := &model.Document{ID: "doc-1"}
		m.cache.On("Get", ctx, "doc-1").Return(nil, false, nil)
		m.repo.On("FindByID", ctx, "doc-1").Return(stored, nil)
		m.cache.On("Set", ctx, stored).Return(nil)

		doc, err := svc.Get(ctx, "doc-1")

		require.NoError(t, err)
		assert.Same(t, stored, doc)
		m.assert(t)
	})

	t.Run("cache failure falls back to the database", func(t *testing.T) {
		svc, m := newTestDocumentService()
		stored := &model.Document{ID: "doc-1"}
		m.cache.On("Get", ctx, "doc-1").Return(nil, false, errors.New("redis down"))
		m.repo.On("FindByID", ctx, "doc-1").Return(stored, nil)
		m.cache.On("Set", ctx, stored).Return(errors.New("redis down"))

		doc, err := svc.Get(ctx, "doc-1")

		require.NoError(t, err)
		assert.Equal(t, "doc-1", doc.ID)
	})

	t.Run("not found", func(t *testing.T) {
		svc, m := newTestDocumentService()
		m.cache.On("Get", ctx, "missing").Return(nil, false, nil)
		m.repo.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)

		_, err := svc.Get(ctx, "missing")

		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})

	t.Run("empty id", func(t *testing.T) {
		svc, _ := newTestDocumentService()
		_, err := svc.Get(ctx, "")
		assert.True(t, errors.Is(err, apperr.ErrValidation))
	})
}

func TestDocumentService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("visibility toggle is visible on next read", func(t *testing.T) {
		svc, m := newTestDocumentService()
		public := true
		m.repo.On("Update", ctx, "doc-1", model.DocumentPatch{IsPublic: &public}).
			Return(&model.Document{ID: "doc-1", IsPublic: true}, nil)
		m.cache.On("Delete", ctx, "doc-1").Return(nil)
		m.cache.On("Get", ctx, "doc-1").Return(nil, false, nil)
		m.repo.On("FindByID", ctx, "doc-1").Return(&model.Document{ID: "doc-1", IsPublic: true}, nil)
		m.cache.On("Set", ctx, mock.Anything).Return(nil)

		updated, err := svc.SetVisibility(ctx, "doc-1", true)
		require.NoError(t, err)
		assert.True(t, updated.IsPublic)

		doc, err := svc.Get(ctx, "doc-1")
		require.NoError(t, err)
		assert.True(t, doc.IsPublic)
		m.assert(t)
	})

	t.Run("rename trims the name", func(t *testing.T) {
		svc, m := newTestDocumentService()
		m.repo.On("Update", ctx, "doc-1", mock.MatchedBy(func(p model.DocumentPatch) bool {
			return p.Name != nil && *p.Name == "contract.pdf"
		})).Return(&model.Document{ID: "doc-1", Name: "contract.pdf"}, nil)
		m.cache.On("Delete", ctx, "doc-1").Return(nil)

		name := "  contract.pdf "
		doc, err := svc.Update(ctx, "doc-1", model.DocumentPatch{Name: &name})

		require.NoError(t, err)
		assert.Equal(t, "contract.pdf", doc.Name)
	})

	t.Run("invalid patches", func(t *testing.T) {
		svc, _ := newTestDocumentService()
		blank := "  "
		slash := "a/b.pdf"

		_, err := svc.Update(ctx, "doc-1", model.DocumentPatch{})
		assert.True(t, errors.Is(err, apperr.ErrValidation))
		_, err = svc.Update(ctx, "doc-1", model.DocumentPatch{Name: &blank})
		assert.True(t, errors.Is(err, apperr.ErrValidation))
		_, err = svc.Update(ctx, "doc-1", model.DocumentPatch{Name: &slash})
		assert.True(t, errors.Is(err, apperr.ErrValidation))
	})

	t.Run("not found", func(t *testing.T) {
		svc, m := newTestDocumentService()
		m.repo.On("Update", ctx, "missing", mock.Anything).Return(nil, sql.ErrNoRows)

		_, err := svc.SetVisibility(ctx, "missing", false)

		assert.True(t, errors.Is(err, apperr.ErrNotFound))
		m.cache.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestDocumentService_SignedURL(t *testing.T) {
	ctx := context.Background()
	doc := &model.Document{ID: "doc-1", Name: "invoice.pdf", FilePath: "company-documents/C1/1-invoice.pdf"}

	t.Run("signs for 60 seconds", func(t *testing.T) {
		svc, m := newTestDocumentService()
		m.cache.On("Get", ctx, "doc-1").Return(doc, true, nil)
		m.store.On("Stat", ctx, doc.FilePath).Return(storage.ObjectInfo{Key: doc.FilePath}, nil)
		m.store.On("PresignGet", ctx, doc.FilePath, 60*time.Second, storage.PresignOptions{DownloadName: "invoice.pdf"}).
			Return("https://minio.local/signed", nil)

		res, err := svc.SignedURL(ctx, "doc-1", true)

		require.NoError(t, err)
		assert.Equal(t, "https://minio.local/signed", res.URL)
		assert.Equal(t, fixedNow.Add(time.Minute), res.ExpiresAt)
		m.assert(t)
	})

	t.Run("missing object is not found", func(t *testing.T) {
		svc, m := newTestDocumentService()
		m.cache.On("Get", ctx, "doc-1").Return(doc, true, nil)
		m.store.On("Stat", ctx, doc.FilePath).Return(storage.ObjectInfo{}, errors.Mark(errors.New("NoSuchKey"), storage.ErrObjectNotFound))

		res, err := svc.SignedURL(ctx, "doc-1", false)

		assert.Nil(t, res)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
		m.store.AssertNotCalled(t, "PresignGet", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("signing failure has no fallback", func(t *testing.T) {
		svc, m := newTestDocumentService()
		m.cache.On("Get", ctx, "doc-1").Return(doc, true, nil)
		m.store.On("Stat", ctx, doc.FilePath).Return(storage.ObjectInfo{Key: doc.FilePath}, nil)
		m.store.On("PresignGet", ctx, doc.FilePath, 60*time.Second, storage.PresignOptions{}).
			Return("", errors.New("credentials expired"))

		res, err := svc.SignedURL(ctx, "doc-1", false)

		assert.Nil(t, res)
		assert.True(t, errors.Is(err, apperr.ErrTransport))
		assert.Equal(t, "sign url: credentials expired", apperr.Message(err))
	})
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()
	doc := &model.Document{ID: "doc-1", CompanyID: "C1", FilePath: "company-documents/C1/1-a.pdf"}

	t.Run("object first, then row", func(t *testing.T) {
		svc, m := newTestDocumentService()
		var order []string
		m.repo.On("FindByID", ctx, "doc-1").Return(doc, nil)
		m.store.On("Delete", ctx, doc.FilePath).Run(func(mock.Arguments) { order = append(order, "object") }).Return(nil)
		m.repo.On("Delete", ctx, "doc-1").Run(func(mock.Arguments) { order = append(order, "row") }).Return(nil)
		m.cache.On("Delete", ctx, "doc-1").Return(nil)

		require.NoError(t, svc.Delete(ctx, "doc-1"))
		assert.Equal(t, []string{"object", "row"}, order)
		m.assert(t)
	})

	t.Run("storage failure keeps the row", func(t *testing.T) {
		svc, m := newTestDocumentService()
		m.repo.On("FindByID", ctx, "doc-1").Return(doc, nil)
		m.store.On("Delete", ctx, doc.FilePath).Return(errors.New("access denied"))

		err := svc.Delete(ctx, "doc-1")

		assert.True(t, errors.Is(err, apperr.ErrTransport))
		m.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("row failure is a partial failure and retry succeeds", func(t *testing.T) {
		svc, m := newTestDocumentService()
		m.repo.On("FindByID", ctx, "doc-1").Return(doc, nil)
		// The second storage delete targets an object that is already gone.
		m.store.On("Delete", ctx, doc.FilePath).Return(nil).Twice()
		m.repo.On("Delete", ctx, "doc-1").Return(errors.New("db fail")).Once()
		m.repo.On("Delete", ctx, "doc-1").Return(nil).Once()
		m.cache.On("Delete", ctx, "doc-1").Return(nil).Once()

		err := svc.Delete(ctx, "doc-1")
		assert.True(t, errors.Is(err, apperr.ErrPartialFailure))
		assert.Equal(t, apperr.CodePartialFailure, apperr.Code(err))

		assert.NoError(t, svc.Delete(ctx, "doc-1"))
		m.assert(t)
	})

	t.Run("not found", func(t *testing.T) {
		svc, m := newTestDocumentService()
		m.repo.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)

		err := svc.Delete(ctx, "missing")

		assert.True(t, errors.Is(err, apperr.ErrNotFound))
		m.store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
