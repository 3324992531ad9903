package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"companydocs/internal/apperr"
	"companydocs/internal/model"
	"companydocs/internal/repository"
	repoMocks "companydocs/internal/repository/mocks"
	"companydocs/internal/storage"
	storeMocks "companydocs/internal/storage/mocks"
)

func received(id, companyID, taxID string, at time.Time) model.ReceivedShare {
	return model.ReceivedShare{
		Share:        model.Share{ID: id, CompanyID: companyID, CreatedAt: at},
		CompanyTaxID: taxID,
	}
}

func shareIDs(shares []model.ReceivedShare) []string {
	ids := make([]string, 0, len(shares))
	for _, s := range shares {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestDeduplicateByTaxID(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t2.Add(time.Hour)

	tests := []struct {
		name   string
		shares []model.ReceivedShare
		want   []string
	}{
		{
			name: "latest share per tax id wins",
			shares: []model.ReceivedShare{
				received("s-1", "c-1", "12345678901234", t1),
				received("s-2", "c-2", "12345678901234", t2),
			},
			want: []string{"s-2"},
		},
		{
			name: "input order does not matter",
			shares: []model.ReceivedShare{
				received("s-2", "c-2", "12345678901234", t2),
				received("s-1", "c-1", "12345678901234", t1),
			},
			want: []string{"s-2"},
		},
		{
			name: "equal timestamps keep the greater id",
			shares: []model.ReceivedShare{
				received("s-b", "c-1", "FR1", t1),
				received("s-c", "c-2", "FR1", t1),
				received("s-a", "c-3", "FR1", t1),
			},
			want: []string{"s-c"},
		},
		{
			name: "tax id formatting is ignored",
			shares: []model.ReceivedShare{
				received("s-1", "c-1", "123 456 789 00012", t1),
				received("s-2", "c-2", "12345678900012", t2),
			},
			want: []string{"s-2"},
		},
		{
			name: "shares without tax id group by company",
			shares: []model.ReceivedShare{
				received("s-1", "c-1", "", t1),
				received("s-2", "c-1", "", t2),
				received("s-3", "c-2", "", t1),
			},
			want: []string{"s-2", "s-3"},
		},
		{
			name: "distinct groups are sorted newest first",
			shares: []model.ReceivedShare{
				received("s-1", "c-1", "A", t1),
				received("s-3", "c-3", "C", t3),
				received("s-2", "c-2", "B", t2),
			},
			want: []string{"s-3", "s-2", "s-1"},
		},
		{
			name:   "empty",
			shares: nil,
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shareIDs(DeduplicateByTaxID(tt.shares)))
		})
	}
}

func TestNewShareToken(t *testing.T) {
	a, err := NewShareToken()
	require.NoError(t, err)
	b, err := NewShareToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	raw, err := base64.RawURLEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}

type shareMocks struct {
	shares    *repoMocks.MockShareRepository
	companies *repoMocks.MockCompanyRepository
	documents *repoMocks.MockDocumentRepository
	store     *storeMocks.MockStorage
}

func newTestShareService() (*shareService, shareMocks) {
	m := shareMocks{
		shares:    new(repoMocks.MockShareRepository),
		companies: new(repoMocks.MockCompanyRepository),
		documents: new(repoMocks.MockDocumentRepository),
		store:     new(storeMocks.MockStorage),
	}
	svc := NewShareService(m.shares, m.companies, m.documents, m.store, nil, 0).(*shareService)
	svc.now = func() time.Time { return fixedNow }
	svc.newToken = func() (string, error) { return "token-1", nil }
	return svc, m
}

func TestShareService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, m := newTestShareService()
		m.companies.On("FindByID", ctx, "c-1").Return(&model.Company{ID: "c-1"}, nil)
		m.shares.On("Create", ctx, mock.MatchedBy(func(s *model.Share) bool {
			return s.CompanyID == "c-1" &&
				s.RecipientEmail == "buyer@example.com" &&
				s.Token == "token-1" &&
				s.CreatedBy == "user-1" &&
				s.CreatedAt.Equal(fixedNow) &&
				s.ID != ""
		})).Return(&model.Share{ID: "s-1", Token: "token-1"}, nil)

		share, err := svc.Create(ctx, CreateShareInput{CompanyID: "c-1", RecipientEmail: " Buyer@Example.com ", CreatedBy: "user-1"})

		require.NoError(t, err)
		assert.Equal(t, "token-1", share.Token)
		m.shares.AssertExpectations(t)
	})

	t.Run("invalid email", func(t *testing.T) {
		svc, _ := newTestShareService()
		_, err := svc.Create(ctx, CreateShareInput{CompanyID: "c-1", RecipientEmail: "nobody"})
		assert.True(t, errors.Is(err, apperr.ErrValidation))
	})

	t.Run("unknown company", func(t *testing.T) {
		svc, m := newTestShareService()
		m.companies.On("FindByID", ctx, "c-9").Return(nil, sql.ErrNoRows)

		_, err := svc.Create(ctx, CreateShareInput{CompanyID: "c-9", RecipientEmail: "a@b.c"})

		assert.True(t, errors.Is(err, apperr.ErrNotFound))
		m.shares.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestShareService_ListReceived(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestShareService()
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(24 * time.Hour)

	m.shares.On("ListByRecipient", ctx, "buyer@example.com").Return([]model.ReceivedShare{
		received("s-2", "c-2", "12345678901234", t2),
		received("s-1", "c-1", "12345678901234", t1),
	}, nil)

	out, err := svc.ListReceived(ctx, "buyer@example.com")

	require.NoError(t, err)
	assert.Equal(t, []string{"s-2"}, shareIDs(out))

	_, err = svc.ListReceived(ctx, "")
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestShareService_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("lists public documents only", func(t *testing.T) {
		svc, m := newTestShareService()
		m.shares.On("FindByToken", ctx, "tok").Return(&model.ReceivedShare{Share: model.Share{ID: "s-1", CompanyID: "c-1"}}, nil)
		m.companies.On("FindByID", ctx, "c-1").Return(&model.Company{ID: "c-1", Name: "Acme"}, nil)
		m.documents.On("List", ctx, repository.DocumentQuery{
			CompanyID:  "c-1",
			PublicOnly: true,
			SortField:  repository.SortByCreatedAt,
			SortDesc:   true,
			PageQuery:  repository.PageQuery{Limit: MaxListLimit},
		}).Return(&repository.PageResult[model.Document]{
			Items: []model.Document{{ID: "d-1", IsPublic: true}},
			Total: 1,
		}, nil)

		profile, err := svc.Resolve(ctx, "tok")

		require.NoError(t, err)
		assert.Equal(t, "Acme", profile.Company.Name)
		assert.Len(t, profile.Documents, 1)
	})

	t.Run("pages past the list limit", func(t *testing.T) {
		svc, m := newTestShareService()
		m.shares.On("FindByToken", ctx, "tok").Return(&model.ReceivedShare{Share: model.Share{ID: "s-1", CompanyID: "c-1"}}, nil)
		m.companies.On("FindByID", ctx, "c-1").Return(&model.Company{ID: "c-1", Name: "Acme"}, nil)

		const total = MaxListLimit + 30
		all := make([]model.Document, total)
		for i := range all {
			all[i] = model.Document{ID: fmt.Sprintf("d-%03d", i), CompanyID: "c-1", IsPublic: true}
		}
		page := func(offset int) repository.DocumentQuery {
			return repository.DocumentQuery{
				CompanyID:  "c-1",
				PublicOnly: true,
				SortField:  repository.SortByCreatedAt,
				SortDesc:   true,
				PageQuery:  repository.PageQuery{Limit: MaxListLimit, Offset: offset},
			}
		}
		m.documents.On("List", ctx, page(0)).
			Return(&repository.PageResult[model.Document]{Items: all[:MaxListLimit], Total: total}, nil).Once()
		m.documents.On("List", ctx, page(MaxListLimit)).
			Return(&repository.PageResult[model.Document]{Items: all[MaxListLimit:], Total: total}, nil).Once()

		profile, err := svc.Resolve(ctx, "tok")

		require.NoError(t, err)
		require.Len(t, profile.Documents, total)
		assert.Equal(t, "d-000", profile.Documents[0].ID)
		assert.Equal(t, fmt.Sprintf("d-%03d", total-1), profile.Documents[total-1].ID)
		m.documents.AssertExpectations(t)
	})

	t.Run("unknown token", func(t *testing.T) {
		svc, m := newTestShareService()
		m.shares.On("FindByToken", ctx, "bad").Return(nil, sql.ErrNoRows)

		_, err := svc.Resolve(ctx, "bad")

		assert.True(t, errors.Is(err, apperr.ErrNotFound))
		assert.Equal(t, "share not found", apperr.Message(err))
	})
}

func TestShareService_SignedURL(t *testing.T) {
	ctx := context.Background()
	share := &model.ReceivedShare{Share: model.Share{ID: "s-1", CompanyID: "c-1"}}

	t.Run("public document of the shared company", func(t *testing.T) {
		svc, m := newTestShareService()
		doc := &model.Document{ID: "d-1", CompanyID: "c-1", IsPublic: true, FilePath: "p/d-1.pdf", Name: "d-1.pdf"}
		m.shares.On("FindByToken", ctx, "tok").Return(share, nil)
		m.documents.On("FindByID", ctx, "d-1").Return(doc, nil)
		m.store.On("Stat", ctx, "p/d-1.pdf").Return(storage.ObjectInfo{Key: "p/d-1.pdf"}, nil)
		m.store.On("PresignGet", ctx, "p/d-1.pdf", DefaultSignedURLExpiry, storage.PresignOptions{}).
			Return("https://signed", nil)

		res, err := svc.SignedURL(ctx, "tok", "d-1", false)

		require.NoError(t, err)
		assert.Equal(t, "https://signed", res.URL)
		assert.Equal(t, fixedNow.Add(DefaultSignedURLExpiry), res.ExpiresAt)
	})

	for name, doc := range map[string]*model.Document{
		"private document":       {ID: "d-2", CompanyID: "c-1", IsPublic: false},
		"other company document": {ID: "d-2", CompanyID: "c-2", IsPublic: true},
	} {
		t.Run(name, func(t *testing.T) {
			svc, m := newTestShareService()
			m.shares.On("FindByToken", ctx, "tok").Return(share, nil)
			m.documents.On("FindByID", ctx, "d-2").Return(doc, nil)

			_, err := svc.SignedURL(ctx, "tok", "d-2", true)

			assert.True(t, errors.Is(err, apperr.ErrNotFound))
			m.store.AssertNotCalled(t, "Stat", mock.Anything, mock.Anything)
		})
	}
}

func TestShareService_Revoke(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, m := newTestShareService()
		m.shares.On("FindByID", ctx, "s-1").Return(&model.Share{ID: "s-1"}, nil)
		m.shares.On("Delete", ctx, "s-1").Return(nil)

		assert.NoError(t, svc.Revoke(ctx, "s-1"))
		m.shares.AssertExpectations(t)
	})

	t.Run("missing", func(t *testing.T) {
		svc, m := newTestShareService()
		m.shares.On("FindByID", ctx, "s-9").Return(nil, sql.ErrNoRows)

		err := svc.Revoke(ctx, "s-9")

		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})
}
