package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"companydocs/internal/apperr"
	"companydocs/internal/model"
	"companydocs/internal/repository"
	"companydocs/internal/storage"
)

const shareTokenBytes = 32

// CreateShareInput shares a company profile with an external email address.
type CreateShareInput struct {
	CompanyID      string
	RecipientEmail string
	CreatedBy      string
}

// SharedProfile is what a share link exposes: the company and its public documents.
type SharedProfile struct {
	Company   model.Company    `json:"company"`
	Documents []model.Document `json:"documents"`
}

// ShareService manages tokenized company shares.
type ShareService interface {
	Create(ctx context.Context, in CreateShareInput) (*model.Share, error)
	// ListReceived returns the shares addressed to email, one per company tax id.
	ListReceived(ctx context.Context, email string) ([]model.ReceivedShare, error)
	// Resolve opens a share link.
	Resolve(ctx context.Context, token string) (*SharedProfile, error)
	// SignedURL signs a public document of the shared company.
	SignedURL(ctx context.Context, token, documentID string, download bool) (*SignedURL, error)
	Revoke(ctx context.Context, id string) error
}

type shareService struct {
	shares    repository.ShareRepository
	companies repository.CompanyRepository
	documents repository.DocumentRepository
	store     storage.Storage
	log       *zap.Logger

	expiry   time.Duration
	now      func() time.Time
	newToken func() (string, error)
}

// NewShareService constructs a new ShareService. A non-positive expiry selects
// DefaultSignedURLExpiry.
func NewShareService(
	shares repository.ShareRepository,
	companies repository.CompanyRepository,
	documents repository.DocumentRepository,
	store storage.Storage,
	log *zap.Logger,
	expiry time.Duration,
) ShareService {
	if log == nil {
		log = zap.NewNop()
	}
	if expiry <= 0 {
		expiry = DefaultSignedURLExpiry
	}
	return &shareService{
		shares:    shares,
		companies: companies,
		documents: documents,
		store:     store,
		log:       log,
		expiry:    expiry,
		now:       time.Now,
		newToken:  NewShareToken,
	}
}

// NewShareToken returns 32 random bytes encoded as unpadded URL-safe base64.
func NewShareToken() (string, error) {
	b := make([]byte, shareTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "generate share token")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *shareService) Create(ctx context.Context, in CreateShareInput) (*model.Share, error) {
	email := strings.ToLower(strings.TrimSpace(in.RecipientEmail))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Validation("a valid recipient email is required")
	}
	if in.CompanyID == "" {
		return nil, apperr.Validation("company id is required")
	}
	if _, err := s.companies.FindByID(ctx, in.CompanyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("company")
		}
		return nil, errors.Wrap(err, "load company")
	}

	token, err := s.newToken()
	if err != nil {
		return nil, err
	}
	share, err := s.shares.Create(ctx, &model.Share{
		ID:             uuid.NewString(),
		CompanyID:      in.CompanyID,
		RecipientEmail: email,
		Token:          token,
		CreatedBy:      in.CreatedBy,
		CreatedAt:      s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, apperr.NotFound("company")
		}
		return nil, errors.Wrap(err, "create share")
	}

	s.log.Info("company shared",
		zap.String("share_id", share.ID),
		zap.String("company_id", share.CompanyID),
	)
	return share, nil
}

func (s *shareService) ListReceived(ctx context.Context, email string) ([]model.ReceivedShare, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperr.Unauthorized("the caller has no email address")
	}
	shares, err := s.shares.ListByRecipient(ctx, email)
	if err != nil {
		return nil, errors.Wrap(err, "list received shares")
	}
	return DeduplicateByTaxID(shares), nil
}

// DeduplicateByTaxID keeps the most recently created share per company tax id.
// Equal timestamps are broken by the greater share ID so the result does not
// depend on input order. Shares of companies without a tax id are grouped by
// company instead. The result is sorted newest first.
func DeduplicateByTaxID(shares []model.ReceivedShare) []model.ReceivedShare {
	groups := lo.GroupBy(shares, func(s model.ReceivedShare) string {
		if taxID := NormalizeTaxID(s.CompanyTaxID); taxID != "" {
			return "tax:" + taxID
		}
		return "company:" + s.CompanyID
	})

	out := make([]model.ReceivedShare, 0, len(groups))
	for _, group := range groups {
		out = append(out, lo.MaxBy(group, newerShare))
	}
	sort.Slice(out, func(i, j int) bool {
		return newerShare(out[i], out[j])
	})
	return out
}

func newerShare(a, b model.ReceivedShare) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func (s *shareService) resolveShare(ctx context.Context, token string) (*model.ReceivedShare, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperr.NotFound("share")
	}
	share, err := s.shares.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("share")
		}
		return nil, errors.Wrap(err, "load share")
	}
	return share, nil
}

func (s *shareService) Resolve(ctx context.Context, token string) (*SharedProfile, error) {
	share, err := s.resolveShare(ctx, token)
	if err != nil {
		return nil, err
	}
	company, err := s.companies.FindByID(ctx, share.CompanyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("company")
		}
		return nil, errors.Wrap(err, "load company")
	}
	docs, err := s.publicDocuments(ctx, share.CompanyID)
	if err != nil {
		return nil, err
	}
	return &SharedProfile{Company: *company, Documents: docs}, nil
}

// publicDocuments pages through every public document of a company, newest first.
func (s *shareService) publicDocuments(ctx context.Context, companyID string) ([]model.Document, error) {
	q := repository.DocumentQuery{
		CompanyID:  companyID,
		PublicOnly: true,
		SortField:  repository.SortByCreatedAt,
		SortDesc:   true,
		PageQuery:  repository.PageQuery{Limit: MaxListLimit},
	}
	docs := make([]model.Document, 0)
	for {
		res, err := s.documents.List(ctx, q)
		if err != nil {
			return nil, errors.Wrap(err, "list shared documents")
		}
		docs = append(docs, res.Items...)
		if len(res.Items) == 0 || len(docs) >= res.Total {
			return docs, nil
		}
		q.Offset += len(res.Items)
	}
}

func (s *shareService) SignedURL(ctx context.Context, token, documentID string, download bool) (*SignedURL, error) {
	share, err := s.resolveShare(ctx, token)
	if err != nil {
		return nil, err
	}
	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("document")
		}
		return nil, errors.Wrap(err, "load document")
	}
	// Private documents and documents of other companies look missing.
	if doc.CompanyID != share.CompanyID || !doc.IsPublic {
		return nil, apperr.NotFound("document")
	}
	return signDocument(ctx, s.store, doc, download, s.expiry, s.now)
}

func (s *shareService) Revoke(ctx context.Context, id string) error {
	if id == "" {
		return apperr.Validation("share id is required")
	}
	if _, err := s.shares.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("share")
		}
		return errors.Wrap(err, "load share")
	}
	if err := s.shares.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "delete share")
	}
	return nil
}
