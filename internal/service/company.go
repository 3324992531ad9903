package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"companydocs/internal/apperr"
	"companydocs/internal/model"
	"companydocs/internal/repository"
)

// CreateCompanyInput is the payload for registering a company.
type CreateCompanyInput struct {
	Name    string
	TaxID   string
	OwnerID string
}

// CompanyService manages the companies documents are attached to.
type CompanyService interface {
	Create(ctx context.Context, in CreateCompanyInput) (*model.Company, error)
	Get(ctx context.Context, id string) (*model.Company, error)
}

type companyService struct {
	repo repository.CompanyRepository
}

// NewCompanyService constructs a new CompanyService.
func NewCompanyService(repo repository.CompanyRepository) CompanyService {
	return &companyService{repo: repo}
}

func (s *companyService) Create(ctx context.Context, in CreateCompanyInput) (*model.Company, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("company name is required")
	}
	if in.OwnerID == "" {
		return nil, apperr.Unauthorized("an authenticated owner is required")
	}

	c, err := s.repo.Create(ctx, &model.Company{
		ID:        uuid.NewString(),
		Name:      name,
		TaxID:     NormalizeTaxID(in.TaxID),
		OwnerID:   in.OwnerID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create company")
	}
	return c, nil
}

func (s *companyService) Get(ctx context.Context, id string) (*model.Company, error) {
	if id == "" {
		return nil, apperr.Validation("company id is required")
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("company")
		}
		return nil, errors.Wrap(err, "load company")
	}
	return c, nil
}

// NormalizeTaxID strips the spaces and dots commonly typed inside registration
// numbers ("123 456 789 00012" and "123456789.00012" are the same identifier).
func NormalizeTaxID(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '.', '\t', '-':
			return -1
		}
		return r
	}, strings.ToUpper(strings.TrimSpace(s)))
}
