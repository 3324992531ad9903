package repository

import (
	"context"

	"companydocs/internal/model"
)

// CompanyRepository stores the company records documents and shares hang off.
type CompanyRepository interface {
	Create(ctx context.Context, c *model.Company) (*model.Company, error)
	FindByID(ctx context.Context, id string) (*model.Company, error)
}
