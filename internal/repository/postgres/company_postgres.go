package postgres

import (
	"context"
	"database/sql"

	"companydocs/internal/model"
	"companydocs/internal/repository"
)

// CompanyPostgres is a PostgreSQL implementation of repository.CompanyRepository.
type CompanyPostgres struct {
	db *sql.DB
}

// NewCompanyPostgres creates a new CompanyPostgres repository.
func NewCompanyPostgres(db *sql.DB) *CompanyPostgres {
	return &CompanyPostgres{db: db}
}

var _ repository.CompanyRepository = (*CompanyPostgres)(nil)

// Create inserts a company row.
func (r *CompanyPostgres) Create(ctx context.Context, c *model.Company) (*model.Company, error) {
	const q = `
		INSERT INTO companies (id, name, tax_id, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, COALESCE(tax_id, ''), owner_id, created_at
	`
	var taxID sql.NullString
	if c.TaxID != "" {
		taxID = sql.NullString{String: c.TaxID, Valid: true}
	}
	var out model.Company
	if err := r.db.QueryRowContext(ctx, q, c.ID, c.Name, taxID, c.OwnerID, c.CreatedAt).Scan(
		&out.ID,
		&out.Name,
		&out.TaxID,
		&out.OwnerID,
		&out.CreatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// FindByID fetches a company by ID.
func (r *CompanyPostgres) FindByID(ctx context.Context, id string) (*model.Company, error) {
	const q = `SELECT id, name, COALESCE(tax_id, ''), owner_id, created_at FROM companies WHERE id = $1`
	var c model.Company
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&c.ID,
		&c.Name,
		&c.TaxID,
		&c.OwnerID,
		&c.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
