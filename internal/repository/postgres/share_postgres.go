package postgres

import (
	"context"
	"database/sql"

	"companydocs/internal/model"
	"companydocs/internal/repository"
)

// SharePostgres is a PostgreSQL implementation of repository.ShareRepository.
type SharePostgres struct {
	db *sql.DB
}

// NewSharePostgres creates a new SharePostgres repository.
func NewSharePostgres(db *sql.DB) *SharePostgres {
	return &SharePostgres{db: db}
}

var _ repository.ShareRepository = (*SharePostgres)(nil)

const receivedShareSelect = `
		SELECT s.id, s.company_id, s.recipient_email, s.token, s.created_by, s.created_at,
			c.name, COALESCE(c.tax_id, '')
		FROM company_shares s
		JOIN companies c ON c.id = s.company_id
`

// Create inserts a share row.
func (r *SharePostgres) Create(ctx context.Context, s *model.Share) (*model.Share, error) {
	const q = `
		INSERT INTO company_shares (id, company_id, recipient_email, token, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, company_id, recipient_email, token, created_by, created_at
	`
	var out model.Share
	if err := r.db.QueryRowContext(ctx, q,
		s.ID,
		s.CompanyID,
		s.RecipientEmail,
		s.Token,
		s.CreatedBy,
		s.CreatedAt,
	).Scan(
		&out.ID,
		&out.CompanyID,
		&out.RecipientEmail,
		&out.Token,
		&out.CreatedBy,
		&out.CreatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// FindByID fetches a share without company fields.
func (r *SharePostgres) FindByID(ctx context.Context, id string) (*model.Share, error) {
	const q = `
		SELECT id, company_id, recipient_email, token, created_by, created_at
		FROM company_shares WHERE id = $1
	`
	var s model.Share
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID,
		&s.CompanyID,
		&s.RecipientEmail,
		&s.Token,
		&s.CreatedBy,
		&s.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanReceivedShare(row rowScanner) (*model.ReceivedShare, error) {
	var s model.ReceivedShare
	if err := row.Scan(
		&s.ID,
		&s.CompanyID,
		&s.RecipientEmail,
		&s.Token,
		&s.CreatedBy,
		&s.CreatedAt,
		&s.CompanyName,
		&s.CompanyTaxID,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// FindByToken resolves a shared link token.
func (r *SharePostgres) FindByToken(ctx context.Context, token string) (*model.ReceivedShare, error) {
	return scanReceivedShare(r.db.QueryRowContext(ctx, receivedShareSelect+` WHERE s.token = $1`, token))
}

// ListByRecipient returns the shares addressed to email, newest first.
func (r *SharePostgres) ListByRecipient(ctx context.Context, email string) ([]model.ReceivedShare, error) {
	q := receivedShareSelect + ` WHERE lower(s.recipient_email) = lower($1) ORDER BY s.created_at DESC, s.id DESC`
	rows, err := r.db.QueryContext(ctx, q, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.ReceivedShare, 0)
	for rows.Next() {
		s, err := scanReceivedShare(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a share. Missing rows are not an error.
func (r *SharePostgres) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM company_shares WHERE id = $1`, id)
	return err
}
