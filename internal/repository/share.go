package repository

import (
	"context"

	"companydocs/internal/model"
)

// ShareRepository stores tokenized company shares.
type ShareRepository interface {
	Create(ctx context.Context, s *model.Share) (*model.Share, error)
	FindByID(ctx context.Context, id string) (*model.Share, error)
	// FindByToken returns the share with its company fields, or sql.ErrNoRows.
	FindByToken(ctx context.Context, token string) (*model.ReceivedShare, error)
	// ListByRecipient returns every share sent to email (case-insensitive), newest first.
	ListByRecipient(ctx context.Context, email string) ([]model.ReceivedShare, error)
	Delete(ctx context.Context, id string) error
}
