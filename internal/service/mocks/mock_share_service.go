package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"companydocs/internal/model"
	"companydocs/internal/service"
)

type MockShareService struct {
	mock.Mock
}

func (m *MockShareService) Create(ctx context.Context, in service.CreateShareInput) (*model.Share, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Share), args.Error(1)
}

func (m *MockShareService) ListReceived(ctx context.Context, email string) ([]model.ReceivedShare, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReceivedShare), args.Error(1)
}

func (m *MockShareService) Resolve(ctx context.Context, token string) (*service.SharedProfile, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SharedProfile), args.Error(1)
}

func (m *MockShareService) SignedURL(ctx context.Context, token, documentID string, download bool) (*service.SignedURL, error) {
	args := m.Called(ctx, token, documentID, download)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SignedURL), args.Error(1)
}

func (m *MockShareService) Revoke(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
