package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docstore/internal/model"
)

type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) Create(ctx context.Context, f *model.StoredFile) (*model.StoredFile, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoredFile), args.Error(1)
}

func (m *MockFileRepository) FindByID(ctx context.Context, id string) (*model.StoredFile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoredFile), args.Error(1)
}

func (m *MockFileRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*model.StoredFile, error) {
	args := m.Called(ctx, fingerprint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoredFile), args.Error(1)
}
