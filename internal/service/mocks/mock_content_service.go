package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docstore/internal/model"
	"docstore/internal/service"
)

type MockContentService struct {
	mock.Mock
}

func (m *MockContentService) Store(ctx context.Context, data []byte, fileName string) (*service.StoreResult, error) {
	args := m.Called(ctx, data, fileName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StoreResult), args.Error(1)
}

func (m *MockContentService) Retrieve(ctx context.Context, id string) (*model.FileContent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileContent), args.Error(1)
}

func (m *MockContentService) Metadata(ctx context.Context, id string) (*model.FileMetadata, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileMetadata), args.Error(1)
}
