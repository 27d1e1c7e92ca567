package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docstore/internal/model"
)

type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) GetOrCompute(ctx context.Context, subjectID string) (*model.AnalysisResult, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AnalysisResult), args.Error(1)
}

type MockContentSource struct {
	mock.Mock
}

func (m *MockContentSource) FetchMetadata(ctx context.Context, id string) (*model.FileMetadata, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileMetadata), args.Error(1)
}

func (m *MockContentSource) FetchBytes(ctx context.Context, id string) ([]byte, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
