package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docstore/internal/model"
)

type MockAnalysisRepository struct {
	mock.Mock
}

func (m *MockAnalysisRepository) Create(ctx context.Context, a *model.AnalysisResult) (*model.AnalysisResult, error) {
	args := m.Called(ctx, a)
	if f, ok := args.Get(0).(func(context.Context, *model.AnalysisResult) *model.AnalysisResult); ok {
		return f(ctx, a), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AnalysisResult), args.Error(1)
}

func (m *MockAnalysisRepository) FindLatestBySubject(ctx context.Context, subjectID string) (*model.AnalysisResult, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AnalysisResult), args.Error(1)
}
