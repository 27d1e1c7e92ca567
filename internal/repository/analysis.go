package repository

import (
	"context"

	"docstore/internal/model"
)

// AnalysisRepository is the insert-only catalog of analysis results.
// SubjectID is not unique: concurrent computations may leave several
// equivalent rows for one subject.
type AnalysisRepository interface {
	// Create inserts a result row and returns the stored record.
	Create(ctx context.Context, r *model.AnalysisResult) (*model.AnalysisResult, error)

	// FindLatestBySubject returns the most recent row for subjectID
	// (newest created_at, then highest id) or ErrNotFound.
	FindLatestBySubject(ctx context.Context, subjectID string) (*model.AnalysisResult, error)
}

// Newer reports whether a wins over b under FindLatestBySubject's order:
// later CreatedAt first, then the greater ID.
func Newer(a, b *model.AnalysisResult) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
