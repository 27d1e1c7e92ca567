package repository

import (
	"context"

	"docstore/internal/model"
)

// FileRepository is the insert-only catalog of stored files.
// No business logic here, strictly persistence operations.
type FileRepository interface {
	// Create inserts a new catalog row and returns the stored record.
	// It returns ErrConflict when a row with the same fingerprint already exists.
	Create(ctx context.Context, f *model.StoredFile) (*model.StoredFile, error)

	// FindByID returns the row with the given ID or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.StoredFile, error)

	// FindByFingerprint returns the row with the given fingerprint or ErrNotFound.
	FindByFingerprint(ctx context.Context, fingerprint string) (*model.StoredFile, error)
}
