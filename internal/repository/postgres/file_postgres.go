package postgres

import (
	"context"
	"database/sql"

	"docstore/internal/model"
	"docstore/internal/repository"
)

// FilePostgres is a PostgreSQL implementation of repository.FileRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type FilePostgres struct {
	db *sql.DB
}

// NewFilePostgres creates a new FilePostgres repository.
func NewFilePostgres(db *sql.DB) *FilePostgres {
	return &FilePostgres{db: db}
}

var _ repository.FileRepository = (*FilePostgres)(nil)

// Create inserts a new stored_files row and returns the stored record.
// A duplicate fingerprint surfaces as repository.ErrConflict.
func (r *FilePostgres) Create(ctx context.Context, f *model.StoredFile) (*model.StoredFile, error) {
	const q = `
		INSERT INTO stored_files (id, file_name, fingerprint, location, size, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, file_name, fingerprint, location, size, created_at
	`
	row := r.db.QueryRowContext(ctx, q,
		f.ID,
		f.FileName,
		f.Fingerprint,
		f.Location,
		f.Size,
		f.CreatedAt,
	)
	out, err := scanStoredFile(row)
	if err != nil {
		return nil, translateError(err)
	}
	return out, nil
}

// FindByID fetches a single stored file by its ID.
func (r *FilePostgres) FindByID(ctx context.Context, id string) (*model.StoredFile, error) {
	const q = `
		SELECT id, file_name, fingerprint, location, size, created_at
		FROM stored_files
		WHERE id = $1
	`
	out, err := scanStoredFile(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, translateError(err)
	}
	return out, nil
}

// FindByFingerprint fetches the stored file holding the given content fingerprint.
func (r *FilePostgres) FindByFingerprint(ctx context.Context, fingerprint string) (*model.StoredFile, error) {
	const q = `
		SELECT id, file_name, fingerprint, location, size, created_at
		FROM stored_files
		WHERE fingerprint = $1
	`
	out, err := scanStoredFile(r.db.QueryRowContext(ctx, q, fingerprint))
	if err != nil {
		return nil, translateError(err)
	}
	return out, nil
}

func scanStoredFile(row *sql.Row) (*model.StoredFile, error) {
	var f model.StoredFile
	if err := row.Scan(
		&f.ID,
		&f.FileName,
		&f.Fingerprint,
		&f.Location,
		&f.Size,
		&f.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}
