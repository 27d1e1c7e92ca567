package postgres

import (
	"context"
	"database/sql"

	"docstore/internal/model"
	"docstore/internal/repository"
)

// AnalysisPostgres is a PostgreSQL implementation of repository.AnalysisRepository.
type AnalysisPostgres struct {
	db *sql.DB
}

// NewAnalysisPostgres creates a new AnalysisPostgres repository.
func NewAnalysisPostgres(db *sql.DB) *AnalysisPostgres {
	return &AnalysisPostgres{db: db}
}

var _ repository.AnalysisRepository = (*AnalysisPostgres)(nil)

// Create inserts a new analysis_results row and returns the stored record.
func (r *AnalysisPostgres) Create(ctx context.Context, a *model.AnalysisResult) (*model.AnalysisResult, error) {
	const q = `
		INSERT INTO analysis_results (id, subject_id, file_name, paragraph_count, word_count, character_count, created_at, is_error, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, subject_id, file_name, paragraph_count, word_count, character_count, created_at, is_error, error_message
	`
	row := r.db.QueryRowContext(ctx, q,
		a.ID,
		a.SubjectID,
		a.FileName,
		a.ParagraphCount,
		a.WordCount,
		a.CharacterCount,
		a.CreatedAt,
		a.IsError,
		nullString(a.ErrorMessage),
	)
	out, err := scanAnalysis(row)
	if err != nil {
		return nil, translateError(err)
	}
	return out, nil
}

// FindLatestBySubject returns the newest analysis row for the subject.
func (r *AnalysisPostgres) FindLatestBySubject(ctx context.Context, subjectID string) (*model.AnalysisResult, error) {
	const q = `
		SELECT id, subject_id, file_name, paragraph_count, word_count, character_count, created_at, is_error, error_message
		FROM analysis_results
		WHERE subject_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	out, err := scanAnalysis(r.db.QueryRowContext(ctx, q, subjectID))
	if err != nil {
		return nil, translateError(err)
	}
	return out, nil
}

func scanAnalysis(row *sql.Row) (*model.AnalysisResult, error) {
	var (
		a      model.AnalysisResult
		errMsg sql.NullString
	)
	if err := row.Scan(
		&a.ID,
		&a.SubjectID,
		&a.FileName,
		&a.ParagraphCount,
		&a.WordCount,
		&a.CharacterCount,
		&a.CreatedAt,
		&a.IsError,
		&errMsg,
	); err != nil {
		return nil, err
	}
	if errMsg.Valid {
		a.ErrorMessage = errMsg.String
	}
	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
