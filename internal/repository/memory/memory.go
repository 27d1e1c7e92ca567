// Package memory provides in-process catalog implementations with the same
// constraints as the Postgres schema. They back tests and single-node runs
// without a database.
package memory

import (
	"context"
	"fmt"
	"sync"

	"docstore/internal/model"
	"docstore/internal/repository"
)

// FileRepository is an in-memory repository.FileRepository.
// Fingerprints are unique, as in the stored_files table.
type FileRepository struct {
	mu            sync.RWMutex
	byID          map[string]model.StoredFile
	byFingerprint map[string]string
}

// NewFileRepository returns an empty catalog.
func NewFileRepository() *FileRepository {
	return &FileRepository{
		byID:          make(map[string]model.StoredFile),
		byFingerprint: make(map[string]string),
	}
}

var _ repository.FileRepository = (*FileRepository)(nil)

func (r *FileRepository) Create(_ context.Context, f *model.StoredFile) (*model.StoredFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byFingerprint[f.Fingerprint]; ok {
		return nil, fmt.Errorf("%w: fingerprint %s", repository.ErrConflict, f.Fingerprint)
	}
	if _, ok := r.byID[f.ID]; ok {
		return nil, fmt.Errorf("%w: id %s", repository.ErrConflict, f.ID)
	}
	r.byID[f.ID] = *f
	r.byFingerprint[f.Fingerprint] = f.ID

	out := *f
	return &out, nil
}

func (r *FileRepository) FindByID(_ context.Context, id string) (*model.StoredFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &f, nil
}

func (r *FileRepository) FindByFingerprint(_ context.Context, fingerprint string) (*model.StoredFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byFingerprint[fingerprint]
	if !ok {
		return nil, repository.ErrNotFound
	}
	f := r.byID[id]
	return &f, nil
}

// Len returns the number of catalog rows. Tests use it to assert what was
// persisted; it is not part of repository.FileRepository.
func (r *FileRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// AnalysisRepository is an in-memory repository.AnalysisRepository.
// Like the analysis_results table it accepts several rows per subject.
type AnalysisRepository struct {
	mu        sync.RWMutex
	bySubject map[string][]model.AnalysisResult
}

// NewAnalysisRepository returns an empty catalog.
func NewAnalysisRepository() *AnalysisRepository {
	return &AnalysisRepository{bySubject: make(map[string][]model.AnalysisResult)}
}

var _ repository.AnalysisRepository = (*AnalysisRepository)(nil)

func (r *AnalysisRepository) Create(_ context.Context, a *model.AnalysisResult) (*model.AnalysisResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.bySubject[a.SubjectID] = append(r.bySubject[a.SubjectID], *a)
	out := *a
	return &out, nil
}

func (r *AnalysisRepository) FindLatestBySubject(_ context.Context, subjectID string) (*model.AnalysisResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := r.bySubject[subjectID]
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}

	latest := rows[0]
	for i := 1; i < len(rows); i++ {
		if repository.Newer(&rows[i], &latest) {
			latest = rows[i]
		}
	}
	return &latest, nil
}

// Count returns the number of rows stored for subjectID. Tests use it to
// assert what was persisted; it is not part of repository.AnalysisRepository.
func (r *AnalysisRepository) Count(subjectID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySubject[subjectID])
}
