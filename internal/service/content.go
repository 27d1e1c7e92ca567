package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docstore/internal/contenttype"
	"docstore/internal/fingerprint"
	"docstore/internal/metrics"
	"docstore/internal/model"
	"docstore/internal/repository"
	"docstore/internal/storage"
)

// StoreResult is returned by ContentService.Store.
type StoreResult struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	IsNew    bool   `json:"is_new"`
}

// ContentService is the deduplicating content store.
type ContentService interface {
	// Store persists data once per distinct content. Storing bytes that are
	// already in the catalog returns the existing ID with IsNew=false,
	// whatever fileName is given.
	Store(ctx context.Context, data []byte, fileName string) (*StoreResult, error)

	// Retrieve returns the metadata and bytes of a stored file.
	Retrieve(ctx context.Context, id string) (*model.FileContent, error)

	// Metadata returns catalog metadata without reading the bytes.
	Metadata(ctx context.Context, id string) (*model.FileMetadata, error)
}

// ContentOption customizes a content service.
type ContentOption func(*contentService)

// WithFingerprint overrides the default MD5 fingerprint.
func WithFingerprint(fn fingerprint.Func) ContentOption {
	return func(s *contentService) { s.fingerprint = fn }
}

// WithContentLogger sets the logger used for dedup and consistency events.
func WithContentLogger(log *zap.Logger) ContentOption {
	return func(s *contentService) { s.log = log }
}

// WithContentMetrics records store outcomes.
func WithContentMetrics(m *metrics.Recorder) ContentOption {
	return func(s *contentService) { s.metrics = m }
}

type contentService struct {
	store       storage.Storage
	repo        repository.FileRepository
	fingerprint fingerprint.Func
	log         *zap.Logger
	metrics     *metrics.Recorder
	now         func() time.Time
	newID       func() string
}

// NewContentService constructs a new ContentService.
func NewContentService(store storage.Storage, repo repository.FileRepository, opts ...ContentOption) ContentService {
	s := &contentService{
		store:       store,
		repo:        repo,
		fingerprint: fingerprint.MD5Hex,
		log:         zap.NewNop(),
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ObjectKey is the storage key for a file ID. It never depends on the uploaded file name.
func ObjectKey(id string) string {
	return "files/" + id
}

func (s *contentService) Store(ctx context.Context, data []byte, fileName string) (*StoreResult, error) {
	fp := s.fingerprint(data)

	existing, err := s.repo.FindByFingerprint(ctx, fp)
	switch {
	case err == nil:
		s.log.Info("file_deduplicated",
			zap.String("file_id", existing.ID),
			zap.String("fingerprint", fp),
		)
		s.metrics.FileStored(metrics.StoreDuplicate)
		return &StoreResult{ID: existing.ID, FileName: existing.FileName, IsNew: false}, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("lookup fingerprint: %w", err)
	}

	id := s.newID()
	key := ObjectKey(id)

	if _, err := s.store.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: contenttype.FromFileName(fileName),
		Metadata:    map[string]string{"file-id": id},
	}); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	row := &model.StoredFile{
		ID:          id,
		FileName:    fileName,
		Fingerprint: fp,
		Location:    key,
		Size:        int64(len(data)),
		CreatedAt:   s.now().UTC(),
	}
	stored, err := s.repo.Create(ctx, row)
	if errors.Is(err, repository.ErrConflict) {
		// A concurrent Store of the same content won the insert.
		winner, ferr := s.repo.FindByFingerprint(ctx, fp)
		if ferr != nil {
			return nil, fmt.Errorf("resolve fingerprint conflict: %w", ferr)
		}
		s.log.Warn("file_store_conflict",
			zap.String("file_id", winner.ID),
			zap.String("orphan_key", key),
			zap.String("fingerprint", fp),
		)
		s.metrics.FileStored(metrics.StoreConflict)
		return &StoreResult{ID: winner.ID, FileName: winner.FileName, IsNew: false}, nil
	}
	if err != nil {
		s.log.Error("file_catalog_insert_failed",
			zap.String("orphan_key", key),
			zap.Error(err),
		)
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	s.log.Info("file_stored",
		zap.String("file_id", stored.ID),
		zap.Int64("size", stored.Size),
	)
	s.metrics.FileStored(metrics.StoreNew)
	return &StoreResult{ID: stored.ID, FileName: stored.FileName, IsNew: true}, nil
}

func (s *contentService) Retrieve(ctx context.Context, id string) (*model.FileContent, error) {
	f, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	rc, _, err := s.store.Get(ctx, f.Location)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.log.Error("file_missing_from_storage",
				zap.String("file_id", f.ID),
				zap.String("location", f.Location),
			)
			return nil, fmt.Errorf("%w: content of %s is missing from storage", ErrNotFound, f.ID)
		}
		return nil, fmt.Errorf("read storage: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read storage: %w", err)
	}

	return &model.FileContent{FileMetadata: metadataOf(f), Data: data}, nil
}

func (s *contentService) Metadata(ctx context.Context, id string) (*model.FileMetadata, error) {
	f, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	md := metadataOf(f)
	return &md, nil
}

// lookup resolves id to its catalog row. Ids that are not UUIDs cannot exist in the catalog.
func (s *contentService) lookup(ctx context.Context, id string) (*model.StoredFile, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	f, err := s.repo.FindByID(ctx, parsed.String())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func metadataOf(f *model.StoredFile) model.FileMetadata {
	return model.FileMetadata{
		ID:          f.ID,
		FileName:    f.FileName,
		ContentType: contenttype.FromFileName(f.FileName),
		Size:        f.Size,
		CreatedAt:   f.CreatedAt,
	}
}
