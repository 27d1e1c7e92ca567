package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docstore/internal/metrics"
	"docstore/internal/model"
	"docstore/internal/repository"
	"docstore/internal/textstats"
)

// NotTextMessage is recorded on results for files that cannot be analyzed.
const NotTextMessage = "File is not a text file and cannot be analyzed"

// ContentSource is the content store as seen from the analysis service.
// Implementations return ErrNotFound for unknown ids and an *UpstreamError
// when the store cannot be reached.
type ContentSource interface {
	FetchMetadata(ctx context.Context, id string) (*model.FileMetadata, error)
	FetchBytes(ctx context.Context, id string) ([]byte, error)
}

// AnalysisService computes text statistics for stored files and caches them.
type AnalysisService interface {
	// GetOrCompute returns the cached analysis of subjectID, computing and
	// persisting it first if none exists. Files that are not text yield a
	// result with IsError set, which is cached like any other result.
	GetOrCompute(ctx context.Context, subjectID string) (*model.AnalysisResult, error)
}

// AnalysisOption customizes an analysis service.
type AnalysisOption func(*analysisService)

// WithAnalysisLogger sets the logger used for cache and fetch events.
func WithAnalysisLogger(log *zap.Logger) AnalysisOption {
	return func(s *analysisService) { s.log = log }
}

// WithAnalysisMetrics records analysis outcomes.
func WithAnalysisMetrics(m *metrics.Recorder) AnalysisOption {
	return func(s *analysisService) { s.metrics = m }
}

type analysisService struct {
	repo    repository.AnalysisRepository
	source  ContentSource
	log     *zap.Logger
	metrics *metrics.Recorder
	now     func() time.Time
	newID   func() string
}

// NewAnalysisService constructs a new AnalysisService.
func NewAnalysisService(repo repository.AnalysisRepository, source ContentSource, opts ...AnalysisOption) AnalysisService {
	s := &analysisService{
		repo:   repo,
		source: source,
		log:    zap.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *analysisService) GetOrCompute(ctx context.Context, subjectID string) (*model.AnalysisResult, error) {
	res, outcome, err := s.getOrCompute(ctx, subjectID)
	if err != nil {
		s.metrics.AnalysisServed(metrics.AnalysisFailed)
		return nil, err
	}
	s.metrics.AnalysisServed(outcome)
	return res, nil
}

func (s *analysisService) getOrCompute(ctx context.Context, subjectID string) (*model.AnalysisResult, string, error) {
	if subjectID == "" {
		return nil, "", ErrIDRequired
	}
	parsed, err := uuid.Parse(subjectID)
	if err != nil {
		return nil, "", ErrNotFound
	}
	subjectID = parsed.String()

	cached, err := s.repo.FindLatestBySubject(ctx, subjectID)
	if err == nil {
		s.log.Debug("analysis_cache_hit", zap.String("file_id", subjectID))
		return cached, metrics.AnalysisCached, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", fmt.Errorf("lookup analysis: %w", err)
	}

	md, err := s.source.FetchMetadata(ctx, subjectID)
	if err != nil {
		return nil, "", fmt.Errorf("fetch metadata: %w", err)
	}

	if !textstats.IsAnalyzable(md.ContentType, md.FileName) {
		s.log.Info("analysis_ineligible",
			zap.String("file_id", subjectID),
			zap.String("content_type", md.ContentType),
		)
		res, err := s.persist(ctx, &model.AnalysisResult{
			SubjectID:    subjectID,
			FileName:     md.FileName,
			IsError:      true,
			ErrorMessage: NotTextMessage,
		})
		return res, metrics.AnalysisIneligible, err
	}

	data, err := s.source.FetchBytes(ctx, subjectID)
	if err != nil {
		return nil, "", fmt.Errorf("fetch bytes: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, "", fmt.Errorf("%w: %s", ErrInvalidEncoding, subjectID)
	}

	counts := textstats.Analyze(string(data))
	res, err := s.persist(ctx, &model.AnalysisResult{
		SubjectID:      subjectID,
		FileName:       md.FileName,
		ParagraphCount: counts.Paragraphs,
		WordCount:      counts.Words,
		CharacterCount: counts.Characters,
	})
	if err != nil {
		return nil, "", err
	}
	s.log.Info("analysis_computed",
		zap.String("file_id", subjectID),
		zap.Int("paragraphs", counts.Paragraphs),
		zap.Int("words", counts.Words),
		zap.Int("characters", counts.Characters),
	)
	return res, metrics.AnalysisComputed, nil
}

func (s *analysisService) persist(ctx context.Context, a *model.AnalysisResult) (*model.AnalysisResult, error) {
	a.ID = s.newID()
	a.CreatedAt = s.now().UTC()
	stored, err := s.repo.Create(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}
	return stored, nil
}
