// Package cache holds read-through decorators over catalog repositories.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"
	"go.uber.org/zap"

	"docstore/internal/model"
	"docstore/internal/repository"
)

// AnalysisCache keeps recently served analysis results in process memory in
// front of another repository.AnalysisRepository. Rows are immutable once
// written, so a cached entry can only be missing, never stale.
type AnalysisCache struct {
	next  repository.AnalysisRepository
	cache *bigcache.BigCache
	log   *zap.Logger

	mu sync.Mutex // serializes put's read-compare-write
}

var _ repository.AnalysisRepository = (*AnalysisCache)(nil)

// NewAnalysisCache wraps next. Entries expire after ttl; maxMB bounds memory use (0 = unbounded).
func NewAnalysisCache(ctx context.Context, next repository.AnalysisRepository, ttl time.Duration, maxMB int, log *zap.Logger) (*AnalysisCache, error) {
	cfg := bigcache.DefaultConfig(ttl)
	cfg.HardMaxCacheSize = maxMB
	cfg.CleanWindow = ttl / 2
	cfg.Verbose = false

	bc, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create analysis cache: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AnalysisCache{next: next, cache: bc, log: log}, nil
}

// Create persists through the wrapped repository and caches the stored row.
func (c *AnalysisCache) Create(ctx context.Context, a *model.AnalysisResult) (*model.AnalysisResult, error) {
	out, err := c.next.Create(ctx, a)
	if err != nil {
		return nil, err
	}
	c.put(out)
	return out, nil
}

// FindLatestBySubject serves from memory when possible and falls through otherwise.
func (c *AnalysisCache) FindLatestBySubject(ctx context.Context, subjectID string) (*model.AnalysisResult, error) {
	if raw, err := c.cache.Get(subjectID); err == nil {
		var a model.AnalysisResult
		if err := json.Unmarshal(raw, &a); err == nil {
			return &a, nil
		}
		c.log.Warn("analysis_cache_decode_failed", zap.String("subject_id", subjectID))
	} else if !errors.Is(err, bigcache.ErrEntryNotFound) {
		c.log.Warn("analysis_cache_get_failed", zap.String("subject_id", subjectID), zap.Error(err))
	}

	out, err := c.next.FindLatestBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	c.put(out)
	return out, nil
}

// Close releases the cache's background cleaner.
func (c *AnalysisCache) Close() error {
	return c.cache.Close()
}

// put caches a unless the entry already held for its subject is newer, so the
// cache agrees with the catalog when one subject has several rows.
func (c *AnalysisCache) put(a *model.AnalysisResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if raw, err := c.cache.Get(a.SubjectID); err == nil {
		var held model.AnalysisResult
		if json.Unmarshal(raw, &held) == nil && !repository.Newer(a, &held) {
			return
		}
	}

	raw, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := c.cache.Set(a.SubjectID, raw); err != nil {
		c.log.Warn("analysis_cache_set_failed", zap.String("subject_id", a.SubjectID), zap.Error(err))
	}
}
