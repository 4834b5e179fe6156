package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kosterror/time-flow-api/internal/models"
	"github.com/kosterror/time-flow-api/pkg/config"
	appErrors "github.com/kosterror/time-flow-api/pkg/errors"
	"github.com/kosterror/time-flow-api/pkg/jobs"
)

const (
	timetableKeyPrefix = "timetable:"

	// timetableGenerationKey sits outside the timetable: namespace so pattern
	// deletes leave it alone.
	timetableGenerationKey = "timetable-generation"

	// JobKindCacheInvalidate retries a pattern delete that failed inline.
	JobKindCacheInvalidate = "cache.invalidate"
)

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
	Incr(ctx context.Context, key string) (int64, error)
}

// CacheService fronts the timetable read cache and records hit metrics.
// Cache failures are logged and never fail the request that triggered them.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
	retries    jobEnqueuer
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// UseRetryQueue routes failed invalidations to q. Without a queue they are
// only logged and stale windows live until their TTL.
func (s *CacheService) UseRetryQueue(q jobEnqueuer) {
	if s != nil {
		s.retries = q
	}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// TimetableKey builds the cache key of one owner's timetable window as of
// the given generation.
func TimetableKey(generation int64, owner models.LessonOwner, ownerID string, start, end time.Time) string {
	return fmt.Sprintf("%sg%d:%s:%s:%s:%s", timetableKeyPrefix, generation, owner, ownerID, start.Format(config.DateLayout), end.Format(config.DateLayout))
}

// Generation returns the current timetable generation. ok is false when the
// cache is off or the counter cannot be read; callers must then skip the cache.
func (s *CacheService) Generation(ctx context.Context) (generation int64, ok bool) {
	if !s.Enabled() {
		return 0, false
	}
	err := s.repo.Get(ctx, timetableGenerationKey, &generation)
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("cache generation read failed", zap.Error(err))
		return 0, false
	}
	return generation, true
}

// Get loads key into dest and reports whether the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return true
}

// Set stores value under key. A non-positive ttl selects the default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !s.Enabled() {
		return
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateTimetables drops every cached timetable window. The generation
// is bumped before the delete, so a window loaded before the write lands
// under a key no later read asks for.
func (s *CacheService) InvalidateTimetables(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	pattern := timetableKeyPrefix + "*"
	err := s.invalidate(ctx, pattern)
	if err == nil {
		return
	}
	s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
	if s.retries == nil {
		return
	}
	if err := s.retries.Enqueue(jobs.Job{Kind: JobKindCacheInvalidate, Target: pattern}); err != nil {
		s.logger.Error("cache invalidate retry not scheduled", zap.String("pattern", pattern), zap.Error(err))
	}
}

// RunInvalidationJob is the retry queue handler for failed invalidations.
func (s *CacheService) RunInvalidationJob(ctx context.Context, job jobs.Job) error {
	if !s.Enabled() || job.Kind != JobKindCacheInvalidate {
		return nil
	}
	return s.invalidate(ctx, job.Target)
}

func (s *CacheService) invalidate(ctx context.Context, pattern string) error {
	_, incrErr := s.repo.Incr(ctx, timetableGenerationKey)
	if incrErr != nil {
		incrErr = fmt.Errorf("bump timetable generation: %w", incrErr)
	}
	return errors.Join(incrErr, s.repo.DeleteByPattern(ctx, pattern))
}
