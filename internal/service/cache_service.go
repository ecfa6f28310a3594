package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/knowledgevault-api/pkg/errors"
)

const (
	achievementCacheNamespace = "achievements"
	cacheVersionPrefix        = "cache-version:"

	defaultCacheCooldown = 30 * time.Second
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
	Version(ctx context.Context, key string) (int64, error)
	BumpVersion(ctx context.Context, key string) (int64, error)
}

// CacheService is a read-through helper that never fails the caller. Keys are
// scoped by a per-namespace generation held in Redis: invalidation advances
// the generation, so an entry computed before a mutation but written after it
// lands under a generation nobody reads again. After a backend error reads and
// writes are skipped for a cooldown window. An invalidation that could not be
// applied is retried before the next read, and until it succeeds caching is
// bypassed.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	cooldown   time.Duration
	logger     *zap.Logger
	enabled    bool
	now        func() time.Time

	mu             sync.Mutex
	unhealthyUntil time.Time
	pending        map[string]struct{}
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		repo:       repo,
		metrics:    metrics,
		defaultTTL: defaultTTL,
		cooldown:   defaultCacheCooldown,
		logger:     logger,
		enabled:    enabled,
		now:        time.Now,
		pending:    make(map[string]struct{}),
	}
}

// Enabled indicates whether caching is configured.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Version returns the current generation of namespace. ok is false when the
// cache must be bypassed for this request.
func (s *CacheService) Version(ctx context.Context, namespace string) (version int64, ok bool) {
	if !s.Enabled() || s.degraded() {
		return 0, false
	}
	if !s.flushPending(ctx) {
		return 0, false
	}
	version, err := s.repo.Version(ctx, cacheVersionPrefix+namespace)
	if err != nil {
		s.trip("version", err)
		return 0, false
	}
	return version, true
}

// Get reports a hit when dest was filled from cache. Backend errors are
// returned for logging but callers treat them as a miss.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() || s.degraded() || s.hasPending() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	if errors.Is(err, appErrors.ErrCacheMiss) {
		s.metrics.RecordCacheOperation(false, time.Since(start))
		return false, nil
	}
	if err != nil {
		s.trip("get", err)
		return false, err
	}
	s.metrics.RecordCacheOperation(true, time.Since(start))
	return true, nil
}

// Set stores the value; a non-positive ttl uses the default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() || s.degraded() || s.hasPending() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.trip("set", err)
	}
	return err
}

// Invalidate advances the generation of namespace and drops its keys. It is
// attempted even while degraded; when the generation cannot be advanced the
// namespace is remembered and retried before the next read.
func (s *CacheService) Invalidate(ctx context.Context, namespace string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.invalidate(ctx, namespace); err != nil {
		s.mu.Lock()
		s.pending[namespace] = struct{}{}
		s.mu.Unlock()
		s.trip("invalidate", err)
		return err
	}
	return nil
}

func (s *CacheService) invalidate(ctx context.Context, namespace string) error {
	if _, err := s.repo.BumpVersion(ctx, cacheVersionPrefix+namespace); err != nil {
		return err
	}
	// old generations are unreachable now; deleting them only frees memory
	if err := s.repo.DeleteByPattern(ctx, namespace+":*"); err != nil {
		s.logger.Warn("stale cache generation not purged", zap.String("namespace", namespace), zap.Error(err))
	}
	return nil
}

func (s *CacheService) degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().Before(s.unhealthyUntil)
}

func (s *CacheService) hasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) > 0
}

func (s *CacheService) trip(op string, err error) {
	s.mu.Lock()
	s.unhealthyUntil = s.now().Add(s.cooldown)
	s.mu.Unlock()
	s.logger.Warn("cache unavailable, bypassing", zap.String("op", op), zap.Duration("cooldown", s.cooldown), zap.Error(err))
}

// flushPending reports whether no invalidations remain outstanding.
func (s *CacheService) flushPending(ctx context.Context) bool {
	s.mu.Lock()
	namespaces := make([]string, 0, len(s.pending))
	for ns := range s.pending {
		namespaces = append(namespaces, ns)
	}
	s.mu.Unlock()

	for _, ns := range namespaces {
		if err := s.invalidate(ctx, ns); err != nil {
			s.trip("flush", err)
			return false
		}
		s.mu.Lock()
		delete(s.pending, ns)
		s.mu.Unlock()
	}
	return true
}

// achievementListKey hashes a canonical filter encoding into a bounded cache
// key under the given generation.
func achievementListKey(version int64, canonical string) string {
	sum := sha256.Sum256([]byte(canonical))
	return fmt.Sprintf("%s:list:v%d:%s", achievementCacheNamespace, version, hex.EncodeToString(sum[:]))
}
