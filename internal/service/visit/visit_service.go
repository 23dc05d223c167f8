package visit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"github.com/gartanggali/resort-backend/internal/domain"
	"github.com/gartanggali/resort-backend/internal/repository"
)

// DedupWindow is how long a visitor fingerprint suppresses further counting
// for the same key.
const DedupWindow = 24 * time.Hour

const DefaultKey = "site"

type VisitUseCase interface {
	Hit(ctx context.Context, key, clientIP, userAgent string) (HitResult, error)
	Stats(ctx context.Context) (*domain.VisitStats, error)
}

// Cache is the fast-path dedup guard in front of the visit log.
type Cache interface {
	MarkVisited(ctx context.Context, key, visitorHash string, ttl time.Duration) (bool, error)
	UnmarkVisited(ctx context.Context, key, visitorHash string) error
}

type HitResult struct {
	Counted bool
	Count   int64
}

type VisitService struct {
	visits repository.VisitRepository
	cache  Cache
	logger *zap.Logger
}

func NewVisitService(visits repository.VisitRepository, cache Cache, logger *zap.Logger) *VisitService {
	return &VisitService{visits: visits, cache: cache, logger: logger}
}

// Hit counts one visit per (key, visitor) per dedup window. A suppressed hit
// is still a successful request. The visit log in the store is authoritative;
// redis only short-circuits the common repeat case.
func (s *VisitService) Hit(ctx context.Context, key, clientIP, userAgent string) (HitResult, error) {
	if key == "" {
		key = DefaultKey
	}
	visitorHash := VisitorHash(clientIP, userAgent)

	if s.cache != nil {
		first, err := s.cache.MarkVisited(ctx, key, visitorHash, DedupWindow)
		if err != nil {
			s.logger.Warn("visit dedup cache unavailable", zap.Error(err))
		} else if !first {
			return HitResult{Counted: false}, nil
		}
	}

	seen, err := s.visits.HasRecentVisit(ctx, key, visitorHash, time.Now().Add(-DedupWindow))
	if err != nil {
		s.unmark(ctx, key, visitorHash)
		return HitResult{}, err
	}
	if seen {
		return HitResult{Counted: false}, nil
	}

	count, err := s.visits.RecordVisit(ctx, key, visitorHash)
	if err != nil {
		s.unmark(ctx, key, visitorHash)
		return HitResult{}, err
	}
	return HitResult{Counted: true, Count: count}, nil
}

// unmark releases the redis dedup mark after a store failure so an uncounted
// visitor is not suppressed for the rest of the window.
func (s *VisitService) unmark(ctx context.Context, key, visitorHash string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.UnmarkVisited(ctx, key, visitorHash); err != nil {
		s.logger.Warn("release visit dedup mark failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *VisitService) Stats(ctx context.Context) (*domain.VisitStats, error) {
	counters, err := s.visits.Counters(ctx)
	if err != nil {
		return nil, err
	}
	unique, err := s.visits.UniqueVisitors(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range counters {
		total += c.Count
	}
	return &domain.VisitStats{TotalVisits: total, UniqueVisitors: unique, Counters: counters}, nil
}

// VisitorHash is a one-way fingerprint of client address and user agent.
func VisitorHash(clientIP, userAgent string) string {
	sum := sha256.Sum256([]byte(clientIP + userAgent))
	return hex.EncodeToString(sum[:])
}

var _ VisitUseCase = (*VisitService)(nil)
