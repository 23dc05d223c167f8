package visit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/gartanggali/resort-backend/internal/domain"
)

type MockVisitRepository struct {
	mock.Mock
}

func (m *MockVisitRepository) HasRecentVisit(ctx context.Context, key, visitorHash string, since time.Time) (bool, error) {
	args := m.Called(ctx, key, visitorHash, since)
	return args.Bool(0), args.Error(1)
}

func (m *MockVisitRepository) RecordVisit(ctx context.Context, key, visitorHash string) (int64, error) {
	args := m.Called(ctx, key, visitorHash)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVisitRepository) Counters(ctx context.Context) ([]domain.VisitCounter, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.VisitCounter), args.Error(1)
}

func (m *MockVisitRepository) UniqueVisitors(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) MarkVisited(ctx context.Context, key, visitorHash string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, visitorHash, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) UnmarkVisited(ctx context.Context, key, visitorHash string) error {
	args := m.Called(ctx, key, visitorHash)
	return args.Error(0)
}

func TestVisitService_Hit_FirstVisitCounts(t *testing.T) {
	mockRepo := &MockVisitRepository{}
	mockCache := &MockCache{}
	service := NewVisitService(mockRepo, mockCache, zap.NewNop())

	ctx := context.Background()
	hash := VisitorHash("10.0.0.1", "curl/8.0")

	mockCache.On("MarkVisited", ctx, "site", hash, DedupWindow).Return(true, nil).Once()
	mockRepo.On("HasRecentVisit", ctx, "site", hash, mock.AnythingOfType("time.Time")).Return(false, nil).Once()
	mockRepo.On("RecordVisit", ctx, "site", hash).Return(int64(12), nil).Once()

	result, err := service.Hit(ctx, "", "10.0.0.1", "curl/8.0")

	assert.NoError(t, err)
	assert.True(t, result.Counted)
	assert.Equal(t, int64(12), result.Count)
	mockRepo.AssertExpectations(t)
}

func TestVisitService_Hit_CacheShortCircuit(t *testing.T) {
	mockRepo := &MockVisitRepository{}
	mockCache := &MockCache{}
	service := NewVisitService(mockRepo, mockCache, zap.NewNop())

	ctx := context.Background()
	mockCache.On("MarkVisited", ctx, "site", mock.Anything, DedupWindow).Return(false, nil).Once()

	result, err := service.Hit(ctx, "site", "10.0.0.1", "curl/8.0")

	assert.NoError(t, err)
	assert.False(t, result.Counted)
	mockRepo.AssertNotCalled(t, "RecordVisit")
	mockRepo.AssertNotCalled(t, "HasRecentVisit")
}

func TestVisitService_Hit_LogWindowSuppresses(t *testing.T) {
	mockRepo := &MockVisitRepository{}
	mockCache := &MockCache{}
	service := NewVisitService(mockRepo, mockCache, zap.NewNop())

	ctx := context.Background()
	mockCache.On("MarkVisited", ctx, "site", mock.Anything, DedupWindow).Return(true, nil).Once()
	mockRepo.On("HasRecentVisit", ctx, "site", mock.Anything, mock.Anything).Return(true, nil).Once()

	result, err := service.Hit(ctx, "site", "10.0.0.1", "curl/8.0")

	assert.NoError(t, err)
	assert.False(t, result.Counted)
	mockRepo.AssertNotCalled(t, "RecordVisit")
}

func TestVisitService_Hit_CacheFailureFallsThrough(t *testing.T) {
	// Redis being down must not break counting, the log table still dedups.
	mockRepo := &MockVisitRepository{}
	mockCache := &MockCache{}
	service := NewVisitService(mockRepo, mockCache, zap.NewNop())

	ctx := context.Background()
	mockCache.On("MarkVisited", ctx, "site", mock.Anything, DedupWindow).Return(false, errors.New("redis down")).Once()
	mockRepo.On("HasRecentVisit", ctx, "site", mock.Anything, mock.Anything).Return(false, nil).Once()
	mockRepo.On("RecordVisit", ctx, "site", mock.Anything).Return(int64(1), nil).Once()

	result, err := service.Hit(ctx, "site", "10.0.0.1", "curl/8.0")

	assert.NoError(t, err)
	assert.True(t, result.Counted)
}

func TestVisitService_Hit_RecordFailureReleasesMark(t *testing.T) {
	// A marked but unrecorded visitor must not stay suppressed for the window.
	mockRepo := &MockVisitRepository{}
	mockCache := &MockCache{}
	service := NewVisitService(mockRepo, mockCache, zap.NewNop())

	ctx := context.Background()
	hash := VisitorHash("10.0.0.1", "curl/8.0")

	mockCache.On("MarkVisited", ctx, "site", hash, DedupWindow).Return(true, nil).Once()
	mockRepo.On("HasRecentVisit", ctx, "site", hash, mock.AnythingOfType("time.Time")).Return(false, nil).Once()
	mockRepo.On("RecordVisit", ctx, "site", hash).Return(int64(0), errors.New("db down")).Once()
	mockCache.On("UnmarkVisited", ctx, "site", hash).Return(nil).Once()

	_, err := service.Hit(ctx, "site", "10.0.0.1", "curl/8.0")

	assert.Error(t, err)
	mockCache.AssertExpectations(t)
}

func TestVisitService_Hit_LookupFailureReleasesMark(t *testing.T) {
	mockRepo := &MockVisitRepository{}
	mockCache := &MockCache{}
	service := NewVisitService(mockRepo, mockCache, zap.NewNop())

	ctx := context.Background()
	hash := VisitorHash("10.0.0.1", "curl/8.0")

	mockCache.On("MarkVisited", ctx, "site", hash, DedupWindow).Return(true, nil).Once()
	mockRepo.On("HasRecentVisit", ctx, "site", hash, mock.AnythingOfType("time.Time")).Return(false, errors.New("db down")).Once()
	mockCache.On("UnmarkVisited", ctx, "site", hash).Return(nil).Once()

	_, err := service.Hit(ctx, "site", "10.0.0.1", "curl/8.0")

	assert.Error(t, err)
	mockCache.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "RecordVisit")
}

func TestVisitService_Stats(t *testing.T) {
	mockRepo := &MockVisitRepository{}
	service := NewVisitService(mockRepo, nil, zap.NewNop())

	ctx := context.Background()
	counters := []domain.VisitCounter{
		{Key: "site", Count: 40},
		{Key: "gallery", Count: 2},
	}
	mockRepo.On("Counters", ctx).Return(counters, nil).Once()
	mockRepo.On("UniqueVisitors", ctx).Return(int64(17), nil).Once()

	stats, err := service.Stats(ctx)

	assert.NoError(t, err)
	assert.Equal(t, int64(42), stats.TotalVisits)
	assert.Equal(t, int64(17), stats.UniqueVisitors)
	assert.Len(t, stats.Counters, 2)
}

func TestVisitorHash_Stable(t *testing.T) {
	a := VisitorHash("10.0.0.1", "curl/8.0")
	b := VisitorHash("10.0.0.1", "curl/8.0")
	c := VisitorHash("10.0.0.2", "curl/8.0")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
