package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"FinForecast/internal/domain/models"
	"FinForecast/pkg/cache"
	"FinForecast/pkg/logger"
)

const (
	predictionPrefix = "predict"
	trainLockPrefix  = "trainlock"

	DefaultPredictionTTL = 5 * time.Minute
	DefaultTrainLockTTL  = 30 * time.Minute
)

// PredictionCache memoizes /predict answers per ticker, interval and window
// size. Entries for a ticker are dropped whenever that ticker is retrained.
type PredictionCache struct {
	store  cache.Service
	ttl    time.Duration
	logger *logger.Logger
}

func NewPredictionCache(store cache.Service, ttl time.Duration, l *logger.Logger) *PredictionCache {
	if ttl <= 0 {
		ttl = DefaultPredictionTTL
	}
	return &PredictionCache{store: store, ttl: ttl, logger: l}
}

func predictionKey(ticker, interval string, window int) string {
	return cache.Key(predictionPrefix, ticker, interval, strconv.Itoa(window))
}

// Get returns the cached response and true on a hit. Backend failures are
// logged and reported as a miss.
func (c *PredictionCache) Get(ctx context.Context, ticker, interval string, window int) (*models.PredictResponse, bool) {
	var resp models.PredictResponse
	err := c.store.Get(ctx, predictionKey(ticker, interval, window), &resp)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn("prediction cache read failed",
				logger.String("ticker", ticker),
				logger.Error(err))
		}
		return nil, false
	}
	return &resp, true
}

func (c *PredictionCache) Put(ctx context.Context, interval string, window int, resp *models.PredictResponse) {
	if err := c.store.Set(ctx, predictionKey(resp.Ticker, interval, window), resp, c.ttl); err != nil {
		c.logger.Warn("prediction cache write failed",
			logger.String("ticker", resp.Ticker),
			logger.Error(err))
	}
}

// InvalidateTicker drops every cached prediction for ticker.
func (c *PredictionCache) InvalidateTicker(ctx context.Context, ticker string) error {
	return c.store.DeleteByPattern(ctx, cache.Key(predictionPrefix, ticker, "*"))
}

// TrainingLock serializes fits per ticker across processes sharing the cache
// backend.
type TrainingLock struct {
	store cache.Service
	ttl   time.Duration
}

func NewTrainingLock(store cache.Service, ttl time.Duration) *TrainingLock {
	if ttl <= 0 {
		ttl = DefaultTrainLockTTL
	}
	return &TrainingLock{store: store, ttl: ttl}
}

// Acquire returns ok=false when another fit for ticker holds the lock. The
// returned token must be passed to Release.
func (l *TrainingLock) Acquire(ctx context.Context, ticker string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.store.TryLock(ctx, cache.Key(trainLockPrefix, ticker), token, l.ttl)
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// Release drops the lock if token still owns it. A lock that expired and was
// taken by another fit is left alone and cache.ErrLockNotHeld is returned.
func (l *TrainingLock) Release(ctx context.Context, ticker, token string) error {
	return l.store.Unlock(ctx, cache.Key(trainLockPrefix, ticker), token)
}
