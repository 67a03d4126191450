package usecase

import (
	"context"
	"fmt"
	"time"

	"FinForecast/internal/domain"
	"FinForecast/internal/domain/models"
	domrepo "FinForecast/internal/domain/repository"
	"FinForecast/internal/domain/service"
	"FinForecast/internal/repository"
	"FinForecast/internal/services/dataprep"
	"FinForecast/internal/services/source"
	"FinForecast/pkg/logger"
)

// PredictionCache memoizes responses per ticker, interval and window size.
type PredictionCache interface {
	Get(ctx context.Context, ticker, interval string, window int) (*models.PredictResponse, bool)
	Put(ctx context.Context, interval string, window int, resp *models.PredictResponse)
}

// PredictionUseCase produces a next-close forecast from a persisted model.
type PredictionUseCase struct {
	pipeline *Pipeline
	models   domrepo.ModelStore
	newModel service.ModelFactory
	cache    PredictionCache
	events   domrepo.EventPublisher
	metrics  domrepo.Metrics
	logger   *logger.Logger
}

func NewPredictionUseCase(
	pipeline *Pipeline,
	models domrepo.ModelStore,
	newModel service.ModelFactory,
	cache PredictionCache,
	events domrepo.EventPublisher,
	metrics domrepo.Metrics,
	l *logger.Logger,
) *PredictionUseCase {
	return &PredictionUseCase{
		pipeline: pipeline,
		models:   models,
		newModel: newModel,
		cache:    cache,
		events:   events,
		metrics:  metrics,
		logger:   l,
	}
}

type PredictParams struct {
	Ticker     string
	Interval   domrepo.Interval
	WindowSize int
	Source     source.Spec
	SkipCache  bool
}

func (uc *PredictionUseCase) Predict(ctx context.Context, p PredictParams) (*models.PredictResponse, error) {
	ticker, err := repository.NormalizeTicker(p.Ticker)
	if err != nil {
		return nil, err
	}
	if !p.SkipCache {
		if resp, ok := uc.cache.Get(ctx, ticker, string(p.Interval), p.WindowSize); ok {
			resp.Cached = true
			return resp, nil
		}
	}

	exists, err := uc.models.Exists(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("check model: %w", err)
	}
	if !exists {
		return nil, &domain.ModelNotFoundError{Ticker: ticker}
	}

	res, err := uc.pipeline.Run(ctx, RunParams{
		Ticker:        ticker,
		Interval:      p.Interval,
		WindowSize:    p.WindowSize,
		Source:        p.Source,
		RequireScaler: true,
	})
	if err != nil {
		return nil, err
	}

	x, err := dataprep.LatestWindow(res.Scaled, ticker, p.WindowSize)
	if err != nil {
		return nil, err
	}
	m := uc.newModel()
	if err := uc.models.Load(ctx, ticker, m); err != nil {
		return nil, err
	}
	out, err := m.Predict(x)
	if err != nil {
		uc.metrics.RecordError("predict")
		return nil, fmt.Errorf("predict: %w", err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("predict: expected 1 output, got %d", len(out))
	}
	price, err := dataprep.Inverse(res.Scaler, models.ColClose, out[0])
	if err != nil {
		return nil, err
	}

	resp := &models.PredictResponse{
		Ticker:           ticker,
		Prediction:       price,
		ScaledPrediction: out[0],
		AsOf:             res.Scaled.Rows[res.Scaled.Len()-1].Time,
	}
	uc.metrics.RecordPrediction(ticker, price)
	uc.cache.Put(ctx, string(p.Interval), p.WindowSize, resp)

	if err := uc.events.Publish(ctx, models.ModelEvent{
		Type:       models.EventModelPredicted,
		Ticker:     ticker,
		Interval:   string(p.Interval),
		WindowSize: p.WindowSize,
		Prediction: price,
		Timestamp:  time.Now().UTC(),
	}); err != nil {
		uc.logger.Warn("publish prediction event failed", logger.String("ticker", ticker), logger.Error(err))
	}

	uc.logger.Info("prediction served",
		logger.String("ticker", ticker),
		logger.Float64("prediction", price),
		logger.String("as_of", resp.AsOf.Format(time.RFC3339)))
	return resp, nil
}
