package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"FinForecast/internal/domain"
	"FinForecast/internal/domain/models"
	domrepo "FinForecast/internal/domain/repository"
	"FinForecast/internal/domain/service"
	"FinForecast/internal/repository"
	"FinForecast/internal/services/source"
	"FinForecast/pkg/logger"
)

const cleanedHeadRows = 5

// TrainingLocker guards a ticker against concurrent fits.
type TrainingLocker interface {
	Acquire(ctx context.Context, ticker string) (token string, ok bool, err error)
	Release(ctx context.Context, ticker, token string) error
}

// PredictionInvalidator drops cached predictions of a retrained ticker.
type PredictionInvalidator interface {
	InvalidateTicker(ctx context.Context, ticker string) error
}

// TrainingUseCase runs the pipeline and fits, persists and records a model.
type TrainingUseCase struct {
	pipeline    *Pipeline
	models      domrepo.ModelStore
	newModel    service.ModelFactory
	runs        domrepo.TrainingRunStore
	events      domrepo.EventPublisher
	lock        TrainingLocker
	predictions PredictionInvalidator
	metrics     domrepo.Metrics
	logger      *logger.Logger
}

func NewTrainingUseCase(
	pipeline *Pipeline,
	models domrepo.ModelStore,
	newModel service.ModelFactory,
	runs domrepo.TrainingRunStore,
	events domrepo.EventPublisher,
	lock TrainingLocker,
	predictions PredictionInvalidator,
	metrics domrepo.Metrics,
	l *logger.Logger,
) *TrainingUseCase {
	return &TrainingUseCase{
		pipeline:    pipeline,
		models:      models,
		newModel:    newModel,
		runs:        runs,
		events:      events,
		lock:        lock,
		predictions: predictions,
		metrics:     metrics,
		logger:      l,
	}
}

type TrainParams struct {
	Ticker     string
	Interval   domrepo.Interval
	WindowSize int
	Source     source.Spec
}

type TrainResult struct {
	RunID         string
	Ticker        string
	FeaturesShape [3]int
	TargetsShape  [1]int
	Loss          float64
	CleanedHead   []map[string]interface{}
	Duration      time.Duration
}

func (uc *TrainingUseCase) Train(ctx context.Context, p TrainParams) (*TrainResult, error) {
	ticker, err := repository.NormalizeTicker(p.Ticker)
	if err != nil {
		return nil, err
	}

	token, ok, err := uc.lock.Acquire(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("acquire training lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrTrainingInProgress
	}
	defer func() {
		if err := uc.lock.Release(context.Background(), ticker, token); err != nil {
			uc.logger.Warn("release training lock failed", logger.String("ticker", ticker), logger.Error(err))
		}
	}()

	start := time.Now()
	res, err := uc.pipeline.Run(ctx, RunParams{
		Ticker:     ticker,
		Interval:   p.Interval,
		WindowSize: p.WindowSize,
		Source:     p.Source,
	})
	if err != nil {
		uc.logger.Error("training pipeline failed", logger.String("ticker", ticker), logger.Error(err))
		return nil, err
	}
	if res.Features.Len() == 0 {
		return nil, &domain.EmptyFeatureSetError{Ticker: ticker, Rows: res.Scaled.Len(), WindowSize: p.WindowSize}
	}

	m := uc.newModel()
	stats, err := m.Train(ctx, res.Features, res.Targets)
	if err != nil {
		uc.metrics.RecordError("train")
		uc.logger.Error("model fit failed", logger.String("ticker", ticker), logger.Error(err))
		return nil, fmt.Errorf("train: %w", err)
	}
	if err := uc.models.Save(ctx, ticker, m); err != nil {
		uc.metrics.RecordError("save_model")
		return nil, err
	}
	if res.ScalerFitted {
		if err := uc.pipeline.SaveScaler(ctx, res.Scaler); err != nil {
			return nil, err
		}
	}

	run := models.TrainingRun{
		RunID:      uuid.NewString(),
		Ticker:     ticker,
		Interval:   string(p.Interval),
		WindowSize: p.WindowSize,
		Source:     res.SourceName,
		Examples:   stats.Examples,
		Features:   res.Features.Features,
		Loss:       stats.FinalLoss,
		Duration:   time.Since(start),
		CreatedAt:  time.Now().UTC(),
	}
	uc.afterTraining(ctx, run)

	uc.logger.Info("model trained",
		logger.String("ticker", ticker),
		logger.String("run_id", run.RunID),
		logger.Int("examples", run.Examples),
		logger.Float64("loss", run.Loss),
		logger.Duration("duration", run.Duration))

	return &TrainResult{
		RunID:         run.RunID,
		Ticker:        ticker,
		FeaturesShape: res.Features.Shape(),
		TargetsShape:  [1]int{len(res.Targets)},
		Loss:          stats.FinalLoss,
		CleanedHead:   res.Cleaned.Head(cleanedHeadRows),
		Duration:      run.Duration,
	}, nil
}

// afterTraining records side effects of a saved model. Failures here are
// logged; the model itself is already persisted.
func (uc *TrainingUseCase) afterTraining(ctx context.Context, run models.TrainingRun) {
	uc.metrics.RecordTraining(run.Ticker, run.Loss, run.Examples)

	if err := uc.runs.Record(ctx, run); err != nil {
		uc.logger.Warn("record training run failed", logger.String("run_id", run.RunID), logger.Error(err))
	}
	if err := uc.predictions.InvalidateTicker(ctx, run.Ticker); err != nil {
		uc.logger.Warn("invalidate predictions failed", logger.String("ticker", run.Ticker), logger.Error(err))
	}
	ev := models.ModelEvent{
		Type:       models.EventModelTrained,
		Ticker:     run.Ticker,
		Interval:   run.Interval,
		WindowSize: run.WindowSize,
		RunID:      run.RunID,
		Loss:       run.Loss,
		Timestamp:  run.CreatedAt,
	}
	if err := uc.events.Publish(ctx, ev); err != nil {
		uc.logger.Warn("publish model event failed", logger.String("ticker", run.Ticker), logger.Error(err))
	}
}
