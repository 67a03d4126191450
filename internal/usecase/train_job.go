package usecase

import (
	"context"
	"encoding/json"
	"errors"

	"FinForecast/internal/domain"
	domrepo "FinForecast/internal/domain/repository"
	"FinForecast/internal/services/source"
	"FinForecast/pkg/logger"
	"FinForecast/pkg/queue"
)

// TrainJobType is the queue message type for asynchronous training.
const TrainJobType = "model.train"

// TrainJobPayload is the queued form of a training request.
type TrainJobPayload struct {
	Ticker        string `json:"ticker"`
	Interval      string `json:"interval"`
	WindowSize    int    `json:"window_size"`
	UseLocalData  bool   `json:"use_local_data"`
	LocalDataPath string `json:"local_data_path,omitempty"`
	Source        string `json:"source,omitempty"`
}

func (p TrainJobPayload) params() TrainParams {
	return TrainParams{
		Ticker:     p.Ticker,
		Interval:   domrepo.NormalizeInterval(p.Interval),
		WindowSize: p.WindowSize,
		Source:     source.ParseSpec(p.Source, p.UseLocalData, p.LocalDataPath),
	}
}

// TrainJob consumes queued training requests.
type TrainJob struct {
	training *TrainingUseCase
	logger   *logger.Logger
}

var _ queue.Job = (*TrainJob)(nil)

func NewTrainJob(training *TrainingUseCase, l *logger.Logger) *TrainJob {
	return &TrainJob{training: training, logger: l}
}

func (j *TrainJob) Name() string { return "train-model" }

func (j *TrainJob) Type() string { return TrainJobType }

func (j *TrainJob) Handle(ctx context.Context, payload json.RawMessage) error {
	p, err := queue.ParsePayload[TrainJobPayload](payload)
	if err != nil {
		return queue.Permanent(err)
	}
	res, err := j.training.Train(ctx, p.params())
	if err != nil {
		if isPermanent(err) {
			return queue.Permanent(err)
		}
		return err
	}
	j.logger.Info("async training finished",
		logger.String("ticker", res.Ticker),
		logger.String("run_id", res.RunID))
	return nil
}

// isPermanent reports errors that a retry cannot fix.
func isPermanent(err error) bool {
	var (
		format *domain.DataFormatError
		empty  *domain.EmptyFeatureSetError
		conf   *domain.ConfigurationError
	)
	return errors.As(err, &format) ||
		errors.As(err, &empty) ||
		errors.As(err, &conf) ||
		errors.Is(err, domain.ErrInvalidTicker)
}
