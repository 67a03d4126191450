package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"FinForecast/internal/domain"
	domrepo "FinForecast/internal/domain/repository"
	"FinForecast/internal/services/source"
	"FinForecast/pkg/logger"
)

// RetrainConfig lists the tickers refreshed on every tick of Spec.
type RetrainConfig struct {
	Spec       string
	Tickers    []string
	Interval   domrepo.Interval
	WindowSize int
	Source     source.Spec
	Timeout    time.Duration
}

// RetrainScheduler periodically retrains a fixed ticker list.
type RetrainScheduler struct {
	cron     *cron.Cron
	cfg      RetrainConfig
	training *TrainingUseCase
	logger   *logger.Logger
}

func NewRetrainScheduler(cfg RetrainConfig, training *TrainingUseCase, l *logger.Logger) (*RetrainScheduler, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	s := &RetrainScheduler{
		cron:     cron.New(cron.WithSeconds()),
		cfg:      cfg,
		training: training,
		logger:   l,
	}
	if _, err := s.cron.AddFunc(cfg.Spec, s.RunNow); err != nil {
		return nil, fmt.Errorf("register retrain task: %w", err)
	}
	return s, nil
}

func (s *RetrainScheduler) Start() error {
	s.cron.Start()
	s.logger.Info("retrain scheduler started",
		logger.String("spec", s.cfg.Spec),
		logger.Strings("tickers", s.cfg.Tickers))
	return nil
}

// Stop waits for a running retrain pass to finish or ctx to expire.
func (s *RetrainScheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("retrain scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow retrains every configured ticker once, sequentially.
func (s *RetrainScheduler) RunNow() {
	for _, ticker := range s.cfg.Tickers {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
		_, err := s.training.Train(ctx, TrainParams{
			Ticker:     ticker,
			Interval:   s.cfg.Interval,
			WindowSize: s.cfg.WindowSize,
			Source:     s.cfg.Source,
		})
		cancel()

		switch {
		case err == nil:
		case errors.Is(err, domain.ErrTrainingInProgress):
			s.logger.Info("scheduled retrain skipped", logger.String("ticker", ticker))
		default:
			s.logger.Error("scheduled retrain failed", logger.String("ticker", ticker), logger.Error(err))
		}
	}
}
