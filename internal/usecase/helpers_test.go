package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"FinForecast/internal/domain/models"
	domrepo "FinForecast/internal/domain/repository"
	"FinForecast/internal/repository"
	svccache "FinForecast/internal/service/cache"
	"FinForecast/internal/services/features"
	"FinForecast/internal/services/model"
	"FinForecast/internal/services/source"
	"FinForecast/pkg/cache"
	"FinForecast/pkg/logger"
	"FinForecast/pkg/metrics"
)

var firstBar = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// dailyPayload builds n daily bars with a gently oscillating close.
func dailyPayload(n int) models.RawPayload {
	series := make(map[string]interface{}, n)
	for i := 0; i < n; i++ {
		c := 100 + 5*math.Sin(float64(i)/4) + float64(i)*0.1
		series[firstBar.AddDate(0, 0, i).Format("2006-01-02")] = map[string]interface{}{
			"1. open":   fmt.Sprintf("%.4f", c-0.3),
			"2. high":   fmt.Sprintf("%.4f", c+1),
			"3. low":    fmt.Sprintf("%.4f", c-1),
			"4. close":  fmt.Sprintf("%.4f", c),
			"5. volume": fmt.Sprintf("%d", 1000+i*10),
		}
	}
	return models.RawPayload{
		"Meta Data":           map[string]interface{}{"2. Symbol": "IBM"},
		"Time Series (Daily)": series,
	}
}

type stubSource struct {
	payload models.RawPayload
	err     error
	closed  *int
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Fetch(context.Context, string, domrepo.Interval) (models.RawPayload, error) {
	return s.payload, s.err
}

func (s *stubSource) Close() error {
	*s.closed++
	return nil
}

type stubSources struct {
	payload models.RawPayload
	err     error
	closed  int
	specs   []source.Spec
}

func (f *stubSources) New(spec source.Spec) (domrepo.DataSource, error) {
	f.specs = append(f.specs, spec)
	return &stubSource{payload: f.payload, err: f.err, closed: &f.closed}, nil
}

type recordingEvents struct {
	mu     sync.Mutex
	events []models.ModelEvent
}

func (r *recordingEvents) Publish(_ context.Context, ev models.ModelEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingEvents) Close() error { return nil }

type recordingRuns struct {
	mu   sync.Mutex
	runs []models.TrainingRun
}

func (r *recordingRuns) Record(_ context.Context, run models.TrainingRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

func (r *recordingRuns) Recent(context.Context, string, int) ([]models.TrainingRun, error) {
	return r.runs, nil
}

type fixture struct {
	sources     *stubSources
	artifacts   *repository.MemoryArtifactStore
	cache       *cache.MemoryCache
	lock        *svccache.TrainingLock
	predictions *svccache.PredictionCache
	events      *recordingEvents
	runs        *recordingRuns
	pipeline    *Pipeline
	training    *TrainingUseCase
	prediction  *PredictionUseCase
}

func newFixture(payload models.RawPayload) *fixture {
	l := logger.NewNop()
	f := &fixture{
		sources:   &stubSources{payload: payload},
		artifacts: repository.NewMemoryArtifactStore(),
		cache:     cache.NewMemoryCache(),
		events:    &recordingEvents{},
		runs:      &recordingRuns{},
	}
	f.lock = svccache.NewTrainingLock(f.cache, time.Minute)
	f.predictions = svccache.NewPredictionCache(f.cache, time.Minute, l)

	scalers := repository.NewArtifactScalerStore(f.artifacts, l)
	modelStore := repository.NewArtifactModelStore(f.artifacts)
	newModel := model.Factory(model.Config{Epochs: 5, BatchSize: 8, LearningRate: 0.01, Seed: 7})

	f.pipeline = NewPipeline(f.sources, scalers, features.NewEngineer(), metrics.Nop{}, l)
	f.training = NewTrainingUseCase(f.pipeline, modelStore, newModel, f.runs, f.events, f.lock, f.predictions, metrics.Nop{}, l)
	f.prediction = NewPredictionUseCase(f.pipeline, modelStore, newModel, f.predictions, f.events, metrics.Nop{}, l)
	return f
}

func (f *fixture) close() { _ = f.cache.Close() }
