package usecase

import (
	"context"
	"fmt"
	"time"

	"FinForecast/internal/domain"
	"FinForecast/internal/domain/models"
	domrepo "FinForecast/internal/domain/repository"
	"FinForecast/internal/services/dataprep"
	"FinForecast/internal/services/features"
	"FinForecast/internal/services/source"
	"FinForecast/pkg/logger"
)

// Stage names reported to metrics and logs.
const (
	StageFetch    = "fetch"
	StageExtract  = "extract"
	StageClean    = "clean"
	StageFeatures = "features"
	StageScale    = "scale"
	StageWindow   = "window"
)

// SourceFactory builds the data source for one run.
type SourceFactory interface {
	New(spec source.Spec) (domrepo.DataSource, error)
}

// Pipeline runs fetch, extract, clean, features, scale and window in that
// order and stops at the first failure.
type Pipeline struct {
	sources  SourceFactory
	scalers  domrepo.ScalerStore
	engineer features.Engineer
	metrics  domrepo.Metrics
	logger   *logger.Logger
}

func NewPipeline(sources SourceFactory, scalers domrepo.ScalerStore, engineer features.Engineer, metrics domrepo.Metrics, l *logger.Logger) *Pipeline {
	return &Pipeline{sources: sources, scalers: scalers, engineer: engineer, metrics: metrics, logger: l}
}

type RunParams struct {
	Ticker     string
	Interval   domrepo.Interval
	WindowSize int
	Source     source.Spec
	// RequireScaler refuses to fit a new scaler when none is persisted.
	RequireScaler bool
}

type RunResult struct {
	Features   models.Tensor3
	Targets    []float64
	Cleaned    *models.Dataset
	Scaled     *models.Dataset
	Scaler     *models.ScalerState
	SourceName string
	// ScalerFitted marks a state fitted by this run and not yet persisted.
	ScalerFitted bool
}

func (p *Pipeline) Run(ctx context.Context, params RunParams) (*RunResult, error) {
	if params.WindowSize < 1 {
		return nil, &domain.ConfigurationError{Setting: "window_size", Reason: "must be at least 1"}
	}

	src, err := p.sources.New(params.Source)
	if err != nil {
		return nil, p.fail(StageFetch, err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			p.logger.Warn("data source close failed", logger.String("source", src.Name()), logger.Error(cerr))
		}
	}()

	log := p.logger.With(
		logger.String("ticker", params.Ticker),
		logger.String("source", src.Name()),
	)

	var raw models.RawPayload
	if err := p.stage(StageFetch, func() (err error) {
		raw, err = src.Fetch(ctx, params.Ticker, params.Interval)
		return err
	}); err != nil {
		return nil, err
	}

	var extracted *models.Dataset
	if err := p.stage(StageExtract, func() (err error) {
		extracted, err = dataprep.Extract(raw)
		return err
	}); err != nil {
		return nil, err
	}
	p.rows(log, StageExtract, extracted)

	cleanStart := time.Now()
	cleaned := dataprep.Clean(extracted)
	p.metrics.RecordStage(StageClean, time.Since(cleanStart).Seconds())
	p.rows(log, StageClean, cleaned)

	var engineered *models.Dataset
	if err := p.stage(StageFeatures, func() (err error) {
		engineered, err = p.engineer.Apply(cleaned)
		return err
	}); err != nil {
		return nil, err
	}
	p.rows(log, StageFeatures, engineered)
	if engineered.Len() == 0 {
		return nil, p.fail(StageFeatures, &domain.EmptyFeatureSetError{Ticker: params.Ticker, WindowSize: params.WindowSize})
	}

	var (
		state  *models.ScalerState
		scaled *models.Dataset
		fitted bool
	)
	if err := p.stage(StageScale, func() (err error) {
		state, scaled, fitted, err = p.scale(ctx, params, engineered)
		return err
	}); err != nil {
		return nil, err
	}

	var (
		x models.Tensor3
		y []float64
	)
	if err := p.stage(StageWindow, func() (err error) {
		x, y, err = dataprep.BuildSequences(scaled, params.WindowSize)
		return err
	}); err != nil {
		return nil, err
	}
	log.Debug("pipeline complete",
		logger.Int("examples", x.Len()),
		logger.Int("window_size", params.WindowSize),
		logger.Int("features", x.Features))

	return &RunResult{
		Features:     x,
		Targets:      y,
		Cleaned:      cleaned,
		Scaled:       scaled,
		Scaler:       state,
		SourceName:   src.Name(),
		ScalerFitted: fitted,
	}, nil
}

// scale reuses the persisted state for the ticker, or fits a new one. A fitted
// state is returned unsaved; SaveScaler freezes it once the run has succeeded.
func (p *Pipeline) scale(ctx context.Context, params RunParams, ds *models.Dataset) (*models.ScalerState, *models.Dataset, bool, error) {
	state, ok, err := p.scalers.Load(ctx, params.Ticker)
	if err != nil {
		return nil, nil, false, err
	}
	if ok {
		scaled, err := dataprep.Transform(state, ds)
		return state, scaled, false, err
	}
	if params.RequireScaler {
		return nil, nil, false, &domain.ModelNotFoundError{Ticker: params.Ticker}
	}

	state, scaled, err := dataprep.Fit(params.Ticker, ds)
	if err != nil {
		return nil, nil, false, err
	}
	return state, scaled, true, nil
}

// SaveScaler persists a state fitted by Run. After this the state is frozen
// for the ticker.
func (p *Pipeline) SaveScaler(ctx context.Context, state *models.ScalerState) error {
	if err := p.scalers.Save(ctx, state); err != nil {
		p.metrics.RecordError("save_scaler")
		return fmt.Errorf("persist scaler: %w", err)
	}
	p.logger.Info("scaler fitted", logger.String("ticker", state.Ticker))
	return nil
}

func (p *Pipeline) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	p.metrics.RecordStage(name, time.Since(start).Seconds())
	if err != nil {
		return p.fail(name, err)
	}
	return nil
}

func (p *Pipeline) fail(stage string, err error) error {
	p.metrics.RecordError(stage)
	return fmt.Errorf("%s: %w", stage, err)
}

func (p *Pipeline) rows(log *logger.Logger, stage string, ds *models.Dataset) {
	p.metrics.RecordRows(stage, ds.Len())
	log.Debug("stage complete", logger.String("stage", stage), logger.Int("rows", ds.Len()))
}
