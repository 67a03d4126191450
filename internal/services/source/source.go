package source

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"FinForecast/internal/domain"
	"FinForecast/internal/domain/repository"
	"FinForecast/internal/service/ratelimit"
	"FinForecast/pkg/logger"
)

// Kind selects where raw bars come from.
type Kind string

const (
	KindRemote    Kind = "remote"
	KindLocal     Kind = "local"
	KindWarehouse Kind = "warehouse"
)

// Spec is the per-request source selection.
type Spec struct {
	Kind      Kind
	LocalPath string
}

// Config carries the collaborator settings every source may need.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	Retries    int
	OutputSize string

	DataDir          string
	DefaultLocalPath string

	WarehouseLimit int
}

// Factory builds data sources from a Spec.
type Factory struct {
	cfg     Config
	limiter *ratelimit.KeyedLimiter
	candles repository.CandleStore
	log     *logger.Logger
}

// FactoryOption configures Factory.
type FactoryOption func(*Factory)

// WithLimiter throttles remote calls.
func WithLimiter(l *ratelimit.KeyedLimiter) FactoryOption {
	return func(f *Factory) { f.limiter = l }
}

// WithCandleStore enables the warehouse source.
func WithCandleStore(s repository.CandleStore) FactoryOption {
	return func(f *Factory) { f.candles = s }
}

func NewFactory(cfg Config, log *logger.Logger, opts ...FactoryOption) *Factory {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAlphaVantageURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 1
	}
	if cfg.WarehouseLimit <= 0 {
		cfg.WarehouseLimit = 1000
	}
	f := &Factory{cfg: cfg, log: log}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SpecFor maps the request flags onto a Spec.
func SpecFor(useLocal bool, localPath string) Spec {
	if useLocal {
		return Spec{Kind: KindLocal, LocalPath: localPath}
	}
	return Spec{Kind: KindRemote}
}

// ParseSpec maps an explicit kind plus the legacy local flag onto a Spec.
// An empty kind falls back to the flag.
func ParseSpec(kind string, useLocal bool, localPath string) Spec {
	switch Kind(kind) {
	case KindWarehouse:
		return Spec{Kind: KindWarehouse}
	case KindLocal:
		return Spec{Kind: KindLocal, LocalPath: localPath}
	case KindRemote:
		return Spec{Kind: KindRemote}
	}
	return SpecFor(useLocal, localPath)
}

// New returns the source described by spec.
func (f *Factory) New(spec Spec) (repository.DataSource, error) {
	switch spec.Kind {
	case KindRemote, "":
		if strings.TrimSpace(f.cfg.APIKey) == "" {
			return nil, &domain.ConfigurationError{Setting: "alpha_vantage.api_key", Reason: "required for remote data"}
		}
		return NewAlphaVantage(f.cfg, f.limiter, f.log), nil
	case KindLocal:
		path, err := f.resolveLocal(spec.LocalPath)
		if err != nil {
			return nil, err
		}
		return NewCSV(path), nil
	case KindWarehouse:
		if f.candles == nil {
			return nil, &domain.ConfigurationError{Setting: "clickhouse.enabled", Reason: "warehouse source needs clickhouse"}
		}
		return NewWarehouse(f.candles, f.cfg.WarehouseLimit), nil
	default:
		return nil, &domain.ConfigurationError{Setting: "source", Reason: fmt.Sprintf("unknown kind %q", spec.Kind)}
	}
}

// resolveLocal keeps request-supplied paths inside the configured data dir.
func (f *Factory) resolveLocal(p string) (string, error) {
	if p == "" {
		p = f.cfg.DefaultLocalPath
	}
	if p == "" {
		return "", &domain.ConfigurationError{Setting: "local_data_path", Reason: "no local data path configured"}
	}
	if f.cfg.DataDir == "" {
		return filepath.Clean(p), nil
	}

	root, err := filepath.Abs(f.cfg.DataDir)
	if err != nil {
		return "", &domain.ConfigurationError{Setting: "pipeline.data_dir", Reason: err.Error()}
	}
	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(root, p)
	}
	full = filepath.Clean(full)
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &domain.ConfigurationError{Setting: "local_data_path", Reason: "path is outside the data directory"}
	}
	return full, nil
}

// seriesKey is the section name providers use for a given interval.
func seriesKey(iv repository.Interval) string {
	if iv == repository.IntervalDaily {
		return "Time Series (Daily)"
	}
	return fmt.Sprintf("Time Series (%s)", iv)
}
