package repository

import (
	"context"
	"errors"

	"FinForecast/internal/domain/models"
	"FinForecast/internal/domain/service"
)

// ErrArtifactNotFound is returned by ArtifactStore.Get for unknown keys.
var ErrArtifactNotFound = errors.New("artifact not found")

// DataSource fetches a raw time-series payload for a ticker.
type DataSource interface {
	Name() string
	Fetch(ctx context.Context, ticker string, interval Interval) (models.RawPayload, error)
	Close() error
}

// CandleStore provides read-only access to warehouse candles.
type CandleStore interface {
	GetLatestCandles(ctx context.Context, symbol string, interval Interval, limit int) ([]models.Candle, error)
}

// ArtifactStore persists opaque blobs addressed by key.
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// ScalerStore keeps one frozen ScalerState per ticker.
type ScalerStore interface {
	Load(ctx context.Context, ticker string) (*models.ScalerState, bool, error)
	Save(ctx context.Context, state *models.ScalerState) error
}

// ModelStore persists one trained model per ticker.
type ModelStore interface {
	Save(ctx context.Context, ticker string, m service.Model) error
	Load(ctx context.Context, ticker string, m service.Model) error
	Exists(ctx context.Context, ticker string) (bool, error)
}

// TrainingRunStore records training history.
type TrainingRunStore interface {
	Record(ctx context.Context, run models.TrainingRun) error
	Recent(ctx context.Context, ticker string, limit int) ([]models.TrainingRun, error)
}

// EventPublisher emits model lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, ev models.ModelEvent) error
	Close() error
}

type Metrics interface {
	RecordStage(stage string, seconds float64)
	RecordRows(stage string, rows int)
	RecordError(kind string)
	RecordTraining(ticker string, loss float64, examples int)
	RecordPrediction(ticker string, value float64)
}
