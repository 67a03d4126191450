package service

import (
	"context"
	"io"

	"FinForecast/internal/domain/models"
)

// Model is a sequence regressor consuming windowed feature tensors.
// The pipeline depends only on this capability set.
type Model interface {
	Train(ctx context.Context, x models.Tensor3, y []float64) (models.TrainStats, error)
	Predict(x models.Tensor3) ([]float64, error)
	Save(w io.Writer) error
	Load(r io.Reader) error
}

// ModelFactory builds an untrained model instance.
type ModelFactory func() Model
