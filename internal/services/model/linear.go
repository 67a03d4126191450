package model

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"FinForecast/internal/domain"
	"FinForecast/internal/domain/models"
	"FinForecast/internal/domain/service"
)

// Config holds training hyperparameters.
type Config struct {
	Epochs       int
	BatchSize    int
	LearningRate float64
	Seed         int64
}

// DefaultConfig mirrors the settings used for the first production models.
func DefaultConfig() Config {
	return Config{Epochs: 50, BatchSize: 32, LearningRate: 0.01, Seed: 42}
}

// LinearWindow is a linear regressor over the flattened window, trained with
// mini-batch SGD on mean squared error.
type LinearWindow struct {
	cfg Config

	WindowSize int               `json:"window_size"`
	Features   int               `json:"features"`
	Weights    []float64         `json:"weights"`
	Bias       float64           `json:"bias"`
	Stats      models.TrainStats `json:"stats"`
}

var _ service.Model = (*LinearWindow)(nil)

func NewLinearWindow(cfg Config) *LinearWindow {
	def := DefaultConfig()
	if cfg.Epochs <= 0 {
		cfg.Epochs = def.Epochs
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = def.LearningRate
	}
	return &LinearWindow{cfg: cfg}
}

// Factory adapts NewLinearWindow to service.ModelFactory.
func Factory(cfg Config) service.ModelFactory {
	return func() service.Model { return NewLinearWindow(cfg) }
}

func (m *LinearWindow) Train(ctx context.Context, x models.Tensor3, y []float64) (models.TrainStats, error) {
	if x.Len() == 0 {
		return models.TrainStats{}, &domain.EmptyFeatureSetError{WindowSize: x.WindowSize}
	}
	if x.Len() != len(y) {
		return models.TrainStats{}, fmt.Errorf("train: %d windows but %d targets", x.Len(), len(y))
	}

	m.WindowSize, m.Features = x.WindowSize, x.Features
	m.Weights = make([]float64, x.WindowSize*x.Features)
	m.Bias = 0

	inputs := make([][]float64, x.Len())
	for i, w := range x.Windows {
		inputs[i] = flatten(w, len(m.Weights))
	}

	rng := rand.New(rand.NewSource(m.cfg.Seed))
	order := rng.Perm(len(inputs))
	grad := make([]float64, len(m.Weights))

	var loss float64
	for ep := 0; ep < m.cfg.Epochs; ep++ {
		if err := ctx.Err(); err != nil {
			return models.TrainStats{}, err
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		for start := 0; start < len(order); start += m.cfg.BatchSize {
			end := start + m.cfg.BatchSize
			if end > len(order) {
				end = len(order)
			}
			batch := order[start:end]
			n := float64(len(batch))

			for j := range grad {
				grad[j] = 0
			}
			var gb float64
			for _, idx := range batch {
				e := m.predictOne(inputs[idx]) - y[idx]
				d := 2 * e / n
				floats.AddScaled(grad, d, inputs[idx])
				gb += d
			}
			floats.AddScaled(m.Weights, -m.cfg.LearningRate, grad)
			m.Bias -= m.cfg.LearningRate * gb
		}
		loss = m.mse(inputs, y)
	}

	m.Stats = models.TrainStats{Epochs: m.cfg.Epochs, Examples: len(inputs), FinalLoss: loss}
	return m.Stats, nil
}

func (m *LinearWindow) Predict(x models.Tensor3) ([]float64, error) {
	if m.Weights == nil {
		return nil, fmt.Errorf("predict: model is not trained")
	}
	if x.WindowSize != m.WindowSize || x.Features != m.Features {
		return nil, domain.NewDataFormatError("model expects windows of %dx%d, got %dx%d", m.WindowSize, m.Features, x.WindowSize, x.Features)
	}
	out := make([]float64, x.Len())
	for i, w := range x.Windows {
		out[i] = m.predictOne(flatten(w, len(m.Weights)))
	}
	return out, nil
}

func (m *LinearWindow) Save(w io.Writer) error {
	return json.NewEncoder(w).Encode(m)
}

func (m *LinearWindow) Load(r io.Reader) error {
	var saved LinearWindow
	if err := json.NewDecoder(r).Decode(&saved); err != nil {
		return fmt.Errorf("decode model: %w", err)
	}
	if len(saved.Weights) != saved.WindowSize*saved.Features {
		return fmt.Errorf("decode model: %d weights for %dx%d window", len(saved.Weights), saved.WindowSize, saved.Features)
	}
	saved.cfg = m.cfg
	*m = saved
	return nil
}

func (m *LinearWindow) predictOne(in []float64) float64 {
	return floats.Dot(m.Weights, in) + m.Bias
}

func (m *LinearWindow) mse(inputs [][]float64, y []float64) float64 {
	var sum float64
	for i, in := range inputs {
		e := m.predictOne(in) - y[i]
		sum += e * e
	}
	return sum / float64(len(inputs))
}

func flatten(window [][]float64, size int) []float64 {
	out := make([]float64, 0, size)
	for _, row := range window {
		out = append(out, row...)
	}
	return out
}
