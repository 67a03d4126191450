package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinForecast/internal/domain"
	"FinForecast/internal/domain/models"
	"FinForecast/internal/services/model"
	applogger "FinForecast/pkg/logger"
)

func TestScalerStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	artifacts := NewMemoryArtifactStore()
	s := NewArtifactScalerStore(artifacts, applogger.NewNop())

	_, ok, err := s.Load(ctx, "IBM")
	require.NoError(t, err)
	assert.False(t, ok)

	state := &models.ScalerState{
		Ticker:   "IBM",
		Columns:  []models.Column{models.ColClose},
		Min:      []float64{1},
		Max:      []float64{2},
		FittedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Save(ctx, state))

	exists, err := artifacts.Exists(ctx, "scalers/IBM.json")
	require.NoError(t, err)
	assert.True(t, exists)

	// a fresh store must read the persisted artifact
	fresh := NewArtifactScalerStore(artifacts, applogger.NewNop())
	got, ok, err := fresh.Load(ctx, "ibm")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, state.Min, got.Min)
	assert.Equal(t, state.Max, got.Max)
	assert.True(t, state.FittedAt.Equal(got.FittedAt))

	again, _, err := fresh.Load(ctx, "IBM")
	require.NoError(t, err)
	assert.Same(t, got, again)
}

func TestModelStoreNotFound(t *testing.T) {
	s := NewArtifactModelStore(NewMemoryArtifactStore())
	err := s.Load(context.Background(), "MSFT", model.NewLinearWindow(model.DefaultConfig()))

	var nf *domain.ModelNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "MSFT", nf.Ticker)
}

func TestModelStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewArtifactModelStore(NewMemoryArtifactStore())

	x := models.Tensor3{WindowSize: 1, Features: 2, Windows: [][][]float64{{{0, 1}}, {{1, 0}}, {{1, 1}}}}
	y := []float64{1, 2, 3}
	m := model.NewLinearWindow(model.Config{Epochs: 3})
	_, err := m.Train(ctx, x, y)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "IBM", m))
	ok, err := s.Exists(ctx, "IBM")
	require.NoError(t, err)
	assert.True(t, ok)

	loaded := model.NewLinearWindow(model.DefaultConfig())
	require.NoError(t, s.Load(ctx, "IBM", loaded))
	assert.Equal(t, m.Weights, loaded.Weights)
	assert.Equal(t, m.Bias, loaded.Bias)
}
