package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinForecast/internal/domain"
	"FinForecast/internal/domain/models"
	domrepo "FinForecast/internal/domain/repository"
)

func TestPredictWithoutModel(t *testing.T) {
	f := newFixture(dailyPayload(80))
	defer f.close()

	_, err := f.prediction.Predict(context.Background(), PredictParams{Ticker: "IBM", Interval: domrepo.IntervalDaily, WindowSize: 5})
	assert.True(t, domain.IsModelNotFound(err))
	assert.Zero(t, f.sources.closed, "no fetch before the model check")
}

func TestPredictAfterTraining(t *testing.T) {
	f := newFixture(dailyPayload(80))
	defer f.close()
	ctx := context.Background()

	_, err := f.training.Train(ctx, TrainParams{Ticker: "IBM", Interval: domrepo.IntervalDaily, WindowSize: 5})
	require.NoError(t, err)

	resp, err := f.prediction.Predict(ctx, PredictParams{Ticker: "IBM", Interval: domrepo.IntervalDaily, WindowSize: 5})
	require.NoError(t, err)
	assert.Equal(t, "IBM", resp.Ticker)
	assert.False(t, resp.Cached)
	assert.Equal(t, firstBar.AddDate(0, 0, 79), resp.AsOf)

	state, ok, err := f.pipeline.scalers.Load(ctx, "IBM")
	require.NoError(t, err)
	require.True(t, ok)
	lo, hi, _ := state.Bounds(models.ColClose)
	assert.InDelta(t, lo+resp.ScaledPrediction*(hi-lo), resp.Prediction, 1e-9)

	again, err := f.prediction.Predict(ctx, PredictParams{Ticker: "IBM", Interval: domrepo.IntervalDaily, WindowSize: 5})
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, resp.Prediction, again.Prediction)

	var predicted int
	for _, ev := range f.events.events {
		if ev.Type == models.EventModelPredicted {
			predicted++
		}
	}
	assert.Equal(t, 1, predicted)
}

func TestPredictWindowMismatch(t *testing.T) {
	f := newFixture(dailyPayload(80))
	defer f.close()
	ctx := context.Background()

	_, err := f.training.Train(ctx, TrainParams{Ticker: "IBM", Interval: domrepo.IntervalDaily, WindowSize: 5})
	require.NoError(t, err)

	_, err = f.prediction.Predict(ctx, PredictParams{Ticker: "IBM", Interval: domrepo.IntervalDaily, WindowSize: 8, SkipCache: true})
	var format *domain.DataFormatError
	assert.True(t, errors.As(err, &format))
}
