package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domrepo "FinForecast/internal/domain/repository"
	"FinForecast/pkg/logger"
)

func TestRetrainSchedulerRunNow(t *testing.T) {
	f := newFixture(dailyPayload(80))
	defer f.close()

	s, err := NewRetrainScheduler(RetrainConfig{
		Spec:       "0 0 2 * * *",
		Tickers:    []string{"IBM", "MSFT", "bad/ticker"},
		Interval:   domrepo.IntervalDaily,
		WindowSize: 5,
	}, f.training, logger.NewNop())
	require.NoError(t, err)

	s.RunNow()
	require.Len(t, f.runs.runs, 2)
	assert.Equal(t, "IBM", f.runs.runs[0].Ticker)
	assert.Equal(t, "MSFT", f.runs.runs[1].Ticker)
}

func TestRetrainSchedulerBadSpec(t *testing.T) {
	f := newFixture(dailyPayload(80))
	defer f.close()

	_, err := NewRetrainScheduler(RetrainConfig{Spec: "every tuesday"}, f.training, logger.NewNop())
	assert.Error(t, err)
}

func TestRetrainSchedulerStartStop(t *testing.T) {
	f := newFixture(dailyPayload(80))
	defer f.close()

	s, err := NewRetrainScheduler(RetrainConfig{Spec: "0 0 2 * * *", Tickers: []string{"IBM"}}, f.training, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
	assert.Empty(t, f.runs.runs)
}
