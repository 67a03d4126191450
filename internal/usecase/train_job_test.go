package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinForecast/internal/domain"
	"FinForecast/internal/services/source"
	"FinForecast/pkg/logger"
	"FinForecast/pkg/queue"
)

func TestTrainJobHandle(t *testing.T) {
	f := newFixture(dailyPayload(80))
	defer f.close()
	job := NewTrainJob(f.training, logger.NewNop())

	body, err := json.Marshal(TrainJobPayload{Ticker: "IBM", Interval: "daily", WindowSize: 5})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), body))
	assert.Len(t, f.runs.runs, 1)
	assert.Equal(t, source.KindRemote, f.sources.specs[0].Kind)
}

func TestTrainJobPermanentFailures(t *testing.T) {
	f := newFixture(dailyPayload(25))
	defer f.close()
	job := NewTrainJob(f.training, logger.NewNop())
	ctx := context.Background()

	err := job.Handle(ctx, json.RawMessage(`not json`))
	assert.True(t, queue.IsPermanent(err))

	body, _ := json.Marshal(TrainJobPayload{Ticker: "IBM", Interval: "daily", WindowSize: 10})
	err = job.Handle(ctx, body)
	assert.True(t, queue.IsPermanent(err))
}

func TestTrainJobRetriesWhenLocked(t *testing.T) {
	f := newFixture(dailyPayload(80))
	defer f.close()
	job := NewTrainJob(f.training, logger.NewNop())
	ctx := context.Background()

	_, _, err := f.lock.Acquire(ctx, "IBM")
	require.NoError(t, err)

	body, _ := json.Marshal(TrainJobPayload{Ticker: "IBM", Interval: "daily", WindowSize: 5})
	err = job.Handle(ctx, body)
	assert.ErrorIs(t, err, domain.ErrTrainingInProgress)
	assert.False(t, queue.IsPermanent(err))
}

func TestTrainJobPayloadSource(t *testing.T) {
	p := TrainJobPayload{Ticker: "IBM", UseLocalData: true, LocalDataPath: "ibm.csv"}
	assert.Equal(t, source.Spec{Kind: source.KindLocal, LocalPath: "ibm.csv"}, p.params().Source)

	p = TrainJobPayload{Ticker: "IBM", Source: "warehouse"}
	assert.Equal(t, source.KindWarehouse, p.params().Source.Kind)
}
