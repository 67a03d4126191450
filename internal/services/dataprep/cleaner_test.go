package dataprep

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinForecast/internal/domain/models"
)

func TestCleanForwardFills(t *testing.T) {
	ds := rampDataset(4)
	ds.Rows[2].Values[3] = math.NaN()

	out := Clean(ds)
	require.Equal(t, 4, out.Len())
	assert.Equal(t, 101.0, out.Series(models.ColClose)[2])
	assert.Zero(t, out.MissingCount())
	assert.True(t, math.IsNaN(ds.Rows[2].Values[3]), "input must not be modified")
}

func TestCleanDropsLeadingGaps(t *testing.T) {
	ds := rampDataset(10)
	ds.Rows[0].Values[0] = math.NaN()
	ds.Rows[1].Values[0] = math.NaN()
	ds.Rows[1].Values[4] = math.NaN()

	out := Clean(ds)
	require.Equal(t, 8, out.Len())
	assert.True(t, out.Rows[0].Time.Equal(ds.Rows[2].Time))
	assert.Zero(t, out.MissingCount())
}

func TestCleanIdempotent(t *testing.T) {
	ds := rampDataset(6)
	ds.Rows[0].Values[1] = math.NaN()
	ds.Rows[3].Values[2] = math.NaN()

	once := Clean(ds)
	twice := Clean(once)
	assert.Equal(t, once, twice)
}

func TestCleanAllMissingColumn(t *testing.T) {
	ds := rampDataset(3)
	for i := range ds.Rows {
		ds.Rows[i].Values[4] = math.NaN()
	}
	assert.Zero(t, Clean(ds).Len())
}
