package dataprep

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinForecast/internal/domain"
	"FinForecast/internal/domain/models"
)

func TestExtractSingleBar(t *testing.T) {
	raw := payload(map[string]map[string]interface{}{
		stamp(0): bar("100.0", "101.5"),
	})

	ds, err := Extract(raw)
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, models.OHLCVColumns, ds.Columns)
	assert.Equal(t, 100.0, ds.Series(models.ColOpen)[0])
	assert.Equal(t, 101.5, ds.Series(models.ColClose)[0])
	assert.Equal(t, 1000.0, ds.Series(models.ColVolume)[0])
	assert.True(t, ds.Rows[0].Time.Equal(baseTime))
}

func TestExtractSortsAscending(t *testing.T) {
	raw := payload(map[string]map[string]interface{}{
		stamp(2): bar("3", "3"),
		stamp(0): bar("1", "1"),
		stamp(1): bar("2", "2"),
	})

	ds, err := Extract(raw)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, ds.Series(models.ColClose))
	for i := 1; i < ds.Len(); i++ {
		assert.True(t, ds.Rows[i-1].Time.Before(ds.Rows[i].Time))
	}
}

func TestExtractUnparsableValuesBecomeNaN(t *testing.T) {
	raw := payload(map[string]map[string]interface{}{
		stamp(0): {"1. open": "n/a", "4. close": "", "5. volume": nil},
	})

	ds, err := Extract(raw)
	require.NoError(t, err)
	for _, c := range models.OHLCVColumns {
		assert.True(t, math.IsNaN(ds.Series(c)[0]), "column %s", c)
	}
	assert.Equal(t, 5, ds.MissingCount())
}

func TestExtractNumericValues(t *testing.T) {
	raw := payload(map[string]map[string]interface{}{
		stamp(0): {"1. open": 12.5, "4. close": math.Inf(1)},
	})

	ds, err := Extract(raw)
	require.NoError(t, err)
	assert.Equal(t, 12.5, ds.Series(models.ColOpen)[0])
	assert.True(t, math.IsNaN(ds.Series(models.ColClose)[0]))
}

func TestExtractFormatErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  models.RawPayload
	}{
		{name: "missing key", raw: models.RawPayload{"Meta Data": map[string]interface{}{}}},
		{name: "empty series", raw: models.RawPayload{"Time Series (5min)": map[string]interface{}{}}},
		{name: "wrong type", raw: models.RawPayload{"Time Series (5min)": "oops"}},
		{name: "two series", raw: models.RawPayload{
			"Time Series (5min)":  map[string]interface{}{stamp(0): map[string]interface{}{}},
			"Time Series (Daily)": map[string]interface{}{stamp(0): map[string]interface{}{}},
		}},
		{name: "bad timestamp", raw: models.RawPayload{
			"Time Series (5min)": map[string]interface{}{"yesterday": map[string]interface{}{}},
		}},
		{name: "duplicate timestamp", raw: models.RawPayload{
			"Time Series (5min)": map[string]interface{}{
				"2024-01-02":          map[string]interface{}{},
				"2024-01-02 00:00:00": map[string]interface{}{},
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.raw)
			require.Error(t, err)
			var dfe *domain.DataFormatError
			assert.True(t, errors.As(err, &dfe))
		})
	}
}
