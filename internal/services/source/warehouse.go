package source

import (
	"context"
	"fmt"
	"strconv"

	"FinForecast/internal/domain/models"
	"FinForecast/internal/domain/repository"
)

// Warehouse serves candles already stored in ClickHouse in the same payload
// shape the remote provider returns.
type Warehouse struct {
	store repository.CandleStore
	limit int
}

var _ repository.DataSource = (*Warehouse)(nil)

func NewWarehouse(store repository.CandleStore, limit int) *Warehouse {
	return &Warehouse{store: store, limit: limit}
}

func (w *Warehouse) Name() string { return string(KindWarehouse) }

func (w *Warehouse) Fetch(ctx context.Context, ticker string, interval repository.Interval) (models.RawPayload, error) {
	candles, err := w.store.GetLatestCandles(ctx, ticker, interval, w.limit)
	if err != nil {
		return nil, fmt.Errorf("warehouse candles %s: %w", ticker, err)
	}

	series := make(map[string]interface{}, len(candles))
	for _, c := range candles {
		series[c.Bucket.UTC().Format("2006-01-02 15:04:05")] = map[string]interface{}{
			"1. open":   formatFloat(c.Open),
			"2. high":   formatFloat(c.High),
			"3. low":    formatFloat(c.Low),
			"4. close":  formatFloat(c.Close),
			"5. volume": formatFloat(c.Volume),
		}
	}
	return models.RawPayload{
		"Meta Data":         map[string]interface{}{"2. Symbol": ticker},
		seriesKey(interval): series,
	}, nil
}

func (w *Warehouse) Close() error { return nil }

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
