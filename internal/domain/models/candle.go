package models

import "time"

// Candle is one OHLCV bar as stored in the warehouse.
type Candle struct {
	Bucket time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
