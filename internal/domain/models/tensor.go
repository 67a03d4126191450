package models

import "time"

// Tensor3 holds examples × window_size × feature_count values.
type Tensor3 struct {
	Windows    [][][]float64
	WindowSize int
	Features   int
}

// Shape returns (examples, window_size, feature_count).
func (t Tensor3) Shape() [3]int {
	return [3]int{len(t.Windows), t.WindowSize, t.Features}
}

// Len returns the number of examples.
func (t Tensor3) Len() int { return len(t.Windows) }

// ScalerState is the per-column min/max captured by a fit. It is read-only
// once persisted.
type ScalerState struct {
	Ticker   string    `json:"ticker"`
	Columns  []Column  `json:"columns"`
	Min      []float64 `json:"min"`
	Max      []float64 `json:"max"`
	FittedAt time.Time `json:"fitted_at"`
}

// Bounds returns the fitted min and max of column c.
func (s *ScalerState) Bounds(c Column) (lo, hi float64, ok bool) {
	for i, col := range s.Columns {
		if col == c {
			return s.Min[i], s.Max[i], true
		}
	}
	return 0, 0, false
}
