package features

import (
	"gonum.org/v1/gonum/stat"
)

// RSI computes the relative strength index of closes over a trailing window of
// w rows using simple rolling means. The first delta is taken as zero. Entries
// before index w-1 lack history and are left at zero; callers drop them.
// A window with no losses yields 100.
func RSI(closes []float64, w int) []float64 {
	out := make([]float64, len(closes))
	if w < 1 || len(closes) < w {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}

	for i := w - 1; i < len(closes); i++ {
		g := stat.Mean(gains[i-w+1:i+1], nil)
		l := stat.Mean(losses[i-w+1:i+1], nil)
		if l == 0 {
			out[i] = 100
			continue
		}
		rs := g / l
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// SMA returns the simple moving average of values over a trailing window of w.
// Entries before index w-1 are zero.
func SMA(values []float64, w int) []float64 {
	out := make([]float64, len(values))
	if w < 1 || len(values) < w {
		return out
	}
	for i := w - 1; i < len(values); i++ {
		out[i] = stat.Mean(values[i-w+1:i+1], nil)
	}
	return out
}
