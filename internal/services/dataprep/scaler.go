package dataprep

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"

	"FinForecast/internal/domain"
	"FinForecast/internal/domain/models"
)

// Fit captures per-column min/max from ds and returns the frozen state with
// ds rescaled to [0, 1]. A constant column maps to 0.
func Fit(ticker string, ds *models.Dataset) (*models.ScalerState, *models.Dataset, error) {
	if ds.Len() == 0 {
		return nil, nil, domain.NewDataFormatError("cannot fit scaler on an empty dataset")
	}

	state := &models.ScalerState{
		Ticker:   ticker,
		Columns:  append([]models.Column(nil), ds.Columns...),
		Min:      make([]float64, len(ds.Columns)),
		Max:      make([]float64, len(ds.Columns)),
		FittedAt: time.Now().UTC(),
	}
	for i, c := range ds.Columns {
		s := ds.Series(c)
		state.Min[i] = floats.Min(s)
		state.Max[i] = floats.Max(s)
	}

	scaled, err := Transform(state, ds)
	if err != nil {
		return nil, nil, err
	}
	return state, scaled, nil
}

// Transform applies a previously fitted state without refitting. Values outside
// the fitted range are not clamped.
func Transform(state *models.ScalerState, ds *models.Dataset) (*models.Dataset, error) {
	if err := checkColumns(state, ds); err != nil {
		return nil, err
	}

	out := models.NewDataset(ds.Columns, ds.Len())
	for _, r := range ds.Rows {
		v := make([]float64, len(r.Values))
		for i, x := range r.Values {
			v[i] = scale(x, state.Min[i], state.Max[i])
		}
		out.Rows = append(out.Rows, models.Row{Time: r.Time, Values: v})
	}
	return out, nil
}

// Inverse maps a scaled value of column c back to its original units.
func Inverse(state *models.ScalerState, c models.Column, scaled float64) (float64, error) {
	lo, hi, ok := state.Bounds(c)
	if !ok {
		return 0, domain.NewDataFormatError("scaler has no column %q", c)
	}
	if hi == lo {
		return lo, nil
	}
	return scaled*(hi-lo) + lo, nil
}

func scale(x, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	return (x - lo) / (hi - lo)
}

func checkColumns(state *models.ScalerState, ds *models.Dataset) error {
	if len(state.Min) != len(state.Columns) || len(state.Max) != len(state.Columns) {
		return domain.NewDataFormatError("corrupt scaler state for %s", state.Ticker)
	}
	if len(state.Columns) != len(ds.Columns) {
		return domain.NewDataFormatError("scaler fitted on %d columns, dataset has %d", len(state.Columns), len(ds.Columns))
	}
	for i, c := range ds.Columns {
		if state.Columns[i] != c {
			return &domain.DataFormatError{
				Reason: "scaler column mismatch",
				Err:    fmt.Errorf("position %d: fitted %q, got %q", i, state.Columns[i], c),
			}
		}
	}
	return nil
}
