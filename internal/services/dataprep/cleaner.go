package dataprep

import (
	"math"

	"FinForecast/internal/domain/models"
)

// Clean forward-fills every column and then drops rows that still hold a
// missing value, which can only be leading gaps. Row order is preserved and
// the input is not modified.
func Clean(ds *models.Dataset) *models.Dataset {
	out := models.NewDataset(ds.Columns, len(ds.Rows))

	last := make([]float64, len(ds.Columns))
	for i := range last {
		last[i] = math.NaN()
	}

	for _, r := range ds.Rows {
		filled := make([]float64, len(r.Values))
		complete := true
		for i, v := range r.Values {
			if math.IsNaN(v) {
				v = last[i]
			} else {
				last[i] = v
			}
			filled[i] = v
			if math.IsNaN(v) {
				complete = false
			}
		}
		if complete {
			out.Rows = append(out.Rows, models.Row{Time: r.Time, Values: filled})
		}
	}
	return out
}
