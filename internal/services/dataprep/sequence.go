package dataprep

import (
	"fmt"

	"FinForecast/internal/domain"
	"FinForecast/internal/domain/models"
)

// BuildSequences slices ds into windows of w consecutive rows. Window i covers
// rows [i, i+w) and its target is the close of row i+w, so n-w examples are
// produced. w >= n yields an empty tensor, not an error.
func BuildSequences(ds *models.Dataset, w int) (models.Tensor3, []float64, error) {
	if w < 1 {
		return models.Tensor3{}, nil, &domain.ConfigurationError{Setting: "window_size", Reason: fmt.Sprintf("must be >= 1, got %d", w)}
	}
	target := ds.ColumnIndex(models.ColClose)
	if target < 0 {
		return models.Tensor3{}, nil, domain.NewDataFormatError("dataset has no %q column", models.ColClose)
	}

	x := models.Tensor3{WindowSize: w, Features: len(ds.Columns)}
	n := ds.Len() - w
	if n <= 0 {
		x.Windows = [][][]float64{}
		return x, []float64{}, nil
	}

	x.Windows = make([][][]float64, 0, n)
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		x.Windows = append(x.Windows, window(ds, i, w))
		y = append(y, ds.Rows[i+w].Values[target])
	}
	return x, y, nil
}

// LatestWindow returns the trailing w rows as a single-example tensor for
// inference.
func LatestWindow(ds *models.Dataset, ticker string, w int) (models.Tensor3, error) {
	if w < 1 {
		return models.Tensor3{}, &domain.ConfigurationError{Setting: "window_size", Reason: fmt.Sprintf("must be >= 1, got %d", w)}
	}
	if ds.Len() < w {
		return models.Tensor3{}, &domain.EmptyFeatureSetError{Ticker: ticker, Rows: ds.Len(), WindowSize: w}
	}
	return models.Tensor3{
		Windows:    [][][]float64{window(ds, ds.Len()-w, w)},
		WindowSize: w,
		Features:   len(ds.Columns),
	}, nil
}

func window(ds *models.Dataset, start, w int) [][]float64 {
	out := make([][]float64, w)
	for j := 0; j < w; j++ {
		src := ds.Rows[start+j].Values
		row := make([]float64, len(src))
		copy(row, src)
		out[j] = row
	}
	return out
}
