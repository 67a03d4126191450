package features

import (
	"fmt"

	"FinForecast/internal/domain"
	"FinForecast/internal/domain/models"
)

const (
	DefaultRSIWindow = 14
	DefaultMAWindow  = 20
)

// Engineer appends RSI and moving-average columns derived from close.
type Engineer struct {
	RSIWindow int
	MAWindow  int
}

// NewEngineer returns an Engineer with the default windows.
func NewEngineer() Engineer {
	return Engineer{RSIWindow: DefaultRSIWindow, MAWindow: DefaultMAWindow}
}

// WarmUp is the number of leading rows dropped because one of the indicators
// lacks history.
func (e Engineer) WarmUp() int {
	w := e.RSIWindow
	if e.MAWindow > w {
		w = e.MAWindow
	}
	return w - 1
}

// Apply returns a new dataset with rsi and ma columns and the warm-up rows
// removed. Too few rows gives an empty dataset.
func (e Engineer) Apply(ds *models.Dataset) (*models.Dataset, error) {
	if e.RSIWindow < 1 {
		return nil, &domain.ConfigurationError{Setting: "pipeline.rsi_window", Reason: fmt.Sprintf("must be >= 1, got %d", e.RSIWindow)}
	}
	if e.MAWindow < 1 {
		return nil, &domain.ConfigurationError{Setting: "pipeline.ma_window", Reason: fmt.Sprintf("must be >= 1, got %d", e.MAWindow)}
	}
	if ds.ColumnIndex(models.ColClose) < 0 {
		return nil, domain.NewDataFormatError("dataset has no %q column", models.ColClose)
	}

	cols := append(append([]models.Column(nil), ds.Columns...), models.ColRSI, models.ColMA)
	skip := e.WarmUp()
	if ds.Len() <= skip {
		return models.NewDataset(cols, 0), nil
	}

	closes := ds.Series(models.ColClose)
	rsi := RSI(closes, e.RSIWindow)
	ma := SMA(closes, e.MAWindow)

	out := models.NewDataset(cols, ds.Len()-skip)
	for i := skip; i < ds.Len(); i++ {
		src := ds.Rows[i].Values
		v := make([]float64, 0, len(cols))
		v = append(v, src...)
		v = append(v, rsi[i], ma[i])
		out.Rows = append(out.Rows, models.Row{Time: ds.Rows[i].Time, Values: v})
	}
	return out, nil
}
