package models

import (
	"math"
	"time"
)

// Column names a numeric field of a time-series row.
type Column string

const (
	ColOpen   Column = "open"
	ColHigh   Column = "high"
	ColLow    Column = "low"
	ColClose  Column = "close"
	ColVolume Column = "volume"
	ColRSI    Column = "rsi"
	ColMA     Column = "ma"
)

// OHLCVColumns is the column layout produced by extraction.
var OHLCVColumns = []Column{ColOpen, ColHigh, ColLow, ColClose, ColVolume}

// RawPayload is a provider response before extraction: named top-level
// sections, one of which maps timestamps to labeled numeric strings.
type RawPayload map[string]interface{}

// Row is one chronological tick. Values are aligned with Dataset.Columns;
// NaN marks a missing value.
type Row struct {
	Time   time.Time
	Values []float64
}

// Dataset is an ordered run of rows with strictly increasing timestamps.
type Dataset struct {
	Columns []Column
	Rows    []Row
}

// NewDataset allocates an empty dataset with capacity for n rows.
func NewDataset(cols []Column, n int) *Dataset {
	c := make([]Column, len(cols))
	copy(c, cols)
	return &Dataset{Columns: c, Rows: make([]Row, 0, n)}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// ColumnIndex returns the position of c, or -1.
func (d *Dataset) ColumnIndex(c Column) int {
	for i, col := range d.Columns {
		if col == c {
			return i
		}
	}
	return -1
}

// Series copies one column out of the dataset.
func (d *Dataset) Series(c Column) []float64 {
	idx := d.ColumnIndex(c)
	if idx < 0 {
		return nil
	}
	out := make([]float64, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = r.Values[idx]
	}
	return out
}

// Clone returns a deep copy; the result shares no storage with d.
func (d *Dataset) Clone() *Dataset {
	out := NewDataset(d.Columns, len(d.Rows))
	for _, r := range d.Rows {
		out.Append(r.Time, r.Values)
	}
	return out
}

// Append copies values into a new row.
func (d *Dataset) Append(t time.Time, values []float64) {
	v := make([]float64, len(values))
	copy(v, values)
	d.Rows = append(d.Rows, Row{Time: t, Values: v})
}

// MissingCount counts NaN cells.
func (d *Dataset) MissingCount() int {
	n := 0
	for _, r := range d.Rows {
		for _, v := range r.Values {
			if math.IsNaN(v) {
				n++
			}
		}
	}
	return n
}

// Head renders the first n rows as records for reporting.
func (d *Dataset) Head(n int) []map[string]interface{} {
	if n > len(d.Rows) {
		n = len(d.Rows)
	}
	out := make([]map[string]interface{}, 0, n)
	for _, r := range d.Rows[:n] {
		rec := make(map[string]interface{}, len(d.Columns)+1)
		rec["timestamp"] = r.Time.Format(time.RFC3339)
		for i, c := range d.Columns {
			rec[string(c)] = r.Values[i]
		}
		out = append(out, rec)
	}
	return out
}
