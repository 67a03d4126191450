package dataprep

import (
	"encoding/json"
	"math"
	"sort"
	"strings"

	"FinForecast/internal/domain"
	"FinForecast/internal/domain/models"
	"FinForecast/pkg/util"
)

// TimeSeriesMarker identifies the payload section holding the bars.
const TimeSeriesMarker = "Time Series"

// Extract converts a raw provider payload into a chronologically sorted dataset
// with the OHLCV columns. Unparsable values become NaN; a missing or empty
// time-series section is a DataFormatError.
func Extract(raw models.RawPayload) (*models.Dataset, error) {
	key, err := findSeriesKey(raw)
	if err != nil {
		return nil, err
	}

	series, ok := raw[key].(map[string]interface{})
	if !ok || len(series) == 0 {
		return nil, domain.NewDataFormatError("section %q is empty", key)
	}

	ds := models.NewDataset(models.OHLCVColumns, len(series))
	seen := make(map[int64]string, len(series))
	for stamp, entry := range series {
		t, ok := util.ParseTime(stamp)
		if !ok {
			return nil, domain.NewDataFormatError("unparsable timestamp %q", stamp)
		}
		if prev, dup := seen[t.UnixNano()]; dup {
			return nil, domain.NewDataFormatError("duplicate timestamp %q and %q", prev, stamp)
		}
		seen[t.UnixNano()] = stamp

		values := make([]float64, len(models.OHLCVColumns))
		for i := range values {
			values[i] = math.NaN()
		}
		if fields, ok := entry.(map[string]interface{}); ok {
			for label, v := range fields {
				if idx := ds.ColumnIndex(models.Column(normalizeLabel(label))); idx >= 0 {
					values[idx] = coerce(v)
				}
			}
		}
		ds.Rows = append(ds.Rows, models.Row{Time: t, Values: values})
	}

	sort.Slice(ds.Rows, func(i, j int) bool { return ds.Rows[i].Time.Before(ds.Rows[j].Time) })
	return ds, nil
}

func findSeriesKey(raw models.RawPayload) (string, error) {
	var found []string
	for k := range raw {
		if strings.Contains(k, TimeSeriesMarker) {
			found = append(found, k)
		}
	}
	switch len(found) {
	case 0:
		return "", domain.NewDataFormatError("no %q section in payload", TimeSeriesMarker)
	case 1:
		return found[0], nil
	default:
		sort.Strings(found)
		return "", domain.NewDataFormatError("ambiguous time series sections %v", found)
	}
}

// normalizeLabel maps provider labels such as "4. close" to "close".
func normalizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if i := strings.Index(label, ". "); i >= 0 {
		label = label[i+2:]
	}
	return label
}

func coerce(v interface{}) float64 {
	switch x := v.(type) {
	case string:
		return util.ParseFloatOrNaN(x)
	case float64:
		if math.IsInf(x, 0) {
			return math.NaN()
		}
		return x
	case json.Number:
		return util.ParseFloatOrNaN(x.String())
	case int:
		return float64(x)
	case int64:
		return float64(x)
	default:
		return math.NaN()
	}
}
