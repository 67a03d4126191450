package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"FinForecast/internal/domain"
	"FinForecast/internal/domain/models"
	"FinForecast/internal/domain/repository"
)

// providerLabels are the field names used in provider payloads.
var providerLabels = map[string]string{
	"open":   "1. open",
	"high":   "2. high",
	"low":    "3. low",
	"close":  "4. close",
	"volume": "5. volume",
}

// CSV reads bars from a local file whose first column is the timestamp.
// The remaining header names are matched case-insensitively to the OHLCV
// fields; other columns are ignored.
type CSV struct {
	path string
}

var _ repository.DataSource = (*CSV)(nil)

func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

func (c *CSV) Name() string { return string(KindLocal) }

func (c *CSV) Fetch(_ context.Context, ticker string, interval repository.Interval) (models.RawPayload, error) {
	f, err := os.Open(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &domain.ConfigurationError{Setting: "local_data_path", Reason: fmt.Sprintf("%s does not exist", c.path)}
		}
		return nil, fmt.Errorf("open %s: %w", c.path, err)
	}
	defer f.Close()

	return readCSV(f, ticker, interval)
}

func readCSV(r io.Reader, ticker string, interval repository.Interval) (models.RawPayload, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, domain.NewDataFormatError("csv is empty")
	}
	if err != nil {
		return nil, &domain.DataFormatError{Reason: "read csv header", Err: err}
	}
	if len(header) < 2 {
		return nil, domain.NewDataFormatError("csv needs a timestamp column and at least one value column")
	}

	labels := make([]string, len(header))
	for i, h := range header[1:] {
		name := strings.ToLower(strings.TrimSpace(h))
		if j := strings.Index(name, ". "); j >= 0 {
			name = name[j+2:]
		}
		labels[i+1] = providerLabels[name]
	}

	series := make(map[string]interface{})
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &domain.DataFormatError{Reason: fmt.Sprintf("csv line %d", line), Err: err}
		}
		stamp := strings.TrimSpace(rec[0])
		if stamp == "" {
			continue
		}
		if _, dup := series[stamp]; dup {
			return nil, domain.NewDataFormatError("csv line %d: duplicate timestamp %q", line, stamp)
		}
		fields := make(map[string]interface{}, len(providerLabels))
		for i := 1; i < len(rec) && i < len(labels); i++ {
			if labels[i] != "" {
				fields[labels[i]] = strings.TrimSpace(rec[i])
			}
		}
		series[stamp] = fields
	}

	return models.RawPayload{
		"Meta Data": map[string]interface{}{
			"2. Symbol":   ticker,
			"4. Interval": string(interval),
		},
		seriesKey(interval): series,
	}, nil
}

func (c *CSV) Close() error { return nil }
