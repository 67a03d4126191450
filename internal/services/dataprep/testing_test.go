package dataprep

import (
	"time"

	"FinForecast/internal/domain/models"
)

var baseTime = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

// rampDataset builds n hourly OHLCV rows with close = 100+i.
func rampDataset(n int) *models.Dataset {
	ds := models.NewDataset(models.OHLCVColumns, n)
	for i := 0; i < n; i++ {
		c := 100 + float64(i)
		ds.Append(baseTime.Add(time.Duration(i)*time.Hour), []float64{c - 0.5, c + 1, c - 1, c, 1000 + float64(i)})
	}
	return ds
}

func payload(bars map[string]map[string]interface{}) models.RawPayload {
	series := make(map[string]interface{}, len(bars))
	for k, v := range bars {
		series[k] = map[string]interface{}(v)
	}
	return models.RawPayload{
		"Meta Data":           map[string]interface{}{"2. Symbol": "IBM"},
		"Time Series (60min)": series,
	}
}

func stamp(i int) string {
	return baseTime.Add(time.Duration(i) * time.Hour).Format("2006-01-02 15:04:05")
}

func bar(open, close string) map[string]interface{} {
	return map[string]interface{}{
		"1. open":   open,
		"2. high":   "110.0",
		"3. low":    "90.0",
		"4. close":  close,
		"5. volume": "1000",
	}
}
