package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordTraining("IBM", 0.25, 120)
	r.RecordTraining("IBM", 0.20, 130)
	r.RecordPrediction("IBM", 101.5)
	r.RecordError("data_format")
	r.RecordRows("clean", 42)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.trainings.WithLabelValues("IBM")))
	assert.Equal(t, 0.20, testutil.ToFloat64(r.trainLoss.WithLabelValues("IBM")))
	assert.Equal(t, 130.0, testutil.ToFloat64(r.trainExamples.WithLabelValues("IBM")))
	assert.Equal(t, 101.5, testutil.ToFloat64(r.lastForecast.WithLabelValues("IBM")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("data_format")))
	assert.Equal(t, 42.0, testutil.ToFloat64(r.stageRows.WithLabelValues("clean")))
}
