package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	stageDuration *prometheus.HistogramVec
	stageRows     *prometheus.GaugeVec
	errorsTotal   *prometheus.CounterVec
	trainings     *prometheus.CounterVec
	trainLoss     *prometheus.GaugeVec
	trainExamples *prometheus.GaugeVec
	predictions   *prometheus.CounterVec
	lastForecast  *prometheus.GaugeVec
}

// New registers the collectors on reg; nil means the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		stageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finforecast_pipeline_stage_seconds",
				Help:    "Duration of pipeline stages",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"stage"},
		),
		stageRows: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finforecast_pipeline_stage_rows",
				Help: "Rows produced by the last run of each stage",
			},
			[]string{"stage"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finforecast_errors_total",
				Help: "Errors by kind",
			},
			[]string{"kind"},
		),
		trainings: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finforecast_trainings_total",
				Help: "Completed model trainings",
			},
			[]string{"ticker"},
		),
		trainLoss: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finforecast_training_loss",
				Help: "Final training loss of the latest model",
			},
			[]string{"ticker"},
		),
		trainExamples: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finforecast_training_examples",
				Help: "Examples used by the latest training",
			},
			[]string{"ticker"},
		),
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finforecast_predictions_total",
				Help: "Served predictions",
			},
			[]string{"ticker"},
		),
		lastForecast: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finforecast_last_prediction",
				Help: "Latest predicted close",
			},
			[]string{"ticker"},
		),
	}
}

func (r *Recorder) RecordStage(stage string, seconds float64) {
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
}

func (r *Recorder) RecordRows(stage string, rows int) {
	r.stageRows.WithLabelValues(stage).Set(float64(rows))
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordTraining(ticker string, loss float64, examples int) {
	r.trainings.WithLabelValues(ticker).Inc()
	r.trainLoss.WithLabelValues(ticker).Set(loss)
	r.trainExamples.WithLabelValues(ticker).Set(float64(examples))
}

func (r *Recorder) RecordPrediction(ticker string, value float64) {
	r.predictions.WithLabelValues(ticker).Inc()
	r.lastForecast.WithLabelValues(ticker).Set(value)
}

// Nop discards every observation.
type Nop struct{}

func (Nop) RecordStage(string, float64)         {}
func (Nop) RecordRows(string, int)              {}
func (Nop) RecordError(string)                  {}
func (Nop) RecordTraining(string, float64, int) {}
func (Nop) RecordPrediction(string, float64)    {}
