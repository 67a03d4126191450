package models

import "time"

// TrainingRun records one completed fit of a ticker's model.
type TrainingRun struct {
	RunID      string        `json:"run_id"`
	Ticker     string        `json:"ticker"`
	Interval   string        `json:"interval"`
	WindowSize int           `json:"window_size"`
	Source     string        `json:"source"`
	Examples   int           `json:"examples"`
	Features   int           `json:"features"`
	Loss       float64       `json:"loss"`
	Duration   time.Duration `json:"duration"`
	CreatedAt  time.Time     `json:"created_at"`
}

// TrainStats summarizes a model fit.
type TrainStats struct {
	Epochs    int     `json:"epochs"`
	Examples  int     `json:"examples"`
	FinalLoss float64 `json:"final_loss"`
}

// Event types published on the model event stream.
const (
	EventModelTrained   = "model.trained"
	EventModelPredicted = "model.predicted"
)

// ModelEvent is the payload published after training or prediction.
type ModelEvent struct {
	Type       string    `json:"type"`
	Ticker     string    `json:"ticker"`
	Interval   string    `json:"interval"`
	WindowSize int       `json:"window_size"`
	RunID      string    `json:"run_id,omitempty"`
	Loss       float64   `json:"loss,omitempty"`
	Prediction float64   `json:"prediction,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
