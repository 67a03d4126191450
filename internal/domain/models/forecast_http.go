package models

import "time"

// Requests for the forecast HTTP endpoints.

type TrainRequest struct {
	Ticker        string `json:"ticker" default:"IBM" validate:"required,max=16"`
	Interval      string `json:"interval" default:"60min" validate:"oneof=1min 5min 15min 30min 60min daily"`
	WindowSize    int    `json:"window_size" default:"10" validate:"gte=1,lte=500"`
	UseLocalData  bool   `json:"use_local_data"`
	LocalDataPath string `json:"local_data_path" validate:"omitempty,max=1024"`
	Source        string `json:"source" validate:"omitempty,oneof=remote local warehouse"`
	Async         bool   `json:"async"`
}

type PredictRequest struct {
	Ticker        string `json:"ticker" default:"IBM" validate:"required,max=16"`
	Interval      string `json:"interval" default:"60min" validate:"oneof=1min 5min 15min 30min 60min daily"`
	WindowSize    int    `json:"window_size" default:"10" validate:"gte=1,lte=500"`
	UseLocalData  bool   `json:"use_local_data"`
	LocalDataPath string `json:"local_data_path" validate:"omitempty,max=1024"`
	Source        string `json:"source" validate:"omitempty,oneof=remote local warehouse"`
}

type TrainResponse struct {
	Message         string                   `json:"message"`
	RunID           string                   `json:"run_id"`
	Ticker          string                   `json:"ticker"`
	FeaturesShape   [3]int                   `json:"features_shape"`
	TargetsShape    [1]int                   `json:"targets_shape"`
	TrainLoss       float64                  `json:"train_loss"`
	CleanedDataHead []map[string]interface{} `json:"cleaned_data_head"`
}

type TrainAcceptedResponse struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
	Ticker  string `json:"ticker"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type PredictResponse struct {
	Ticker           string    `json:"ticker"`
	Prediction       float64   `json:"prediction"`
	ScaledPrediction float64   `json:"scaled_prediction"`
	AsOf             time.Time `json:"as_of"`
	Cached           bool      `json:"cached"`
}
