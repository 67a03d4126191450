package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinForecast/internal/domain"
	models "FinForecast/internal/domain/models"
	"FinForecast/internal/service/ratelimit"
	"FinForecast/internal/services/source"
	"FinForecast/internal/usecase"
	xhttp "FinForecast/pkg/http"
	xlogger "FinForecast/pkg/logger"
)

type fakeTrainer struct {
	got usecase.TrainParams
	err error
}

func (f *fakeTrainer) Train(_ context.Context, p usecase.TrainParams) (*usecase.TrainResult, error) {
	f.got = p
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.TrainResult{
		RunID:         "run-1",
		Ticker:        p.Ticker,
		FeaturesShape: [3]int{40, p.WindowSize, 7},
		TargetsShape:  [1]int{40},
		Loss:          0.01,
		CleanedHead:   []map[string]interface{}{{"close": 1.0}},
	}, nil
}

type fakePredictor struct {
	got usecase.PredictParams
	err error
}

func (f *fakePredictor) Predict(_ context.Context, p usecase.PredictParams) (*models.PredictResponse, error) {
	f.got = p
	if f.err != nil {
		return nil, f.err
	}
	return &models.PredictResponse{Ticker: p.Ticker, Prediction: 123.4, ScaledPrediction: 0.6}, nil
}

type fakeQueue struct {
	msgType string
	payload interface{}
	err     error
}

func (q *fakeQueue) Enqueue(_ context.Context, msgType string, payload interface{}) (string, error) {
	q.msgType, q.payload = msgType, payload
	return "job-7", q.err
}

func serve(h *ForecastEchoHandler, method, path, body string) (*httptest.ResponseRecorder, xhttp.APIResponse) {
	e := echo.New()
	e.HTTPErrorHandler = xhttp.ErrorHandler
	h.RegisterRoutes(e)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.RemoteAddr = "10.0.0.1:5555"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp xhttp.APIResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestTrainDefaults(t *testing.T) {
	tr := &fakeTrainer{}
	h := NewForecastEchoHandler(xlogger.NewNop(), tr, &fakePredictor{})

	rec, resp := serve(h, http.MethodPost, "/train", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "IBM", tr.got.Ticker)
	assert.Equal(t, "60min", string(tr.got.Interval))
	assert.Equal(t, 10, tr.got.WindowSize)
	assert.Equal(t, source.KindRemote, tr.got.Source.Kind)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "run-1", data["run_id"])
	assert.Equal(t, []interface{}{40.0, 10.0, 7.0}, data["features_shape"])
	assert.Len(t, data["cleaned_data_head"], 1)
}

func TestTrainLocalSource(t *testing.T) {
	tr := &fakeTrainer{}
	h := NewForecastEchoHandler(xlogger.NewNop(), tr, &fakePredictor{})

	rec, _ := serve(h, http.MethodPost, "/train", `{"ticker":"MSFT","interval":"daily","window_size":5,"use_local_data":true,"local_data_path":"msft.csv"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, source.Spec{Kind: source.KindLocal, LocalPath: "msft.csv"}, tr.got.Source)
}

func TestTrainValidation(t *testing.T) {
	h := NewForecastEchoHandler(xlogger.NewNop(), &fakeTrainer{}, &fakePredictor{})

	rec, _ := serve(h, http.MethodPost, "/train", `{"interval":"2h"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(h, http.MethodPost, "/train", `{"window_size":-3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", &domain.ModelNotFoundError{Ticker: "IBM"}, http.StatusNotFound},
		{"in progress", domain.ErrTrainingInProgress, http.StatusConflict},
		{"invalid ticker", domain.ErrInvalidTicker, http.StatusBadRequest},
		{"configuration", &domain.ConfigurationError{Setting: "alpha_vantage.api_key", Reason: "missing"}, http.StatusBadRequest},
		{"data format", domain.NewDataFormatError("no series"), http.StatusUnprocessableEntity},
		{"empty", &domain.EmptyFeatureSetError{Ticker: "IBM", Rows: 3, WindowSize: 10}, http.StatusUnprocessableEntity},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewForecastEchoHandler(xlogger.NewNop(), &fakeTrainer{err: tc.err}, &fakePredictor{err: tc.err})

			rec, resp := serve(h, http.MethodPost, "/predict", `{"ticker":"IBM"}`)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.status, resp.Status)

			rec, _ = serve(h, http.MethodPost, "/train", `{"ticker":"IBM"}`)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestInternalErrorHidesCause(t *testing.T) {
	h := NewForecastEchoHandler(xlogger.NewNop(), &fakeTrainer{}, &fakePredictor{err: errors.New("secret path /var/x")})

	rec, _ := serve(h, http.MethodPost, "/predict", `{}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestPredict(t *testing.T) {
	pr := &fakePredictor{}
	h := NewForecastEchoHandler(xlogger.NewNop(), &fakeTrainer{}, pr)

	rec, resp := serve(h, http.MethodPost, "/predict", `{"ticker":"AAPL","interval":"5min","window_size":30}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "AAPL", pr.got.Ticker)
	assert.Equal(t, 30, pr.got.WindowSize)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, 123.4, data["prediction"])
	assert.Equal(t, 0.6, data["scaled_prediction"])
}

func TestTrainAsync(t *testing.T) {
	q := &fakeQueue{}
	tr := &fakeTrainer{}
	h := NewForecastEchoHandler(xlogger.NewNop(), tr, &fakePredictor{}, WithJobQueue(q))

	rec, resp := serve(h, http.MethodPost, "/train", `{"ticker":"IBM","async":true,"source":"warehouse"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "job-7", resp.Data.(map[string]interface{})["job_id"])
	assert.Equal(t, usecase.TrainJobType, q.msgType)
	assert.Equal(t, "warehouse", q.payload.(usecase.TrainJobPayload).Source)
	assert.Empty(t, tr.got.Ticker, "training must not run inline")
}

func TestTrainAsyncWithoutQueue(t *testing.T) {
	h := NewForecastEchoHandler(xlogger.NewNop(), &fakeTrainer{}, &fakePredictor{})

	rec, _ := serve(h, http.MethodPost, "/train", `{"async":true}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTrainRateLimited(t *testing.T) {
	h := NewForecastEchoHandler(xlogger.NewNop(), &fakeTrainer{}, &fakePredictor{},
		WithTrainLimiter(ratelimit.New(0.001, 1)))

	rec, _ := serve(h, http.MethodPost, "/train", `{}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = serve(h, http.MethodPost, "/train", `{}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHealth(t *testing.T) {
	ok := HealthCheck{Name: "redis", Check: func(context.Context) error { return nil }}
	h := NewForecastEchoHandler(xlogger.NewNop(), &fakeTrainer{}, &fakePredictor{}, WithHealthChecks(ok))

	rec, resp := serve(h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", resp.Data.(map[string]interface{})["status"])

	down := HealthCheck{Name: "clickhouse", Check: func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
			return errors.New("connection refused")
		}
	}}
	h = NewForecastEchoHandler(xlogger.NewNop(), &fakeTrainer{}, &fakePredictor{}, WithHealthChecks(ok, down))
	rec, resp = serve(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	checks := resp.Data.(map[string]interface{})["checks"].(map[string]interface{})
	assert.Equal(t, "connection refused", checks["clickhouse"])
}
