package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"FinForecast/internal/domain"
	models "FinForecast/internal/domain/models"
	domrepo "FinForecast/internal/domain/repository"
	"FinForecast/internal/service/ratelimit"
	"FinForecast/internal/services/source"
	"FinForecast/internal/usecase"
	xhttp "FinForecast/pkg/http"
	xlogger "FinForecast/pkg/logger"
	"FinForecast/pkg/queue"
)

// Trainer fits and persists a model for one ticker.
type Trainer interface {
	Train(ctx context.Context, p usecase.TrainParams) (*usecase.TrainResult, error)
}

// Predictor forecasts the next close for one ticker.
type Predictor interface {
	Predict(ctx context.Context, p usecase.PredictParams) (*models.PredictResponse, error)
}

// HealthCheck probes one dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// ForecastEchoHandler serves the training and prediction endpoints.
type ForecastEchoHandler struct {
	logger  *xlogger.Logger
	trainer Trainer
	pred    Predictor
	jobs    queue.Enqueuer
	limiter *ratelimit.KeyedLimiter
	checks  []HealthCheck
}

// ForecastOption configures ForecastEchoHandler.
type ForecastOption func(*ForecastEchoHandler)

// WithJobQueue enables "async": true on /train.
func WithJobQueue(q queue.Enqueuer) ForecastOption {
	return func(h *ForecastEchoHandler) { h.jobs = q }
}

// WithTrainLimiter throttles /train per client IP.
func WithTrainLimiter(l *ratelimit.KeyedLimiter) ForecastOption {
	return func(h *ForecastEchoHandler) { h.limiter = l }
}

// WithHealthChecks adds dependency probes to /health.
func WithHealthChecks(checks ...HealthCheck) ForecastOption {
	return func(h *ForecastEchoHandler) { h.checks = append(h.checks, checks...) }
}

var _ xhttp.Handler = (*ForecastEchoHandler)(nil)

func NewForecastEchoHandler(logger *xlogger.Logger, trainer Trainer, pred Predictor, opts ...ForecastOption) *ForecastEchoHandler {
	h := &ForecastEchoHandler{logger: logger, trainer: trainer, pred: pred}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/train", h.Train)
	e.POST("/predict", h.Predict)
	e.GET("/health", h.Health)
}

func (h *ForecastEchoHandler) Train(c echo.Context) error {
	if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("training rate limit exceeded"))
	}

	req := &models.TrainRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if req.Async {
		return h.enqueueTraining(c, req)
	}

	res, err := h.trainer.Train(c.Request().Context(), usecase.TrainParams{
		Ticker:     req.Ticker,
		Interval:   domrepo.Interval(req.Interval),
		WindowSize: req.WindowSize,
		Source:     source.ParseSpec(req.Source, req.UseLocalData, req.LocalDataPath),
	})
	if err != nil {
		return h.fail(c, "train", err)
	}

	return xhttp.SuccessResponse(c, models.TrainResponse{
		Message:         "model trained",
		RunID:           res.RunID,
		Ticker:          res.Ticker,
		FeaturesShape:   res.FeaturesShape,
		TargetsShape:    res.TargetsShape,
		TrainLoss:       res.Loss,
		CleanedDataHead: res.CleanedHead,
	})
}

func (h *ForecastEchoHandler) enqueueTraining(c echo.Context, req *models.TrainRequest) error {
	if h.jobs == nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("async training is disabled"))
	}
	id, err := h.jobs.Enqueue(c.Request().Context(), usecase.TrainJobType, usecase.TrainJobPayload{
		Ticker:        req.Ticker,
		Interval:      req.Interval,
		WindowSize:    req.WindowSize,
		UseLocalData:  req.UseLocalData,
		LocalDataPath: req.LocalDataPath,
		Source:        req.Source,
	})
	if err != nil {
		h.logger.Error("enqueue training failed", xlogger.String("ticker", req.Ticker), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("could not queue training job"))
	}
	return xhttp.AcceptedResponse(c, models.TrainAcceptedResponse{
		Message: "training queued",
		JobID:   id,
		Ticker:  req.Ticker,
	})
}

func (h *ForecastEchoHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.pred.Predict(c.Request().Context(), usecase.PredictParams{
		Ticker:     req.Ticker,
		Interval:   domrepo.Interval(req.Interval),
		WindowSize: req.WindowSize,
		Source:     source.ParseSpec(req.Source, req.UseLocalData, req.LocalDataPath),
	})
	if err != nil {
		return h.fail(c, "predict", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	resp := models.HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	for _, chk := range h.checks {
		if err := chk.Check(ctx); err != nil {
			resp.Status = "degraded"
			resp.Checks[chk.Name] = err.Error()
			continue
		}
		resp.Checks[chk.Name] = "ok"
	}
	if resp.Status != "ok" {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, resp)
	}
	return xhttp.SuccessResponse(c, resp)
}

func (h *ForecastEchoHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(op+" usecase error", xlogger.Error(err))
	} else {
		h.logger.Debug(op+" rejected", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// toAppError maps domain failures onto HTTP statuses.
func toAppError(err error) *xhttp.AppError {
	var (
		notFound *domain.ModelNotFoundError
		conf     *domain.ConfigurationError
		format   *domain.DataFormatError
		empty    *domain.EmptyFeatureSetError
	)
	switch {
	case errors.As(err, &notFound):
		return xhttp.NotFoundError(notFound.Error()).WithError(err)
	case errors.Is(err, domain.ErrTrainingInProgress):
		return xhttp.ConflictError(err.Error())
	case errors.Is(err, domain.ErrInvalidTicker):
		return xhttp.BadRequestError(err.Error()).WithParam("field", "ticker")
	case errors.As(err, &conf):
		return xhttp.BadRequestError(conf.Error()).WithParam("setting", conf.Setting)
	case errors.As(err, &empty):
		return xhttp.UnprocessableError(empty.Error()).
			WithParam("rows", empty.Rows).
			WithParam("window_size", empty.WindowSize)
	case errors.As(err, &format):
		return xhttp.UnprocessableError(format.Error())
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
