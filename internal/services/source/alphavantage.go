package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"FinForecast/internal/domain"
	"FinForecast/internal/domain/models"
	"FinForecast/internal/domain/repository"
	"FinForecast/internal/service/ratelimit"
	xhttp "FinForecast/pkg/http"
	"FinForecast/pkg/logger"
)

const DefaultAlphaVantageURL = "https://www.alphavantage.co/query"

const limiterKey = "alphavantage"

// AlphaVantage fetches bars from the Alpha Vantage query API.
type AlphaVantage struct {
	cfg     Config
	client  *xhttp.Client
	limiter *ratelimit.KeyedLimiter
	log     *logger.Logger
}

var _ repository.DataSource = (*AlphaVantage)(nil)

func NewAlphaVantage(cfg Config, limiter *ratelimit.KeyedLimiter, log *logger.Logger) *AlphaVantage {
	return &AlphaVantage{
		cfg:     cfg,
		client:  xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		limiter: limiter,
		log:     log,
	}
}

func (a *AlphaVantage) Name() string { return string(KindRemote) }

// Fetch retries transient failures with a linear backoff.
func (a *AlphaVantage) Fetch(ctx context.Context, ticker string, interval repository.Interval) (models.RawPayload, error) {
	var err error
	for i := 1; i <= a.cfg.Retries; i++ {
		var raw models.RawPayload
		raw, err = a.fetchOnce(ctx, ticker, interval)
		if err == nil {
			return raw, nil
		}
		if !retryable(err) || i == a.cfg.Retries {
			break
		}
		a.log.Warn("alpha vantage request failed, retrying",
			logger.String("ticker", ticker),
			logger.Int("attempt", i),
			logger.Error(err),
		)
		select {
		case <-time.After(time.Duration(i) * 250 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, err
}

func (a *AlphaVantage) fetchOnce(ctx context.Context, ticker string, interval repository.Interval) (models.RawPayload, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx, limiterKey); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	params := map[string][]string{
		"symbol": {ticker},
		"apikey": {a.cfg.APIKey},
	}
	if interval.IsIntraday() {
		params["function"] = []string{"TIME_SERIES_INTRADAY"}
		params["interval"] = []string{string(interval)}
	} else {
		params["function"] = []string{"TIME_SERIES_DAILY"}
	}
	if a.cfg.OutputSize != "" {
		params["outputsize"] = []string{a.cfg.OutputSize}
	}

	var raw models.RawPayload
	err := a.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         a.cfg.BaseURL,
		QueryParams: params,
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("alpha vantage %s: %w", ticker, err)
	}

	if msg, ok := raw["Error Message"].(string); ok {
		return nil, domain.NewDataFormatError("provider rejected %s: %s", ticker, msg)
	}
	for _, k := range []string{"Note", "Information"} {
		if msg, ok := raw[k].(string); ok && !hasSeries(raw) {
			return nil, fmt.Errorf("alpha vantage %s: %s", ticker, strings.TrimSpace(msg))
		}
	}
	return raw, nil
}

// Close drops pooled connections.
func (a *AlphaVantage) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

func hasSeries(raw models.RawPayload) bool {
	for k := range raw {
		if strings.Contains(k, "Time Series") {
			return true
		}
	}
	return false
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var dfe *domain.DataFormatError
	if errors.As(err, &dfe) {
		return false
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}
