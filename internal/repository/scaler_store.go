package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"FinForecast/internal/domain/models"
	domrepo "FinForecast/internal/domain/repository"
	applogger "FinForecast/pkg/logger"
)

// ArtifactScalerStore persists scaler states as JSON artifacts and keeps the
// loaded states in memory. Cached states are shared read-only across requests.
type ArtifactScalerStore struct {
	store domrepo.ArtifactStore
	l     *applogger.Logger

	mu    sync.RWMutex
	cache map[string]*models.ScalerState
}

var _ domrepo.ScalerStore = (*ArtifactScalerStore)(nil)

func NewArtifactScalerStore(store domrepo.ArtifactStore, l *applogger.Logger) *ArtifactScalerStore {
	return &ArtifactScalerStore{store: store, l: l, cache: make(map[string]*models.ScalerState)}
}

func (s *ArtifactScalerStore) Load(ctx context.Context, ticker string) (*models.ScalerState, bool, error) {
	t, err := NormalizeTicker(ticker)
	if err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	st, ok := s.cache[t]
	s.mu.RUnlock()
	if ok {
		return st, true, nil
	}

	data, err := s.store.Get(ctx, scalerKey(t))
	if errors.Is(err, domrepo.ErrArtifactNotFound) {
		return nil, false, nil
	}
	if err != nil {
		s.l.Error("scaler load failed", applogger.String("ticker", t), applogger.Error(err))
		return nil, false, fmt.Errorf("load scaler %s: %w", t, err)
	}

	st = &models.ScalerState{}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, false, fmt.Errorf("decode scaler %s: %w", t, err)
	}

	s.mu.Lock()
	if cached, ok := s.cache[t]; ok {
		st = cached
	} else {
		s.cache[t] = st
	}
	s.mu.Unlock()
	return st, true, nil
}

func (s *ArtifactScalerStore) Save(ctx context.Context, state *models.ScalerState) error {
	t, err := NormalizeTicker(state.Ticker)
	if err != nil {
		return err
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode scaler %s: %w", t, err)
	}
	if err := s.store.Put(ctx, scalerKey(t), data); err != nil {
		s.l.Error("scaler save failed", applogger.String("ticker", t), applogger.Error(err))
		return fmt.Errorf("save scaler %s: %w", t, err)
	}

	s.mu.Lock()
	s.cache[t] = state
	s.mu.Unlock()
	s.l.Debug("scaler saved", applogger.String("ticker", t), applogger.Int("columns", len(state.Columns)))
	return nil
}
