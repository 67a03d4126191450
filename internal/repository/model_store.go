package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"FinForecast/internal/domain"
	domrepo "FinForecast/internal/domain/repository"
	"FinForecast/internal/domain/service"
)

// ArtifactModelStore persists one serialized model per ticker.
type ArtifactModelStore struct {
	store domrepo.ArtifactStore
}

var _ domrepo.ModelStore = (*ArtifactModelStore)(nil)

func NewArtifactModelStore(store domrepo.ArtifactStore) *ArtifactModelStore {
	return &ArtifactModelStore{store: store}
}

func (s *ArtifactModelStore) Save(ctx context.Context, ticker string, m service.Model) error {
	t, err := NormalizeTicker(ticker)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := m.Save(&buf); err != nil {
		return fmt.Errorf("serialize model %s: %w", t, err)
	}
	if err := s.store.Put(ctx, modelKey(t), buf.Bytes()); err != nil {
		return fmt.Errorf("save model %s: %w", t, err)
	}
	return nil
}

// Load fills m from the persisted artifact. A missing artifact is a
// ModelNotFoundError.
func (s *ArtifactModelStore) Load(ctx context.Context, ticker string, m service.Model) error {
	t, err := NormalizeTicker(ticker)
	if err != nil {
		return err
	}
	data, err := s.store.Get(ctx, modelKey(t))
	if errors.Is(err, domrepo.ErrArtifactNotFound) {
		return &domain.ModelNotFoundError{Ticker: t}
	}
	if err != nil {
		return fmt.Errorf("load model %s: %w", t, err)
	}
	if err := m.Load(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("load model %s: %w", t, err)
	}
	return nil
}

func (s *ArtifactModelStore) Exists(ctx context.Context, ticker string) (bool, error) {
	t, err := NormalizeTicker(ticker)
	if err != nil {
		return false, err
	}
	return s.store.Exists(ctx, modelKey(t))
}
