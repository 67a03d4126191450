package repository

import (
	"context"
	"sync"

	domrepo "FinForecast/internal/domain/repository"
)

// MemoryArtifactStore keeps artifacts in process memory. Used when
// artifacts.backend is "memory" and in tests.
type MemoryArtifactStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ domrepo.ArtifactStore = (*MemoryArtifactStore)(nil)

func NewMemoryArtifactStore() *MemoryArtifactStore {
	return &MemoryArtifactStore{data: make(map[string][]byte)}
}

func (s *MemoryArtifactStore) Put(_ context.Context, key string, data []byte) error {
	cp := append([]byte(nil), data...)
	s.mu.Lock()
	s.data[key] = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryArtifactStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.data[key]
	if !ok {
		return nil, domrepo.ErrArtifactNotFound
	}
	return append([]byte(nil), d...), nil
}

func (s *MemoryArtifactStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok, nil
}

func (s *MemoryArtifactStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}
