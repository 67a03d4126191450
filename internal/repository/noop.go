package repository

import (
	"context"

	"FinForecast/internal/domain/models"
	domrepo "FinForecast/internal/domain/repository"
)

// NoopEventPublisher drops events when Kafka is disabled.
type NoopEventPublisher struct{}

var _ domrepo.EventPublisher = NoopEventPublisher{}

func (NoopEventPublisher) Publish(context.Context, models.ModelEvent) error { return nil }

func (NoopEventPublisher) Close() error { return nil }

// NoopTrainingRunStore drops run history when ClickHouse is disabled.
type NoopTrainingRunStore struct{}

var _ domrepo.TrainingRunStore = NoopTrainingRunStore{}

func (NoopTrainingRunStore) Record(context.Context, models.TrainingRun) error { return nil }

func (NoopTrainingRunStore) Recent(context.Context, string, int) ([]models.TrainingRun, error) {
	return nil, nil
}
