package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"FinForecast/internal/domain/models"
	domrepo "FinForecast/internal/domain/repository"
	pkgch "FinForecast/pkg/clickhouse"
	applogger "FinForecast/pkg/logger"
)

const (
	TrainingRunsTable = "training_runs"
	CandlesTable      = "candles"
)

// Schema returns the DDL for the warehouse tables, qualified by database.
func Schema(database string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            run_id      String,
            ticker      LowCardinality(String),
            interval    LowCardinality(String),
            window_size UInt32,
            source      LowCardinality(String),
            examples    UInt32,
            features    UInt16,
            loss        Float64,
            duration_ms UInt64,
            created_at  DateTime64(3, 'UTC')
        ) ENGINE = MergeTree
        ORDER BY (ticker, created_at)`, qualify(database, TrainingRunsTable)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            bucket   DateTime('UTC'),
            symbol   LowCardinality(String),
            interval LowCardinality(String),
            open     Float64,
            high     Float64,
            low      Float64,
            close    Float64,
            volume   Float64
        ) ENGINE = ReplacingMergeTree
        ORDER BY (symbol, interval, bucket)`, qualify(database, CandlesTable)),
	}
}

// CHTrainingRunStore records training history in ClickHouse.
type CHTrainingRunStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

var _ domrepo.TrainingRunStore = (*CHTrainingRunStore)(nil)

func NewCHTrainingRunStore(ch *pkgch.Client, l *applogger.Logger) *CHTrainingRunStore {
	return &CHTrainingRunStore{db: ch.DB(), table: qualify(ch.Database(), TrainingRunsTable), l: l}
}

func (s *CHTrainingRunStore) Record(ctx context.Context, run models.TrainingRun) error {
	q := fmt.Sprintf(`INSERT INTO %s
        (run_id, ticker, interval, window_size, source, examples, features, loss, duration_ms, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	_, err := s.db.ExecContext(ctx, q,
		run.RunID,
		run.Ticker,
		run.Interval,
		uint32(run.WindowSize),
		run.Source,
		uint32(run.Examples),
		uint16(run.Features),
		run.Loss,
		uint64(run.Duration.Milliseconds()),
		run.CreatedAt,
	)
	if err != nil {
		s.l.Error("clickhouse record training run error",
			applogger.String("run_id", run.RunID),
			applogger.String("ticker", run.Ticker),
			applogger.Error(err),
		)
		return fmt.Errorf("record training run: %w", err)
	}
	return nil
}

func (s *CHTrainingRunStore) Recent(ctx context.Context, ticker string, limit int) ([]models.TrainingRun, error) {
	q := fmt.Sprintf(`
        SELECT run_id, ticker, interval, window_size, source, examples, features, loss, duration_ms, created_at
        FROM %s
        WHERE ticker = ?
        ORDER BY created_at DESC
        LIMIT ?
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("recent training runs: %w", err)
	}
	defer rows.Close()

	var out []models.TrainingRun
	for rows.Next() {
		var (
			r                models.TrainingRun
			window, examples uint32
			features         uint16
			durationMS       uint64
		)
		if err := rows.Scan(&r.RunID, &r.Ticker, &r.Interval, &window, &r.Source, &examples, &features, &r.Loss, &durationMS, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan training run: %w", err)
		}
		r.WindowSize = int(window)
		r.Examples = int(examples)
		r.Features = int(features)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}
