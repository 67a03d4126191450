package di

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalrepo "FinForecast/internal/repository"
	"FinForecast/pkg/cache"
	"FinForecast/pkg/config"
	"FinForecast/pkg/metrics"
)

func loadConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func TestInitializeAppStandalone(t *testing.T) {
	cfg := loadConfig(t, `
log:
  level: error
artifacts:
  backend: memory
`)
	app, err := InitializeApp(cfg)
	require.NoError(t, err)
	assert.NotNil(t, app)
}

func TestProvideFallbacksWhenInfrastructureDisabled(t *testing.T) {
	cfg := loadConfig(t, "artifacts:\n  backend: memory\n")
	l, err := ProvideLogger(cfg)
	require.NoError(t, err)

	client, err := ProvideRedisClient(cfg)
	require.NoError(t, err)
	assert.Nil(t, client)

	store := ProvideCache(cfg, client)
	defer store.Close()
	assert.IsType(t, &cache.MemoryCache{}, store)

	producer, err := ProvideKafkaProducer(cfg)
	require.NoError(t, err)
	assert.Nil(t, producer)
	assert.IsType(t, internalrepo.NoopEventPublisher{}, ProvideEventPublisher(cfg, producer))

	ch, err := ProvideClickHouseClient(cfg, l)
	require.NoError(t, err)
	assert.Nil(t, ch)
	assert.IsType(t, internalrepo.NoopTrainingRunStore{}, ProvideTrainingRunStore(ch, l))

	assert.IsType(t, metrics.Nop{}, ProvideMetrics(cfg))
	assert.Nil(t, ProvideJobQueue(cfg, l, client, nil))

	sched, err := ProvideRetrainScheduler(cfg, nil, l)
	require.NoError(t, err)
	assert.Nil(t, sched)
}

func TestProvideArtifactStore(t *testing.T) {
	cfg := loadConfig(t, "artifacts:\n  backend: memory\n")
	store, err := ProvideArtifactStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &internalrepo.MemoryArtifactStore{}, store)

	cfg.Artifacts.Backend = "file"
	cfg.Artifacts.Dir = t.TempDir()
	store, err = ProvideArtifactStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &internalrepo.FileArtifactStore{}, store)
}

func TestProvideRetrainSchedulerRejectsBadSpec(t *testing.T) {
	cfg := loadConfig(t, `
artifacts:
  backend: memory
scheduler:
  enabled: true
  spec: "not a cron spec"
  tickers: ["IBM"]
`)
	l, err := ProvideLogger(cfg)
	require.NoError(t, err)

	_, err = ProvideRetrainScheduler(cfg, nil, l)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrain scheduler")
}
