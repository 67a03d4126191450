package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, "environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "test", c.Environment)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 14, c.Pipeline.RSIWindow)
	assert.Equal(t, 20, c.Pipeline.MAWindow)
	assert.Equal(t, 50, c.Model.Epochs)
	assert.Equal(t, 32, c.Model.BatchSize)
	assert.Equal(t, "file", c.Artifacts.Backend)
	assert.Equal(t, 10*time.Second, c.AlphaVantage.Timeout)
	assert.Equal(t, 5, c.AlphaVantage.RequestsPerMinute)
}

func TestLoadParsesDurations(t *testing.T) {
	c, err := Load(writeConfig(t, `
server:
  port: 9090
  read_timeout: 3s
cache:
  prediction_ttl: 90s
`))
	require.NoError(t, err)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, 3*time.Second, c.Server.ReadTimeout)
	assert.Equal(t, 90*time.Second, c.Cache.PredictionTTL)
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"unknown backend":     "artifacts:\n  backend: ftp\n",
		"s3 without bucket":   "artifacts:\n  backend: s3\n",
		"queue without redis": "queue:\n  enabled: true\n",
		"scheduler no ticker": "scheduler:\n  enabled: true\n",
		"collector no kafka":  "log:\n  collector:\n    enabled: true\n",
		"bad port":            "server:\n  port: 70000\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("ALPHA_VANTAGE_API_KEY", "secret")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("RETRAIN_TICKERS", "IBM,MSFT")

	c, err := LoadWithEnv(writeConfig(t, "alpha_vantage:\n  api_key: from-file\n"))
	require.NoError(t, err)
	assert.Equal(t, "secret", c.AlphaVantage.APIKey)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, 9999, c.Server.Port)
	assert.Equal(t, []string{"IBM", "MSFT"}, c.Scheduler.Tickers)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestExampleConfigLoads(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "development", c.Environment)
}
