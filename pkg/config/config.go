package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"FinForecast/pkg/util"
)

type Config struct {
	Environment  string             `yaml:"environment"`
	Server       ServerConfig       `yaml:"server"`
	Log          LogConfig          `yaml:"log"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	AlphaVantage AlphaVantageConfig `yaml:"alpha_vantage"`
	Pipeline     PipelineConfig     `yaml:"pipeline"`
	Model        ModelConfig        `yaml:"model"`
	Artifacts    ArtifactsConfig    `yaml:"artifacts"`
	Redis        RedisConfig        `yaml:"redis"`
	Cache        CacheConfig        `yaml:"cache"`
	Queue        QueueConfig        `yaml:"queue"`
	Kafka        KafkaConfig        `yaml:"kafka"`
	ClickHouse   ClickHouseConfig   `yaml:"clickhouse"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	BodyLimit       string        `yaml:"body_limit"`
	SlowThreshold   time.Duration `yaml:"slow_threshold"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
	Collector  struct {
		Enabled   bool          `yaml:"enabled"`
		Topic     string        `yaml:"topic"`
		Interval  time.Duration `yaml:"interval"`
		Threshold int           `yaml:"threshold"`
	} `yaml:"collector"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type AlphaVantageConfig struct {
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	Retries           int           `yaml:"retries"`
	OutputSize        string        `yaml:"output_size"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Burst             int           `yaml:"burst"`
}

type PipelineConfig struct {
	DataDir          string `yaml:"data_dir"`
	DefaultLocalPath string `yaml:"default_local_path"`
	RSIWindow        int    `yaml:"rsi_window"`
	MAWindow         int    `yaml:"ma_window"`
	WarehouseLimit   int    `yaml:"warehouse_limit"`
}

type ModelConfig struct {
	Epochs       int     `yaml:"epochs"`
	BatchSize    int     `yaml:"batch_size"`
	LearningRate float64 `yaml:"learning_rate"`
	Seed         int64   `yaml:"seed"`
}

type ArtifactsConfig struct {
	Backend string `yaml:"backend"` // file, s3 or memory
	Dir     string `yaml:"dir"`
	S3      struct {
		Bucket          string `yaml:"bucket"`
		Prefix          string `yaml:"prefix"`
		Region          string `yaml:"region"`
		Endpoint        string `yaml:"endpoint"`
		AccessKeyID     string `yaml:"access_key_id"`
		SecretAccessKey string `yaml:"secret_access_key"`
		UsePathStyle    bool   `yaml:"use_path_style"`
	} `yaml:"s3"`
}

type RedisConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Addr         string `yaml:"addr"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	PoolSize     int    `yaml:"pool_size"`
	MinIdleConns int    `yaml:"min_idle_conns"`
	Prefix       string `yaml:"prefix"`
}

type CacheConfig struct {
	PredictionTTL time.Duration `yaml:"prediction_ttl"`
	TrainLockTTL  time.Duration `yaml:"train_lock_ttl"`
	L1Size        int           `yaml:"l1_size"`
	L1TTL         time.Duration `yaml:"l1_ttl"`
}

type QueueConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Workers    int           `yaml:"workers"`
	RetryLimit int           `yaml:"retry_limit"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	KeyPrefix  string        `yaml:"key_prefix"`
}

type KafkaConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	RequiredAcks int           `yaml:"required_acks"`
	Compression  string        `yaml:"compression"`
	MaxAttempts  int           `yaml:"max_attempts"`
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	Async        bool          `yaml:"async"`
}

type ClickHouseConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	Database         string        `yaml:"database"`
	User             string        `yaml:"user"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	CandlesTable     string        `yaml:"candles_table"`
	InitSchema       bool          `yaml:"init_schema"`
}

type SchedulerConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Spec       string        `yaml:"spec"`
	Tickers    []string      `yaml:"tickers"`
	Interval   string        `yaml:"interval"`
	WindowSize int           `yaml:"window_size"`
	Source     string        `yaml:"source"`
	Timeout    time.Duration `yaml:"timeout"`
}

type RateLimitConfig struct {
	TrainPerMinute int `yaml:"train_per_minute"`
	TrainBurst     int `yaml:"train_burst"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads .env (when present) and the YAML file, then lets
// environment variables override secrets and endpoints.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyEnv()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		c.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v)
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("AWS_S3_BUCKET"); v != "" {
		c.Artifacts.S3.Bucket = v
	}
	if v := os.Getenv("RETRAIN_TICKERS"); v != "" {
		c.Scheduler.Tickers = util.SplitList(v)
	}
}

func (c *Config) applyDefaults() {
	setString(&c.Environment, "development")

	setString(&c.Server.Host, "0.0.0.0")
	setInt(&c.Server.Port, 8080)
	setDuration(&c.Server.ReadTimeout, 10*time.Second)
	setDuration(&c.Server.WriteTimeout, 2*time.Minute)
	setDuration(&c.Server.ShutdownTimeout, 15*time.Second)
	setString(&c.Server.BodyLimit, "1M")
	setDuration(&c.Server.SlowThreshold, 5*time.Second)

	setString(&c.Log.Level, "info")
	setString(&c.Log.Format, "console")
	setString(&c.Log.Output, "stdout")
	setString(&c.Log.Collector.Topic, "finforecast.logs")

	setString(&c.AlphaVantage.BaseURL, "https://www.alphavantage.co/query")
	setDuration(&c.AlphaVantage.Timeout, 10*time.Second)
	setInt(&c.AlphaVantage.Retries, 3)
	setString(&c.AlphaVantage.OutputSize, "compact")
	setInt(&c.AlphaVantage.RequestsPerMinute, 5)
	setInt(&c.AlphaVantage.Burst, 1)

	setString(&c.Pipeline.DataDir, "data")
	setInt(&c.Pipeline.RSIWindow, 14)
	setInt(&c.Pipeline.MAWindow, 20)
	setInt(&c.Pipeline.WarehouseLimit, 1000)

	setInt(&c.Model.Epochs, 50)
	setInt(&c.Model.BatchSize, 32)
	if c.Model.LearningRate == 0 {
		c.Model.LearningRate = 0.01
	}
	if c.Model.Seed == 0 {
		c.Model.Seed = 42
	}

	setString(&c.Artifacts.Backend, "file")
	setString(&c.Artifacts.Dir, "artifacts")
	setString(&c.Artifacts.S3.Region, "us-east-1")

	setString(&c.Redis.Addr, "localhost:6379")
	setInt(&c.Redis.PoolSize, 10)
	setInt(&c.Redis.MinIdleConns, 2)
	setString(&c.Redis.Prefix, "finforecast")

	setDuration(&c.Cache.PredictionTTL, 5*time.Minute)
	setDuration(&c.Cache.TrainLockTTL, 30*time.Minute)
	setInt(&c.Cache.L1Size, 1000)
	setDuration(&c.Cache.L1TTL, 30*time.Second)

	setInt(&c.Queue.Workers, 2)
	setInt(&c.Queue.RetryLimit, 3)
	setDuration(&c.Queue.RetryDelay, 30*time.Second)
	setString(&c.Queue.KeyPrefix, "finforecast:queue")

	setString(&c.Kafka.Topic, "finforecast.model-events")
	setInt(&c.Kafka.RequiredAcks, 1)
	setString(&c.Kafka.Compression, "snappy")
	setInt(&c.Kafka.MaxAttempts, 5)
	setInt(&c.Kafka.BatchSize, 100)
	setDuration(&c.Kafka.BatchTimeout, 50*time.Millisecond)
	setDuration(&c.Kafka.WriteTimeout, 10*time.Second)

	setString(&c.ClickHouse.Host, "localhost")
	setInt(&c.ClickHouse.Port, 9000)
	setString(&c.ClickHouse.Database, "default")
	setString(&c.ClickHouse.User, "default")
	setDuration(&c.ClickHouse.DialTimeout, 5*time.Second)
	setDuration(&c.ClickHouse.ReadTimeout, 30*time.Second)
	setString(&c.ClickHouse.CandlesTable, "candles")

	setString(&c.Scheduler.Spec, "0 30 22 * * 1-5")
	setString(&c.Scheduler.Interval, "daily")
	setInt(&c.Scheduler.WindowSize, 10)
	setString(&c.Scheduler.Source, "remote")
	setDuration(&c.Scheduler.Timeout, 10*time.Minute)

	setInt(&c.RateLimit.TrainPerMinute, 6)
	setInt(&c.RateLimit.TrainBurst, 2)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Pipeline.RSIWindow < 1 || c.Pipeline.MAWindow < 1 {
		return fmt.Errorf("pipeline.rsi_window and pipeline.ma_window must be positive")
	}
	if c.Model.Epochs < 1 || c.Model.BatchSize < 1 || c.Model.LearningRate <= 0 {
		return fmt.Errorf("model.epochs, model.batch_size and model.learning_rate must be positive")
	}
	switch c.Artifacts.Backend {
	case "file", "memory":
	case "s3":
		if c.Artifacts.S3.Bucket == "" {
			return fmt.Errorf("artifacts.s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("artifacts.backend must be 'file', 's3' or 'memory', got '%s'", c.Artifacts.Backend)
	}
	if c.Queue.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("queue.enabled requires redis.enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Log.Collector.Enabled && !c.Kafka.Enabled {
		return fmt.Errorf("log.collector.enabled requires kafka.enabled")
	}
	if c.Scheduler.Enabled && len(c.Scheduler.Tickers) == 0 {
		return fmt.Errorf("scheduler.tickers cannot be empty when the scheduler is enabled")
	}
	if c.Scheduler.Enabled && c.Scheduler.Source == "warehouse" && !c.ClickHouse.Enabled {
		return fmt.Errorf("scheduler.source 'warehouse' requires clickhouse.enabled")
	}
	return nil
}

func setString(p *string, def string) {
	if *p == "" {
		*p = def
	}
}

func setInt(p *int, def int) {
	if *p == 0 {
		*p = def
	}
}

func setDuration(p *time.Duration, def time.Duration) {
	if *p == 0 {
		*p = def
	}
}
