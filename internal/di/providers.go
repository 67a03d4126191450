package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	domrepo "FinForecast/internal/domain/repository"
	"FinForecast/internal/domain/service"
	"FinForecast/internal/handler/api"
	internalrepo "FinForecast/internal/repository"
	icache "FinForecast/internal/service/cache"
	"FinForecast/internal/service/ratelimit"
	"FinForecast/internal/services/features"
	"FinForecast/internal/services/model"
	"FinForecast/internal/services/source"
	"FinForecast/internal/usecase"
	"FinForecast/pkg/cache"
	pkgch "FinForecast/pkg/clickhouse"
	"FinForecast/pkg/config"
	xhttp "FinForecast/pkg/http"
	pkgkafka "FinForecast/pkg/kafka"
	applogger "FinForecast/pkg/logger"
	"FinForecast/pkg/metrics"
	"FinForecast/pkg/queue"
	"FinForecast/pkg/server"
)

const connectTimeout = 10 * time.Second

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder, or a no-op one when
// metrics are disabled.
func ProvideMetrics(cfg *config.Config) domrepo.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideRedisClient connects to Redis. It returns nil when Redis is disabled.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, _, err := cache.NewRedisClient(ctx,
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns, 5*time.Second),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis client: %w", err)
	}
	return client, nil
}

// ProvideCache builds the shared cache: an in-process L1 over Redis when Redis
// is enabled, a bounded memory cache otherwise.
func ProvideCache(cfg *config.Config, client *redis.Client) cache.Service {
	if client == nil {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.L1Size))
	}
	return cache.NewLayeredCache(cache.NewRedisCache(client, cfg.Redis.Prefix), cfg.Cache.L1Size, cfg.Cache.L1TTL)
}

// ProvideKafkaProducer creates a Kafka producer. It returns nil when Kafka is
// disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithBatching(cfg.Kafka.BatchSize, cfg.Kafka.BatchTimeout),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithAutoCreateTopics(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideClickHouseClient creates a ClickHouse client and, when configured,
// the warehouse tables. It returns nil when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if cfg.ClickHouse.InitSchema {
		if err := client.InitSchema(ctx, internalrepo.Schema(client.Database())); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		l.Info("clickhouse schema ready", applogger.String("database", client.Database()))
	}
	return client, nil
}

// ProvideArtifactStore selects the blob store for scalers and models.
func ProvideArtifactStore(cfg *config.Config) (domrepo.ArtifactStore, error) {
	switch cfg.Artifacts.Backend {
	case "memory":
		return internalrepo.NewMemoryArtifactStore(), nil
	case "s3":
		s3cfg := internalrepo.S3Config{
			Bucket:          cfg.Artifacts.S3.Bucket,
			Prefix:          cfg.Artifacts.S3.Prefix,
			Region:          cfg.Artifacts.S3.Region,
			Endpoint:        cfg.Artifacts.S3.Endpoint,
			AccessKeyID:     cfg.Artifacts.S3.AccessKeyID,
			SecretAccessKey: cfg.Artifacts.S3.SecretAccessKey,
			UsePathStyle:    cfg.Artifacts.S3.UsePathStyle,
		}
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		client, err := internalrepo.NewS3Client(ctx, s3cfg)
		if err != nil {
			return nil, fmt.Errorf("s3 client: %w", err)
		}
		return internalrepo.NewS3ArtifactStore(client, s3cfg.Bucket, s3cfg.Prefix)
	default:
		return internalrepo.NewFileArtifactStore(cfg.Artifacts.Dir)
	}
}

func ProvideScalerStore(store domrepo.ArtifactStore, l *applogger.Logger) domrepo.ScalerStore {
	return internalrepo.NewArtifactScalerStore(store, l)
}

func ProvideModelStore(store domrepo.ArtifactStore) domrepo.ModelStore {
	return internalrepo.NewArtifactModelStore(store)
}

func ProvideModelFactory(cfg *config.Config) service.ModelFactory {
	return model.Factory(model.Config{
		Epochs:       cfg.Model.Epochs,
		BatchSize:    cfg.Model.BatchSize,
		LearningRate: cfg.Model.LearningRate,
		Seed:         cfg.Model.Seed,
	})
}

// ProvideEventPublisher publishes model events to Kafka, or drops them when
// no producer is configured.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer) domrepo.EventPublisher {
	if producer == nil {
		return internalrepo.NoopEventPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
}

// ProvideTrainingRunStore records training runs in ClickHouse when available.
func ProvideTrainingRunStore(ch *pkgch.Client, l *applogger.Logger) domrepo.TrainingRunStore {
	if ch == nil {
		return internalrepo.NoopTrainingRunStore{}
	}
	return internalrepo.NewCHTrainingRunStore(ch, l)
}

// ProvideSourceFactory builds the data source factory. Remote calls share one
// rate limiter; the warehouse source is enabled only with ClickHouse.
func ProvideSourceFactory(cfg *config.Config, l *applogger.Logger, ch *pkgch.Client) *source.Factory {
	opts := []source.FactoryOption{
		source.WithLimiter(ratelimit.PerMinute(cfg.AlphaVantage.RequestsPerMinute, cfg.AlphaVantage.Burst)),
	}
	if ch != nil {
		opts = append(opts, source.WithCandleStore(internalrepo.NewCHCandleStore(ch, cfg.ClickHouse.CandlesTable, l)))
	}
	return source.NewFactory(source.Config{
		APIKey:           cfg.AlphaVantage.APIKey,
		BaseURL:          cfg.AlphaVantage.BaseURL,
		Timeout:          cfg.AlphaVantage.Timeout,
		Retries:          cfg.AlphaVantage.Retries,
		OutputSize:       cfg.AlphaVantage.OutputSize,
		DataDir:          cfg.Pipeline.DataDir,
		DefaultLocalPath: cfg.Pipeline.DefaultLocalPath,
		WarehouseLimit:   cfg.Pipeline.WarehouseLimit,
	}, l, opts...)
}

func ProvidePipeline(
	cfg *config.Config,
	sources *source.Factory,
	scalers domrepo.ScalerStore,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.Pipeline {
	engineer := features.Engineer{RSIWindow: cfg.Pipeline.RSIWindow, MAWindow: cfg.Pipeline.MAWindow}
	return usecase.NewPipeline(sources, scalers, engineer, m, l)
}

func ProvidePredictionCache(cfg *config.Config, store cache.Service, l *applogger.Logger) *icache.PredictionCache {
	return icache.NewPredictionCache(store, cfg.Cache.PredictionTTL, l)
}

func ProvideTrainingLock(cfg *config.Config, store cache.Service) *icache.TrainingLock {
	return icache.NewTrainingLock(store, cfg.Cache.TrainLockTTL)
}

func ProvideTrainingUseCase(
	pipeline *usecase.Pipeline,
	models domrepo.ModelStore,
	newModel service.ModelFactory,
	runs domrepo.TrainingRunStore,
	events domrepo.EventPublisher,
	lock *icache.TrainingLock,
	predictions *icache.PredictionCache,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.TrainingUseCase {
	return usecase.NewTrainingUseCase(pipeline, models, newModel, runs, events, lock, predictions, m, l)
}

func ProvidePredictionUseCase(
	pipeline *usecase.Pipeline,
	models domrepo.ModelStore,
	newModel service.ModelFactory,
	predictions *icache.PredictionCache,
	events domrepo.EventPublisher,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.PredictionUseCase {
	return usecase.NewPredictionUseCase(pipeline, models, newModel, predictions, events, m, l)
}

// ProvideJobQueue creates the Redis job queue with the training job
// registered. It returns nil when the queue or Redis is disabled.
func ProvideJobQueue(
	cfg *config.Config,
	l *applogger.Logger,
	client *redis.Client,
	training *usecase.TrainingUseCase,
) *queue.RedisQueue {
	if !cfg.Queue.Enabled || client == nil {
		return nil
	}
	var opts []queue.RedisQueueOption
	if cfg.Queue.KeyPrefix != "" {
		opts = append(opts, queue.WithKeyPrefix(cfg.Queue.KeyPrefix))
	}
	q := queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, client, opts...)
	q.RegisterJob(usecase.NewTrainJob(training, l))
	return q
}

// ProvideRetrainScheduler creates the periodic retrainer. It returns nil when
// scheduling is disabled.
func ProvideRetrainScheduler(
	cfg *config.Config,
	training *usecase.TrainingUseCase,
	l *applogger.Logger,
) (*usecase.RetrainScheduler, error) {
	if !cfg.Scheduler.Enabled {
		return nil, nil
	}
	s, err := usecase.NewRetrainScheduler(usecase.RetrainConfig{
		Spec:       cfg.Scheduler.Spec,
		Tickers:    cfg.Scheduler.Tickers,
		Interval:   domrepo.NormalizeInterval(cfg.Scheduler.Interval),
		WindowSize: cfg.Scheduler.WindowSize,
		Source:     source.ParseSpec(cfg.Scheduler.Source, false, ""),
		Timeout:    cfg.Scheduler.Timeout,
	}, training, l)
	if err != nil {
		return nil, fmt.Errorf("retrain scheduler: %w", err)
	}
	return s, nil
}

// ProvideForecastHandler creates the HTTP handler with optional async
// training, rate limiting and dependency health checks.
func ProvideForecastHandler(
	cfg *config.Config,
	l *applogger.Logger,
	training *usecase.TrainingUseCase,
	prediction *usecase.PredictionUseCase,
	jobs *queue.RedisQueue,
	store cache.Service,
	ch *pkgch.Client,
) *api.ForecastEchoHandler {
	opts := []api.ForecastOption{
		api.WithHealthChecks(api.HealthCheck{Name: "cache", Check: store.Ping}),
	}
	if jobs != nil {
		opts = append(opts, api.WithJobQueue(jobs))
	}
	if cfg.RateLimit.TrainPerMinute > 0 {
		opts = append(opts, api.WithTrainLimiter(ratelimit.PerMinute(cfg.RateLimit.TrainPerMinute, cfg.RateLimit.TrainBurst)))
	}
	if ch != nil {
		opts = append(opts, api.WithHealthChecks(api.HealthCheck{Name: "clickhouse", Check: ch.Health}))
	}
	return api.NewForecastEchoHandler(l, training, prediction, opts...)
}

func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.ForecastEchoHandler) *xhttp.Server {
	return xhttp.NewServer(l, []xhttp.Handler{h},
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(len(cfg.Server.CORSOrigins) > 0, cfg.Server.CORSOrigins...),
		xhttp.WithBodyLimit(cfg.Server.BodyLimit),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer),
	)
}

// ProvideApp assembles the application lifecycle. Clients are closed in the
// order listed here, after every component has stopped.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	jobs *queue.RedisQueue,
	scheduler *usecase.RetrainScheduler,
	events domrepo.EventPublisher,
	store cache.Service,
	redisClient *redis.Client,
	ch *pkgch.Client,
) *server.App {
	if cfg.Log.Collector.Enabled {
		if pub, ok := events.(applogger.Publisher); ok {
			l.AddCollector(&applogger.CollectionConfig{
				TimeInterval:   cfg.Log.Collector.Interval,
				CountThreshold: cfg.Log.Collector.Threshold,
				Topic:          cfg.Log.Collector.Topic,
				Publisher:      pub,
			})
		}
	}

	opts := []server.Option{
		server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	}
	if jobs != nil {
		opts = append(opts, server.WithComponent("queue", jobs))
	}
	if scheduler != nil {
		opts = append(opts, server.WithComponent("scheduler", scheduler))
	}
	opts = append(opts,
		server.WithCloser("events", events.Close),
		server.WithCloser("cache", store.Close),
	)
	if redisClient != nil {
		opts = append(opts, server.WithCloser("redis", redisClient.Close))
	}
	if ch != nil {
		opts = append(opts, server.WithCloser("clickhouse", ch.Close))
	}
	return server.New(l, srv, opts...)
}
