package di

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"TrendPull/internal/domain/repository"
	"TrendPull/internal/handler/api"
	internalrepo "TrendPull/internal/repository"
	"TrendPull/internal/service/coingecko"
	"TrendPull/internal/service/serpapi"
	"TrendPull/internal/service/trendcsv"
	"TrendPull/internal/services/alignment"
	"TrendPull/internal/usecase"
	"TrendPull/pkg/cache"
	pkgch "TrendPull/pkg/clickhouse"
	"TrendPull/pkg/config"
	xhttp "TrendPull/pkg/http"
	pkgkafka "TrendPull/pkg/kafka"
	applogger "TrendPull/pkg/logger"
	"TrendPull/pkg/metrics"
	"TrendPull/pkg/server"
)

const (
	userAgent   = "TrendPull/1.0"
	initTimeout = 10 * time.Second
	l1CacheTTL  = 5 * time.Minute
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideRegistry creates the Prometheus registry shared by every component.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

// ProvideCache creates the trend fetch cache for the configured backend.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	svc, err := cache.New(ctx, cache.Config{
		Backend:    cfg.Cache.Backend,
		MaxEntries: cfg.Cache.MemoryMaxSize,
		L1TTL:      l1CacheTTL,
		Redis: cache.RedisConfig{
			Host:     cfg.Cache.Redis.Host,
			Port:     cfg.Cache.Redis.Port,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return svc, nil
}

// ProvidePriceSource creates the CoinGecko client.
func ProvidePriceSource(cfg *config.Config) repository.PriceSource {
	hc := xhttp.NewClient(
		xhttp.WithTimeout(config.Timeout(cfg.Price.TimeoutSec)),
		xhttp.WithRateLimit(cfg.Price.RequestsPerSecond),
		xhttp.WithUserAgent(userAgent),
	)
	return coingecko.New(hc, cfg.Price.BaseURL,
		coingecko.WithAPIKey(cfg.Price.APIKey),
		coingecko.WithCoin(cfg.Price.CoinID, cfg.Price.VsCurrency),
	)
}

// ProvideTrendSource creates the SerpAPI client. It returns nil in CSV mode
// and when no API key is configured.
func ProvideTrendSource(cfg *config.Config, c cache.Service, log *applogger.Logger) repository.TrendSource {
	if cfg.Trends.Source != usecase.TrendModeAPI {
		return nil
	}
	if cfg.Trends.SerpAPI.APIKey == "" {
		log.Warn("SERPAPI_KEY not set, trend index falls back to the default score")
		return nil
	}

	hc := xhttp.NewClient(
		xhttp.WithTimeout(config.Timeout(cfg.Trends.SerpAPI.TimeoutSec)),
		xhttp.WithRateLimit(cfg.Trends.SerpAPI.RequestsPerSecond),
		xhttp.WithUserAgent(userAgent),
	)
	return serpapi.New(hc, cfg.Trends.SerpAPI.BaseURL, cfg.Trends.SerpAPI.APIKey,
		serpapi.WithGeo(cfg.Trends.SerpAPI.Geo),
		serpapi.WithCache(c, cfg.Trends.SerpAPI.CacheTTL()),
		serpapi.WithLogger(log),
	)
}

// ProvideCSVSource creates the CSV export reader.
func ProvideCSVSource(cfg *config.Config) repository.CSVTrendSource {
	return trendcsv.NewReader(cfg.Trends.CSV.SkipRows)
}

// ProvideArtifactWriter creates the JSON file writer.
func ProvideArtifactWriter(cfg *config.Config) repository.ArtifactWriter {
	return internalrepo.NewFileArtifactWriter(cfg.Output.Path, cfg.Output.Pretty)
}

// ProvidePointStore connects to ClickHouse and prepares the history table.
// It returns nil when ClickHouse is disabled.
func ProvidePointStore(cfg *config.Config, log *applogger.Logger) (repository.PointStore, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, true),
		pkgch.WithTimeouts(config.Timeout(cfg.ClickHouse.DialTimeoutSec), config.Timeout(cfg.ClickHouse.ReadTimeoutSec)),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if err := client.InitSchema(ctx, []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", cfg.ClickHouse.Database),
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse database: %w", err)
	}

	store := internalrepo.NewCHPointStore(client, cfg.ClickHouse.Database+"."+cfg.ClickHouse.Table, log)
	if err := store.Init(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvidePublisher creates the Kafka artifact publisher. It returns nil when
// Kafka is disabled.
func ProvidePublisher(cfg *config.Config, reg *prometheus.Registry) (repository.ArtifactPublisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithDelivery(cfg.Kafka.RequiredAcks, cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(config.Timeout(cfg.Kafka.WriteTimeoutSec)),
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaArtifactPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvidePipelineConfig translates the configuration into pipeline settings.
func ProvidePipelineConfig(cfg *config.Config) (usecase.PipelineConfig, error) {
	formats, err := alignment.FormatsByName(cfg.Dates.Formats)
	if err != nil {
		return usecase.PipelineConfig{}, err
	}
	mode, err := alignment.ParsePolicyMode(cfg.Alignment.MissingPolicy)
	if err != nil {
		return usecase.PipelineConfig{}, err
	}

	pc := usecase.PipelineConfig{
		Keywords:    cfg.Trends.Keywords,
		TrendMode:   cfg.Trends.Source,
		Concurrency: cfg.Trends.SerpAPI.Concurrency,
		Formats:     formats,
		Join: alignment.JoinOptions{
			ToleranceDays: cfg.Alignment.ToleranceDays,
			Policy:        alignment.MissingPolicy{Mode: mode, Default: cfg.Alignment.DefaultValue},
		},
		Primary: horizon(cfg.Horizons.Primary),
	}
	if cfg.Horizons.Extended.Enabled {
		ext := horizon(cfg.Horizons.Extended)
		pc.Extended = &ext
	}
	return pc, nil
}

func horizon(h config.HorizonConfig) usecase.Horizon {
	return usecase.Horizon{Name: h.Name, Days: h.Days, CSVPath: h.CSVPath}
}

// ProvidePipeline creates the trend index use case.
func ProvidePipeline(
	pc usecase.PipelineConfig,
	prices repository.PriceSource,
	trends repository.TrendSource,
	csv repository.CSVTrendSource,
	writer repository.ArtifactWriter,
	store repository.PointStore,
	pub repository.ArtifactPublisher,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.TrendIndexPipeline {
	opts := []usecase.PipelineOption{usecase.WithCSVSource(csv)}
	if trends != nil {
		opts = append(opts, usecase.WithTrendSource(trends))
	}
	if store != nil {
		opts = append(opts, usecase.WithPointStore(store))
	}
	if pub != nil {
		opts = append(opts, usecase.WithPublisher(pub))
	}
	return usecase.NewTrendIndexPipeline(pc, prices, writer, m, log, opts...)
}

// ProvideStreamHub creates the websocket hub used in serve mode.
func ProvideStreamHub(log *applogger.Logger, pipeline *usecase.TrendIndexPipeline) *api.StreamHub {
	return api.NewStreamHub(log, pipeline)
}

// ProvideHTTPServer creates the Echo server. It returns nil outside serve mode.
func ProvideHTTPServer(
	cfg *config.Config,
	log *applogger.Logger,
	reg *prometheus.Registry,
	pipeline *usecase.TrendIndexPipeline,
	hub *api.StreamHub,
) *xhttp.Server {
	if cfg.App.Mode != server.ModeServe {
		return nil
	}
	handlers := []xhttp.Handler{
		api.NewIndexHandler(log, pipeline),
		hub,
	}
	return xhttp.NewServer(log, handlers,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(
			config.Timeout(cfg.Server.ReadTimeoutSec),
			config.Timeout(cfg.Server.WriteTimeoutSec),
			config.Timeout(cfg.Server.ShutdownTimeoutSec),
		),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithRegistry(reg),
	)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	pipeline *usecase.TrendIndexPipeline,
	httpServer *xhttp.Server,
	hub *api.StreamHub,
	c cache.Service,
	store repository.PointStore,
	pub repository.ArtifactPublisher,
) *server.App {
	opts := server.Options{
		Mode:       cfg.App.Mode,
		Schedule:   cfg.Schedule.Cron,
		OutputPath: cfg.Output.Path,
	}

	closers := []io.Closer{c}
	if store != nil {
		closers = append(closers, store)
	}
	if pub != nil {
		closers = append(closers, pub)
	}

	if cfg.App.Mode != server.ModeServe {
		return server.New(opts, log, pipeline, nil, nil, closers...)
	}
	return server.New(opts, log, pipeline, httpServer, hub, closers...)
}
