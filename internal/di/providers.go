package di

import (
	"context"
	"fmt"
	"time"

	domrepo "HistPull/internal/domain/repository"
	"HistPull/internal/handler/api"
	internalrepo "HistPull/internal/repository"
	icache "HistPull/internal/service/cache"
	"HistPull/internal/service/ibgateway"
	"HistPull/internal/usecase"
	pkgch "HistPull/pkg/clickhouse"
	"HistPull/pkg/config"
	xhttp "HistPull/pkg/http"
	pkgkafka "HistPull/pkg/kafka"
	applogger "HistPull/pkg/logger"
	"HistPull/pkg/metrics"
	"HistPull/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideClickHouseClient creates a ClickHouse client and bootstraps the
// bar/tick schema. ReplacingMergeTree keyed by the row timestamp makes
// repeated gap writes idempotent.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	db := cfg.ClickHouse.Database
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		`CREATE TABLE IF NOT EXISTS ` + db + `.bars (
			symbol LowCardinality(String),
			sec_type LowCardinality(String),
			bar_size LowCardinality(String),
			what_to_show LowCardinality(String),
			use_rth UInt8,
			ts DateTime('UTC'),
			open Float64,
			high Float64,
			low Float64,
			close Float64,
			volume Float64,
			trade_count Int64,
			wap Float64,
			has_gaps UInt8
		) ENGINE = ReplacingMergeTree
		ORDER BY (symbol, sec_type, bar_size, what_to_show, use_rth, ts)`,
		`CREATE TABLE IF NOT EXISTS ` + db + `.ticks (
			symbol LowCardinality(String),
			sec_type LowCardinality(String),
			ts DateTime64(3, 'UTC'),
			price Float64,
			size Float64,
			exchange_code LowCardinality(String),
			special_conditions String
		) ENGINE = ReplacingMergeTree
		ORDER BY (symbol, sec_type, ts, price, size)`,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideGateway creates the upstream gateway client. Connect happens in
// App.Run so DI stays side-effect free.
func ProvideGateway(cfg *config.Config, log *applogger.Logger) *ibgateway.Client {
	gw := ibgateway.New(ibgateway.Config{
		URL:          cfg.Gateway.URL,
		CallTimeout:  cfg.Gateway.CallTimeout,
		RateCapacity: cfg.Gateway.RateCapacity,
		RateRefill:   cfg.Gateway.RateRefill,
	})
	gw.SetLogger(log)
	return gw
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideMarketStore creates the ClickHouse-backed bar/tick store.
func ProvideMarketStore(chClient *pkgch.Client, cfg *config.Config, log *applogger.Logger) domrepo.MarketStore {
	store := internalrepo.NewCHMarketStore(chClient, cfg.ClickHouse.Database)
	store.SetLogger(log)
	return store
}

// ProvideResponseCache selects Redis when configured, an in-process TTL
// cache otherwise.
func ProvideResponseCache(cfg *config.Config) icache.ResponseCache {
	if cfg.Cache.Redis.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideBackfiller assembles the backfill orchestrator.
func ProvideBackfiller(
	store domrepo.MarketStore,
	gateway *ibgateway.Client,
	m domrepo.Metrics,
	producer *pkgkafka.Producer,
	cfg *config.Config,
	log *applogger.Logger,
) *usecase.Backfiller {
	b := usecase.NewBackfiller(store, gateway, m)
	b.SetLogger(log)
	if producer != nil {
		b.SetPublisher(internalrepo.NewKafkaBackfillPublisher(producer, cfg.Kafka.Topic))
	}
	return b
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(
	log *applogger.Logger,
	backfiller *usecase.Backfiller,
	store domrepo.MarketStore,
	respCache icache.ResponseCache,
	m domrepo.Metrics,
	cfg *config.Config,
) xhttp.Handler {
	return api.NewMarketDataHandler(log, backfiller, store, respCache, m, cfg.Cache.TTL)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	gateway *ibgateway.Client,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
) *server.App {
	return server.New(cfg, log, handler, gateway, chClient, producer)
}
