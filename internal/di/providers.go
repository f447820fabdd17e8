package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"NotiGate/internal/domain/repository"
	"NotiGate/internal/handler/api"
	mid "NotiGate/internal/middleware"
	internalrepo "NotiGate/internal/repository"
	"NotiGate/internal/service/blackout"
	"NotiGate/internal/service/sigstream"
	"NotiGate/internal/service/throttle"
	"NotiGate/internal/usecase"
	"NotiGate/pkg/cache"
	pkgch "NotiGate/pkg/clickhouse"
	"NotiGate/pkg/config"
	pkghttp "NotiGate/pkg/http"
	pkgkafka "NotiGate/pkg/kafka"
	applogger "NotiGate/pkg/logger"
	"NotiGate/pkg/metrics"
	"NotiGate/pkg/queue"
	"NotiGate/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideClock provides the system clock.
func ProvideClock() repository.Clock {
	return repository.SystemClock()
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	table := cfg.ClickHouse.Table
	if table == "" {
		table = "notifications"
	}
	if err := client.InitSchema(ctx, []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.%s (ts DateTime, symbol String, type String, level String, priority String, outcome String, subject String) ENGINE=MergeTree ORDER BY (symbol, ts)", db, table),
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideNotificationLog creates the ClickHouse-backed audit log, or nil when
// ClickHouse is disabled.
func ProvideNotificationLog(chClient *pkgch.Client, cfg *config.Config) repository.NotificationLog {
	if chClient == nil {
		return nil
	}
	table := cfg.ClickHouse.Table
	if table == "" {
		table = "notifications"
	}
	return internalrepo.NewClickHouseNotificationLog(chClient.DB(), cfg.ClickHouse.Database+"."+table)
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
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSignalPublisher creates the Kafka publisher for admitted signals.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates a Kafka consumer for the ingest topic, or nil
// when Kafka ingest is not configured.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.IngestTopic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideRedisCache creates the Redis cache client, or nil when disabled.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port: %w", err)
	}
	return cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix("notigate"),
	)
}

// ProvideCacheService layers an in-memory cache over Redis when available and
// falls back to memory-only otherwise.
func ProvideCacheService(redisCache *cache.RedisCache) cache.Service {
	if redisCache == nil {
		return cache.NewMemoryCache()
	}
	return cache.NewLayeredCache(redisCache)
}

// ProvideHTTPClient creates the outbound webhook client.
func ProvideHTTPClient(cfg *config.Config) *pkghttp.Client {
	timeout := cfg.Notifier.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return pkghttp.NewClient(pkghttp.WithTimeout(timeout))
}

// ProvideDispatcher creates the webhook dispatcher.
func ProvideDispatcher(client *pkghttp.Client, cfg *config.Config) repository.Dispatcher {
	return internalrepo.NewWebhookDispatcher(client, cfg.Notifier.Webhooks)
}

// ProvideRecipientDirectory serves the configured recipient list.
func ProvideRecipientDirectory(cfg *config.Config) repository.RecipientDirectory {
	return internalrepo.NewStaticRecipientDirectory(cfg.Notifier.Recipients)
}

// ProvideAlertQueue creates the Redis-backed alert queue with its dispatch
// job registered, or nil when Redis is disabled.
func ProvideAlertQueue(
	lgr *applogger.Logger,
	redisCache *cache.RedisCache,
	dispatcher repository.Dispatcher,
	directory repository.RecipientDirectory,
	cfg *config.Config,
) *queue.RedisQueue {
	if redisCache == nil {
		return nil
	}
	q := queue.NewRedisQueue(lgr, &queue.QueueConfig{
		Workers:    cfg.Notifier.Queue.Workers,
		RetryLimit: cfg.Notifier.Queue.RetryLimit,
		RetryDelay: cfg.Notifier.Queue.RetryDelay,
	}, redisCache.Client(), queue.ModeProducerConsumer)
	q.RegisterJob(internalrepo.NewAlertDispatchJob(dispatcher, directory))
	return q
}

// ProvideAlertSink routes alerts through the Redis queue when available and
// dispatches directly otherwise.
func ProvideAlertSink(
	q *queue.RedisQueue,
	dispatcher repository.Dispatcher,
	directory repository.RecipientDirectory,
) throttle.AlertSink {
	if q == nil {
		return internalrepo.NewDirectAlertSink(dispatcher, directory)
	}
	return internalrepo.NewQueueAlertSink(q)
}

// ProvideMonitor creates the failure alert monitor.
func ProvideMonitor(
	clock repository.Clock,
	sink throttle.AlertSink,
	lgr *applogger.Logger,
	m repository.Metrics,
	cfg *config.Config,
) *throttle.Monitor {
	opts := []throttle.MonitorOption{}
	if cfg.Policy.AlertCooldown > 0 {
		opts = append(opts, throttle.WithAlertCooldown(cfg.Policy.AlertCooldown))
	}
	if cfg.Policy.APIThreshold > 0 || cfg.Policy.DBThreshold > 0 {
		opts = append(opts, throttle.WithThresholds(cfg.Policy.APIThreshold, cfg.Policy.DBThreshold))
	}
	return throttle.NewMonitor(clock, sink, lgr, m, opts...)
}

// ProvideDigestCache creates the bounded digest cache.
func ProvideDigestCache(m repository.Metrics, cfg *config.Config) *usecase.DigestCache {
	opts := []usecase.DigestOption{}
	if cfg.Policy.DigestMaxSize > 0 {
		opts = append(opts, usecase.WithDigestMaxSize(cfg.Policy.DigestMaxSize))
	}
	return usecase.NewDigestCache(m, opts...)
}

// ProvideAdmissionController creates the quota/cooldown controller.
func ProvideAdmissionController(
	digest *usecase.DigestCache,
	clock repository.Clock,
	m repository.Metrics,
	lgr *applogger.Logger,
	cfg *config.Config,
) *usecase.AdmissionController {
	opts := []usecase.AdmissionOption{}
	if cfg.Policy.MaxSignalsPerDay > 0 {
		opts = append(opts, usecase.WithMaxSignalsPerDay(cfg.Policy.MaxSignalsPerDay))
	}
	if cfg.Policy.CooldownLevelOne > 0 && cfg.Policy.CooldownLevelTwo > 0 && cfg.Policy.CooldownFallback > 0 {
		opts = append(opts, usecase.WithCooldowns(cfg.Policy.CooldownLevelOne, cfg.Policy.CooldownLevelTwo, cfg.Policy.CooldownFallback))
	}
	return usecase.NewAdmissionController(digest, clock, m, lgr, opts...)
}

// ProvideCalendar creates the economic event calendar.
func ProvideCalendar() *blackout.Calendar {
	return blackout.NewCalendar()
}

// ProvideNotifier creates the notifier.
func ProvideNotifier(
	dispatcher repository.Dispatcher,
	directory repository.RecipientDirectory,
	cacheSvc cache.Service,
	log repository.NotificationLog,
	monitor *throttle.Monitor,
	clock repository.Clock,
	m repository.Metrics,
	lgr *applogger.Logger,
) *usecase.Notifier {
	return usecase.NewNotifier(dispatcher, directory, cacheSvc, log, monitor, clock, m, lgr)
}

// ProvideGate creates the admission gate.
func ProvideGate(
	admission *usecase.AdmissionController,
	digest *usecase.DigestCache,
	notifier *usecase.Notifier,
	pub repository.Publisher,
	monitor *throttle.Monitor,
	m repository.Metrics,
	lgr *applogger.Logger,
) *usecase.Gate {
	return usecase.NewGate(admission, digest, notifier, pub, monitor, m, lgr)
}

// ProvideSignalPipeline builds the validation/blackout/throttle pipeline in
// front of the gate.
func ProvideSignalPipeline(
	gate *usecase.Gate,
	calendar *blackout.Calendar,
	clock repository.Clock,
	m repository.Metrics,
	cfg *config.Config,
) *mid.SignalPipeline {
	opts := []mid.PipelineOption{}
	if cfg.Pipeline.MaxPerSecond > 0 {
		opts = append(opts, mid.WithMaxPerSecond(cfg.Pipeline.MaxPerSecond))
	}
	if cfg.Pipeline.Burst > 0 {
		opts = append(opts, mid.WithBurst(cfg.Pipeline.Burst))
	}
	if cfg.Pipeline.BufferSize > 0 {
		opts = append(opts, mid.WithBufferSize(cfg.Pipeline.BufferSize))
	}
	return mid.NewSignalPipeline(gate, calendar, clock, m, opts...)
}

// ProvideSignalStream creates the WebSocket signal stream, or nil when the
// stream ingest path is disabled.
func ProvideSignalStream(cfg *config.Config) repository.SignalStream {
	if !cfg.Stream.Enabled {
		return nil
	}
	return sigstream.New(
		cfg.Stream.APIKey,
		cfg.Stream.WebSocketURL,
		cfg.Stream.Symbols,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
	)
}

// ProvideSignalCollector creates the stream collector, or nil when no stream
// is configured.
func ProvideSignalCollector(
	stream repository.SignalStream,
	pipe *mid.SignalPipeline,
	gate *usecase.Gate,
	m repository.Metrics,
) *usecase.SignalCollector {
	if stream == nil {
		return nil
	}
	return usecase.NewSignalCollector(stream, pipe, gate, m)
}

// ProvideKafkaSignalsHandler registers the handler for the ingest topic.
func ProvideKafkaSignalsHandler(gate *usecase.Gate, m repository.Metrics, cfg *config.Config) *usecase.KafkaSignalsHandler {
	return usecase.NewKafkaSignalsHandler(cfg.Kafka.IngestTopic, gate, m)
}

// ProvideDigestDispatcher creates the periodic digest flusher.
func ProvideDigestDispatcher(
	digest *usecase.DigestCache,
	notifier *usecase.Notifier,
	cfg *config.Config,
	lgr *applogger.Logger,
) *usecase.DigestDispatcher {
	return usecase.NewDigestDispatcher(digest, notifier, cfg.Policy.DigestInterval, lgr)
}

// ProvideGateHandler creates the HTTP handler.
func ProvideGateHandler(
	lgr *applogger.Logger,
	gate *usecase.Gate,
	digest *usecase.DigestCache,
	flusher *usecase.DigestDispatcher,
	calendar *blackout.Calendar,
	monitor *throttle.Monitor,
	log repository.NotificationLog,
	clock repository.Clock,
) *api.GateEchoHandler {
	return api.NewGateEchoHandler(lgr, gate, digest, flusher, calendar, monitor, log, clock)
}

// kafkaLogPublisher adapts the Kafka producer to the log collector sink.
type kafkaLogPublisher struct {
	producer *pkgkafka.Producer
}

func (k kafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return k.producer.Publish(ctx, topic, nil, payload)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	collector *usecase.SignalCollector,
	producer *pkgkafka.Producer,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaSignalsHandler,
	chClient *pkgch.Client,
	alertQueue *queue.RedisQueue,
	flusher *usecase.DigestDispatcher,
	admission *usecase.AdmissionController,
	pub repository.Publisher,
	handler *api.GateEchoHandler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	if producer != nil {
		topic := cfg.Kafka.LogsTopic
		if topic == "" {
			topic = "app.logs"
		}
		// Aggregate repeated error logs and ship them to Kafka in batches.
		lgr.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          topic,
			Publisher:      kafkaLogPublisher{producer: producer},
		})
	}
	return server.New(cfg, lgr, collector, consumer, kh, chClient, alertQueue, flusher, admission, pub, handler)
}
