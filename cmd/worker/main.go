// Command worker consumes scoring requests and risk notifications from
// Kafka: it runs the model-backed risk analysis pipeline on stored
// search records and routes completed assessments to alert and review
// queues.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/EntityRisk-Intelligence/internal/application/notification"
	"github.com/turtacn/EntityRisk-Intelligence/internal/application/scoring"
	"github.com/turtacn/EntityRisk-Intelligence/internal/config"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/llm/openai"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

const (
	defaultHealthPort = 8081
	scoringSource     = "worker"
)

// version is injected via ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	healthPort := flag.Int("health-port", defaultHealthPort, "port for health and metrics endpoints")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	if err := run(cfg, logger, *healthPort); err != nil {
		logger.Error("worker exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger, healthPort int) error {
	logger.Info("starting worker", logging.String("version", version))

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "erisk",
		Subsystem:            "worker",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return err
	}
	appMetrics := prometheus.NewAppMetrics(collector)

	provisionTopics(cfg.Kafka.Brokers, logger)

	client, err := redis.NewClient(redis.OptionsFromConfig(cfg.Redis), logger)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	store := redis.NewStore(client, logger,
		redis.WithSearchTTL(cfg.Store.SearchTTL),
		redis.WithRiskTTL(cfg.Store.RiskTTL),
		redis.WithSweepBatchSize(cfg.Store.SweepBatchSize),
		redis.WithMetrics(appMetrics),
	)

	analyzer, err := openai.NewAnalyzer(cfg.LLM, logger, openai.WithMetrics(appMetrics))
	if err != nil {
		return err
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfigFromConfig(cfg.Kafka), logger,
		kafka.WithProducerMetrics(appMetrics))
	if err != nil {
		return err
	}
	defer func() { _ = producer.Close() }()

	router := notification.NewRouter(producer, logger)
	engine := scoring.NewEngine(analyzer, store, router, logger, scoring.WithMetrics(appMetrics))
	processor := notification.NewProcessor(producer, logger)

	consumerCfg := kafka.ConsumerConfigFromConfig(cfg.Kafka,
		[]string{kafka.TopicScoringRequest, kafka.TopicNotification})
	consumerCfg.RetryConfig.MaxRetries = cfg.Worker.MaxRetries
	consumerCfg.RetryConfig.RetryBackoff = cfg.Worker.RetryBackoff

	// One reader per concurrency slot; the consumer group balances
	// partitions across them.
	consumers := make([]*kafka.Consumer, 0, cfg.Worker.Concurrency)
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		consumer, err := kafka.NewConsumer(consumerCfg, logger, kafka.WithConsumerMetrics(appMetrics))
		if err != nil {
			return err
		}
		consumer.Subscribe(kafka.TopicScoringRequest, scoringHandler(engine, logger))
		consumer.Subscribe(kafka.TopicNotification, processor.HandleMessage)
		consumers = append(consumers, consumer)
	}
	defer func() {
		for _, c := range consumers {
			_ = c.Close()
		}
	}()

	healthSrv := startHealthServer(healthPort, collector, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, c := range consumers {
		if err := c.Start(ctx); err != nil {
			return err
		}
	}
	logger.Info("worker consuming",
		logging.Int("readers", len(consumers)),
		logging.String("scoring_topic", kafka.TopicScoringRequest),
		logging.String("notification_topic", kafka.TopicNotification),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("received shutdown signal", logging.String("signal", sig.String()))

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("health server shutdown error", logging.Err(err))
	}

	logger.Info("worker stopped")
	return nil
}

// provisionTopics creates the pipeline topics if the cluster allows it.
// Failures are logged, not fatal: managed clusters often pre-provision
// topics and deny topic creation to application credentials.
func provisionTopics(brokers []string, logger logging.Logger) {
	manager, err := kafka.NewTopicManager(brokers, logger)
	if err != nil {
		logger.Warn("topic manager unavailable, skipping provisioning", logging.Err(err))
		return
	}
	defer func() { _ = manager.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := manager.EnsureDefaultTopics(ctx); err != nil {
		logger.Warn("topic provisioning failed", logging.Err(err))
	}
}

// scoringHandler decodes a scoring request and runs the analysis
// pipeline on the referenced search record. Decode failures are hard
// errors so the message retries and eventually dead-letters.
func scoringHandler(engine *scoring.Engine, logger logging.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg *kafka.Message) error {
		envelope, err := kafka.MessageToEventEnvelope(msg)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeQueueConsumeFailed, "undecodable scoring request")
		}

		var payload kafka.ScoringRequestPayload
		if err := envelope.DecodePayload(&payload); err != nil {
			return errors.Wrap(err, errors.ErrCodeQueueConsumeFailed, "undecodable scoring payload")
		}

		logger.Info("processing scoring request",
			logging.String("query_hash", payload.QueryHash),
			logging.String("entity", payload.EntityName),
			logging.Int("result_count", payload.ResultCount),
		)
		return engine.ProcessQuery(ctx, payload.Query, payload.Timestamp, scoringSource)
	}
}

// startHealthServer serves liveness and Prometheus metrics for probes
// and scraping while the consumer runs in the foreground.
func startHealthServer(port int, collector prometheus.MetricsCollector, logger logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		logger.Info("health server listening", logging.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", logging.Err(err))
		}
	}()

	return srv
}

// loadConfig loads from the explicit path when given, otherwise from
// environment variables and defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}
