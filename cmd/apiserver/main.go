// Command apiserver runs the EntityRisk-Intelligence screening API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/EntityRisk-Intelligence/internal/application/orchestrator"
	appscreening "github.com/turtacn/EntityRisk-Intelligence/internal/application/screening"
	"github.com/turtacn/EntityRisk-Intelligence/internal/config"
	domscreening "github.com/turtacn/EntityRisk-Intelligence/internal/domain/screening"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/search/opensearch"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/search/serper"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/workflow"
	httpserver "github.com/turtacn/EntityRisk-Intelligence/internal/interfaces/http"
	"github.com/turtacn/EntityRisk-Intelligence/internal/interfaces/http/handlers"
)

// version is injected via ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file")
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

	if err := run(cfg, logger); err != nil {
		logger.Error("apiserver exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	logger.Info("starting apiserver",
		logging.String("version", version),
		logging.Int("port", cfg.Server.Port),
	)

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "erisk",
		Subsystem:            "apiserver",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return err
	}
	appMetrics := prometheus.NewAppMetrics(collector)

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

	var searcher orchestrator.Searcher
	if len(cfg.OpenSearch.Addresses) > 0 {
		osClient, err := opensearch.NewClient(opensearch.ClientConfigFromConfig(cfg.OpenSearch), logger)
		if err != nil {
			return err
		}
		defer func() { _ = osClient.Close() }()
		corpus, err := opensearch.NewCorpusSearcher(osClient, cfg.OpenSearch.Index, logger,
			opensearch.WithCorpusMetrics(appMetrics))
		if err != nil {
			return err
		}
		searcher = corpus
		logger.Info("using internal corpus search backend",
			logging.String("index", cfg.OpenSearch.Index),
		)
	} else {
		web, err := serper.NewClient(cfg.Serper, logger, serper.WithMetrics(appMetrics))
		if err != nil {
			return err
		}
		searcher = web
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfigFromConfig(cfg.Kafka), logger,
		kafka.WithProducerMetrics(appMetrics))
	if err != nil {
		return err
	}
	defer func() { _ = producer.Close() }()

	var runner orchestrator.WorkflowRunner
	if cfg.Workflow.BaseURL != "" {
		wf, err := workflow.NewClient(cfg.Workflow, logger)
		if err != nil {
			return err
		}
		runner = wf
	}

	catalog := domscreening.NewKeywordCatalog()
	screener := appscreening.NewService(catalog, searcher, store, producer, cfg.Screening, logger)
	orch := orchestrator.New(searcher, store, producer, runner, screener, logger,
		orchestrator.WithMetrics(appMetrics))

	router := httpserver.NewRouter(httpserver.RouterConfig{
		ScreenHandler:    handlers.NewScreenHandler(orch, logger),
		RecordsHandler:   handlers.NewRecordsHandler(store, logger),
		KeywordsHandler:  handlers.NewKeywordsHandler(catalog, logger),
		HealthHandler:    handlers.NewHealthHandler(orch, version),
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		Logger:           logger,
		MetricsCollector: collector,
		AppMetrics:       appMetrics,
	})
	server := httpserver.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("received shutdown signal", logging.String("signal", sig.String()))
	}

	if err := server.Stop(context.Background()); err != nil {
		return err
	}
	logger.Info("apiserver stopped")
	return nil
}

// loadConfig loads from the explicit path when given, otherwise from
// environment variables and defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}
