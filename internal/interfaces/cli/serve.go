package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/EntityRisk-Intelligence/internal/application/orchestrator"
	appscreening "github.com/turtacn/EntityRisk-Intelligence/internal/application/screening"
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

// NewServeCmd builds the serve command, which runs the screening API
// server until SIGINT or SIGTERM.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the screening API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cliCtx)
		},
	}
}

// runServer wires every component from configuration and serves until
// the context ends or a termination signal arrives.
func runServer(ctx context.Context, cliCtx *CLIContext) error {
	cfg := cliCtx.Config
	logger := cliCtx.Logger

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

	store, client, err := buildStore(cliCtx, redis.WithMetrics(appMetrics))
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

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
		HealthHandler:    handlers.NewHealthHandler(orch, Version),
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

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("received shutdown signal", logging.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	return server.Stop(context.Background())
}
