package cli

import (
	appscreening "github.com/turtacn/EntityRisk-Intelligence/internal/application/screening"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/search/serper"
)

// screeningDeps bundles the live services a screening run needs, plus
// their teardown.
type screeningDeps struct {
	Searcher *serper.Client
	Store    *redis.Store
	Producer appscreening.Publisher

	closers []func() error
}

// Close releases every opened connection, keeping the first error.
func (d *screeningDeps) Close() {
	for _, closeFn := range d.closers {
		_ = closeFn()
	}
}

// buildStore opens the redis-backed record store from configuration.
func buildStore(cliCtx *CLIContext, extra ...redis.StoreOption) (*redis.Store, *redis.Client, error) {
	client, err := redis.NewClient(redis.OptionsFromConfig(cliCtx.Config.Redis), cliCtx.Logger)
	if err != nil {
		return nil, nil, err
	}
	opts := append([]redis.StoreOption{
		redis.WithSearchTTL(cliCtx.Config.Store.SearchTTL),
		redis.WithRiskTTL(cliCtx.Config.Store.RiskTTL),
		redis.WithSweepBatchSize(cliCtx.Config.Store.SweepBatchSize),
	}, extra...)
	store := redis.NewStore(client, cliCtx.Logger, opts...)
	return store, client, nil
}

// buildScreeningDeps wires the search gateway, the record store, and,
// when scoring is requested, the kafka producer.
func buildScreeningDeps(cliCtx *CLIContext, withProducer bool) (*screeningDeps, error) {
	deps := &screeningDeps{}

	searcher, err := serper.NewClient(cliCtx.Config.Serper, cliCtx.Logger)
	if err != nil {
		return nil, err
	}
	deps.Searcher = searcher

	store, client, err := buildStore(cliCtx)
	if err != nil {
		return nil, err
	}
	deps.Store = store
	deps.closers = append(deps.closers, client.Close)

	if withProducer {
		producer, err := kafka.NewProducer(kafka.ProducerConfigFromConfig(cliCtx.Config.Kafka), cliCtx.Logger)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.Producer = producer
		deps.closers = append(deps.closers, producer.Close)
	}

	return deps, nil
}
