package serve

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sig-0/fxgrab/grabber"
	"github.com/sig-0/fxgrab/grabber/banks"
	"github.com/sig-0/fxgrab/ingest"
	"github.com/sig-0/fxgrab/server/config"
	"github.com/sig-0/fxgrab/storage"
	"github.com/sig-0/fxgrab/storage/types"
)

// newOrchestrator creates the grab orchestrator over the store,
// with every configured bank registered
func newOrchestrator(
	cfg *config.Config,
	store storage.Storage,
	logger *slog.Logger,
	registerer prometheus.Registerer,
	fetcherOpts ...grabber.FetcherOption,
) (*ingest.Orchestrator, error) {
	// Create the strategy registry, sharing a single checker table
	registry := grabber.NewRegistry(
		store,
		store,
		grabber.WithFetcher(grabber.NewFetcher(fetcherOpts...)),
	)

	banks.Register(registry)

	specialized := registry.Names()

	logger.Info(
		"registered specialized strategies",
		"names", specialized,
	)

	orchestrator := ingest.New(
		registry,
		registry.Table(),
		store,
		ingest.WithLogger(logger),
		ingest.WithTargetCurrency(types.Currency(cfg.TargetCurrency)),
		ingest.WithMetrics(registerer),
	)

	for _, bank := range cfg.Banks {
		interval, err := bank.ParseInterval()
		if err != nil {
			return nil, fmt.Errorf("invalid interval for bank %s: %w", bank.Name, err)
		}

		if err = orchestrator.Register(bank.Name, interval); err != nil {
			return nil, fmt.Errorf("unable to register bank %s: %w", bank.Name, err)
		}

		if !slices.Contains(specialized, bank.Name) {
			logger.Info(
				"bank uses the common strategy",
				"bank", bank.Name,
			)
		}
	}

	return orchestrator, nil
}
