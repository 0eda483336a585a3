// Package arbitrage implements the arbitrage bounded context: scanning,
// strategy evaluation and trade execution.
package arbitrage

import (
	"context"
	"time"

	"github.com/nlemus/solarb/business/arbitrage/app"
	arbitrageDI "github.com/nlemus/solarb/business/arbitrage/di"
	"github.com/nlemus/solarb/business/arbitrage/domain"
	"github.com/nlemus/solarb/business/arbitrage/infra"
	"github.com/nlemus/solarb/business/arbitrage/infra/chainrpc"
	"github.com/nlemus/solarb/business/arbitrage/infra/memstore"
	"github.com/nlemus/solarb/business/arbitrage/infra/postgres"
	marketDI "github.com/nlemus/solarb/business/market/di"
	"github.com/nlemus/solarb/internal/config"
	"github.com/nlemus/solarb/internal/di"
	"github.com/nlemus/solarb/internal/logger"
	"github.com/nlemus/solarb/internal/monolith"
)

const (
	opportunityBuffer       = 100
	connectionProbeInterval = 30 * time.Second
)

// Module implements the arbitrage bounded context.
type Module struct{}

// RegisterServices registers all arbitrage services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Pipeline channels - private dependencies
	di.RegisterToken(c, arbitrageDI.OpportunityChannel, func(sr di.ServiceRegistry) chan *domain.Opportunity {
		return make(chan *domain.Opportunity, opportunityBuffer)
	})
	di.RegisterToken(c, arbitrageDI.WorkChannel, func(sr di.ServiceRegistry) chan *domain.Execution {
		cfg := sr.Get("config").(*config.Config)
		return make(chan *domain.Execution, cfg.Arbitrage.MaxConcurrentExecutions)
	})
	di.RegisterToken(c, arbitrageDI.ResultsChannel, func(sr di.ServiceRegistry) chan *domain.Execution {
		cfg := sr.Get("config").(*config.Config)
		return make(chan *domain.Execution, cfg.Arbitrage.MaxConcurrentExecutions)
	})

	// Register StrategyManager - private dependency
	di.RegisterToken(c, arbitrageDI.StrategyManager, func(sr di.ServiceRegistry) *app.StrategyManager {
		return app.NewStrategyManager()
	})

	// Register Store (in-memory) - private dependency
	di.RegisterToken(c, arbitrageDI.Store, func(sr di.ServiceRegistry) app.Store {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		return memstore.New(memstore.Config{
			MaxOpportunities: cfg.Store.MaxOpportunities,
			MaxExecutions:    cfg.Store.MaxExecutions,
			CleanupInterval:  cfg.Store.CleanupInterval,
			RetentionDays:    cfg.Store.RetentionDays,
		}, log)
	})

	// Register BackupStore (Postgres, optional) - private dependency
	di.RegisterToken(c, arbitrageDI.BackupStore, func(sr di.ServiceRegistry) app.BackupStore {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		if !cfg.Database.Enabled {
			return nil
		}
		backup, err := postgres.New(context.Background(), cfg.Database.URL, log)
		if err != nil {
			log.Warn(context.Background(), "postgres backup unavailable, continuing without it", "error", err)
			return nil
		}
		return backup
	})

	// Register TxWatcher - private dependency
	di.RegisterToken(c, arbitrageDI.TxWatcher, func(sr di.ServiceRegistry) app.TxWatcher {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if cfg.Arbitrage.DryRun {
			return chainrpc.NewSimulated(log)
		}

		watcher, err := chainrpc.New(chainrpc.Config{
			RPCURL:            cfg.Solana.RPCURL,
			Wallet:            cfg.Solana.WalletAddress,
			SlippageTolerance: cfg.Arbitrage.MaxSlippageDecimal(),
			RequestTimeout:    cfg.Solana.RequestTimeout,
		}, marketDI.GetMarketService(sr), log)
		if err != nil {
			panic("failed to create transaction watcher: " + err.Error())
		}
		return watcher
	})

	// Register Reporter - private dependency
	di.RegisterToken(c, arbitrageDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get("config").(*config.Config)
		if cfg.Arbitrage.TUIMode {
			return infra.NewTUIReporter()
		}
		return infra.NewConsoleReporter()
	})

	// Register Scanner - private dependency
	di.RegisterToken(c, arbitrageDI.Scanner, func(sr di.ServiceRegistry) *app.Scanner {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewScanner(
			marketDI.GetMarketService(sr),
			app.ScannerConfig{
				Interval:           cfg.Arbitrage.ScanInterval,
				MinProfitThreshold: cfg.Arbitrage.MinProfitThresholdDecimal(),
			},
			di.GetToken(sr, arbitrageDI.OpportunityChannel),
			arbitrageDI.GetReporter(sr),
			log,
		)
	})

	// Register Executor - private dependency
	di.RegisterToken(c, arbitrageDI.Executor, func(sr di.ServiceRegistry) *app.Executor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewExecutor(
			app.ExecutorConfig{MaxConcurrent: cfg.Arbitrage.MaxConcurrentExecutions},
			arbitrageDI.GetTxWatcher(sr),
			di.GetToken(sr, arbitrageDI.WorkChannel),
			di.GetToken(sr, arbitrageDI.ResultsChannel),
			log,
		)
	})

	// Register Engine (public - exposed to other modules)
	di.RegisterToken(c, arbitrageDI.Engine, func(sr di.ServiceRegistry) *app.Engine {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewEngine(
			app.EngineConfig{MinProfitThreshold: cfg.Arbitrage.MinProfitThresholdDecimal()},
			arbitrageDI.GetStrategyManager(sr),
			arbitrageDI.GetStore(sr),
			arbitrageDI.GetBackupStore(sr),
			arbitrageDI.GetReporter(sr),
			di.GetToken(sr, arbitrageDI.OpportunityChannel),
			di.GetToken(sr, arbitrageDI.WorkChannel),
			di.GetToken(sr, arbitrageDI.ResultsChannel),
			log,
		)
	})

	// Register Pipeline (public - the run entrypoint)
	di.RegisterToken(c, arbitrageDI.Pipeline, func(sr di.ServiceRegistry) *app.Pipeline {
		log := sr.Get("logger").(logger.LoggerInterface)

		var extras []app.Runner
		if runner, ok := arbitrageDI.GetStore(sr).(app.Runner); ok {
			extras = append(extras, runner)
		}

		return app.NewPipeline(
			arbitrageDI.GetScanner(sr),
			arbitrageDI.GetEngine(sr),
			arbitrageDI.GetExecutor(sr),
			arbitrageDI.GetReporter(sr),
			log,
			extras...,
		)
	})

	return nil
}

// Startup seeds the built-in strategies and launches the DEX connection
// monitor.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	engine := arbitrageDI.GetEngine(mono.Services())

	defaultStrategy, err := domain.NewStrategy("default", domain.DefaultStrategyParameters())
	if err != nil {
		return err
	}

	for _, s := range []domain.Strategy{
		defaultStrategy,
		domain.NewConservativeStrategy(),
		domain.NewAggressiveStrategy(),
		domain.NewTriangularStrategy(),
	} {
		if err := engine.AddStrategy(ctx, s); err != nil {
			return err
		}
	}

	go m.monitorConnections(ctx, mono)

	log.Info(ctx, "arbitrage module started", "strategies", len(engine.Strategies()))
	return nil
}

// monitorConnections periodically probes every DEX and feeds the
// reporter so dashboards reflect lost and recovered connections.
func (m *Module) monitorConnections(ctx context.Context, mono monolith.Monolith) {
	market := marketDI.GetMarketService(mono.Services())
	reporter := arbitrageDI.GetReporter(mono.Services())
	log := mono.Logger()

	ticker := time.NewTicker(connectionProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for dex, adapter := range market.Adapters() {
				start := time.Now()
				connected := adapter.IsConnected(ctx)
				latency := time.Since(start)

				if !connected {
					log.Warn(ctx, "dex connection lost", "dex", dex)
				}
				if reporter != nil {
					reporter.UpdateConnectionStatus(dex.String(), connected, latency)
				}
			}
		}
	}
}
