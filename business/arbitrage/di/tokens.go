// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/nlemus/solarb/business/arbitrage/app"
	"github.com/nlemus/solarb/business/arbitrage/domain"
	"github.com/nlemus/solarb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Engine   = di.NewToken[*app.Engine]("arbitrage.Engine")
	Pipeline = di.NewToken[*app.Pipeline]("arbitrage.Pipeline")
)

// Private dependency tokens - internal to arbitrage module
var (
	StrategyManager    = di.NewToken[*app.StrategyManager]("arbitrage:strategyManager")
	Store              = di.NewToken[app.Store]("arbitrage:store")
	BackupStore        = di.NewToken[app.BackupStore]("arbitrage:backupStore")
	TxWatcher          = di.NewToken[app.TxWatcher]("arbitrage:txWatcher")
	Reporter           = di.NewToken[app.Reporter]("arbitrage:reporter")
	Scanner            = di.NewToken[*app.Scanner]("arbitrage:scanner")
	Executor           = di.NewToken[*app.Executor]("arbitrage:executor")
	OpportunityChannel = di.NewToken[chan *domain.Opportunity]("arbitrage:opportunityChannel")
	WorkChannel        = di.NewToken[chan *domain.Execution]("arbitrage:workChannel")
	ResultsChannel     = di.NewToken[chan *domain.Execution]("arbitrage:resultsChannel")
)

// Helper functions for type-safe access
func GetEngine(c di.ServiceRegistry) *app.Engine {
	return di.GetToken(c, Engine)
}

func GetPipeline(c di.ServiceRegistry) *app.Pipeline {
	return di.GetToken(c, Pipeline)
}

func GetStrategyManager(c di.ServiceRegistry) *app.StrategyManager {
	return di.GetToken(c, StrategyManager)
}

func GetStore(c di.ServiceRegistry) app.Store {
	return di.GetToken(c, Store)
}

func GetBackupStore(c di.ServiceRegistry) app.BackupStore {
	return di.GetToken(c, BackupStore)
}

func GetTxWatcher(c di.ServiceRegistry) app.TxWatcher {
	return di.GetToken(c, TxWatcher)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}

func GetScanner(c di.ServiceRegistry) *app.Scanner {
	return di.GetToken(c, Scanner)
}

func GetExecutor(c di.ServiceRegistry) *app.Executor {
	return di.GetToken(c, Executor)
}
