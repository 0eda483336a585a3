// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nlemus/solarb/business/arbitrage/domain"
	marketDomain "github.com/nlemus/solarb/business/market/domain"
)

// SearchFilter narrows opportunity queries.
type SearchFilter struct {
	MinNetProfit decimal.Decimal
	MaxRisk      domain.RiskScore
	Dexes        []marketDomain.DexType
}

// Store is the primary opportunity, execution and strategy storage.
type Store interface {
	SaveOpportunity(ctx context.Context, o *domain.Opportunity) error
	BatchSaveOpportunities(ctx context.Context, opportunities []*domain.Opportunity) error
	GetOpportunity(ctx context.Context, id string) (*domain.Opportunity, error)
	GetActiveOpportunities(ctx context.Context) []*domain.Opportunity
	GetOpportunitiesByStatus(ctx context.Context, status domain.OpportunityStatus) []*domain.Opportunity
	UpdateOpportunityStatus(ctx context.Context, id string, status domain.OpportunityStatus) error
	SearchOpportunities(ctx context.Context, filter SearchFilter) []*domain.Opportunity

	SaveExecution(ctx context.Context, e *domain.Execution) error
	GetExecutionsByStatus(ctx context.Context, status domain.ExecutionStatus) []*domain.Execution
	GetExecutionStats(ctx context.Context, days int) (int, decimal.Decimal, decimal.Decimal)

	SaveStrategy(ctx context.Context, s domain.Strategy) error
	GetStrategy(ctx context.Context, id string) (domain.Strategy, error)
	GetStrategies(ctx context.Context) []domain.Strategy
	DeleteStrategy(ctx context.Context, id string) error

	StorageUsage(ctx context.Context) domain.StorageUsage
	Metrics(ctx context.Context) domain.StoreMetrics
}

// BackupStore persists pipeline state to durable storage. All writes
// are best effort; the pipeline never blocks on the backup.
type BackupStore interface {
	SaveOpportunity(ctx context.Context, o *domain.Opportunity) error
	UpdateOpportunityStatus(ctx context.Context, id string, status domain.OpportunityStatus) error
	SaveExecution(ctx context.Context, e *domain.Execution) error
	SaveStrategy(ctx context.Context, s domain.Strategy) error
	DeleteStrategy(ctx context.Context, id string) error
	Close()
}

// TxStatus is the on-chain state of a submitted transaction.
type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxConfirmed TxStatus = "confirmed"
	TxFailed    TxStatus = "failed"
)

// TxReceipt describes a transaction's fate and cost.
type TxReceipt struct {
	Status   TxStatus
	GasUsed  decimal.Decimal
	GasPrice decimal.Decimal
	Error    string
}

// TxWatcher submits executions to the chain and tracks their signatures.
type TxWatcher interface {
	// Submit sends the execution's route as a transaction and returns
	// its signature.
	Submit(ctx context.Context, e *domain.Execution) (string, error)
	// Status looks up the current state of a signature.
	Status(ctx context.Context, signature string) (TxReceipt, error)
}

// Reporter receives pipeline events for display or logging.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// ReportScan announces a completed scan cycle.
	ReportScan(poolsScanned, opportunities int)

	// ReportOpportunity announces a newly accepted opportunity.
	ReportOpportunity(o *domain.Opportunity)

	// ReportExecution announces an execution reaching a terminal state.
	ReportExecution(e *domain.Execution)

	// UpdateMetrics refreshes the pipeline summary display.
	UpdateMetrics(m domain.EngineMetrics)

	// UpdateConnectionStatus updates a connection status display.
	UpdateConnectionStatus(name string, connected bool, latency time.Duration)

	// Stop gracefully shuts down the reporter.
	Stop() error
}
