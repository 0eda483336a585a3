package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EngineMetrics is a point-in-time summary of pipeline activity.
type EngineMetrics struct {
	TotalOpportunities  int
	ActiveOpportunities int
	ExecutedTrades      int
	SuccessfulTrades    int
	FailedTrades        int
	TotalProfit         decimal.Decimal
	TotalFees           decimal.Decimal
	SuccessRate         decimal.Decimal
	ActiveStrategies    int
	LastOpportunityAt   time.Time
	LastExecutionAt     time.Time
}

// ExecutionStats aggregates executor outcomes.
type ExecutionStats struct {
	Total      int
	Successful int
	Failed     int
	Cancelled  int
}

// SuccessRate returns the fraction of executions that confirmed.
func (s ExecutionStats) SuccessRate() decimal.Decimal {
	if s.Total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(s.Successful)).Div(decimal.NewFromInt(int64(s.Total)))
}

// StorageUsage reports store occupancy against its capacity.
type StorageUsage struct {
	OpportunitiesCount int
	StrategiesCount    int
	ExecutionsCount    int
	MaxOpportunities   int
	MaxExecutions      int
}

// StoreMetrics tracks lifetime counters kept by the store.
type StoreMetrics struct {
	TotalOpportunities   int
	TotalExecutions      int
	SuccessfulExecutions int
	TotalProfit          decimal.Decimal
	TotalFees            decimal.Decimal
	LastCleanup          time.Time
}
