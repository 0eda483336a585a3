package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nlemus/solarb/business/arbitrage/domain"
	"github.com/nlemus/solarb/internal/apperror"
	"github.com/nlemus/solarb/internal/logger"
)

// EngineConfig holds orchestration tuning.
type EngineConfig struct {
	MinProfitThreshold decimal.Decimal
	CleanupInterval    time.Duration
}

// Engine drives the pipeline: it accepts scanner opportunities,
// matches them against strategies, hands work to the executor and
// folds execution results back into state.
type Engine struct {
	config     EngineConfig
	strategies *StrategyManager
	store      Store
	backup     BackupStore
	reporter   Reporter

	opportunities <-chan *domain.Opportunity
	work          chan<- *domain.Execution
	results       <-chan *domain.Execution

	instruments engineInstruments

	mu      sync.RWMutex
	active  map[string]*domain.Opportunity
	history []*domain.Execution

	executed          int
	successful        int
	failed            int
	dropped           int
	totalProfit       decimal.Decimal
	totalFees         decimal.Decimal
	lastOpportunityAt time.Time
	lastExecutionAt   time.Time

	log logger.LoggerInterface
}

// NewEngine wires the engine. backup and reporter may be nil.
func NewEngine(
	config EngineConfig,
	strategies *StrategyManager,
	store Store,
	backup BackupStore,
	reporter Reporter,
	opportunities <-chan *domain.Opportunity,
	work chan<- *domain.Execution,
	results <-chan *domain.Execution,
	log logger.LoggerInterface,
) *Engine {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 30 * time.Second
	}
	instruments, err := newEngineInstruments()
	if err != nil {
		log.Warn(context.Background(), "engine metric instruments unavailable", "error", err)
	}
	return &Engine{
		config:        config,
		strategies:    strategies,
		store:         store,
		backup:        backup,
		reporter:      reporter,
		opportunities: opportunities,
		work:          work,
		results:       results,
		instruments:   instruments,
		active:        make(map[string]*domain.Opportunity),
		totalProfit:   decimal.Zero,
		totalFees:     decimal.Zero,
		log:           log,
	}
}

// Run processes events until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info(ctx, "engine starting",
		"min_profit_threshold", e.config.MinProfitThreshold,
		"strategies", e.strategies.ActiveCount())

	cleanup := time.NewTicker(e.config.CleanupInterval)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			e.log.Info(ctx, "engine stopping", "reason", ctx.Err())
			return ctx.Err()
		case o := <-e.opportunities:
			if o != nil {
				e.processOpportunity(ctx, o)
			}
		case result := <-e.results:
			if result != nil {
				e.processExecution(ctx, result)
			}
		case <-cleanup.C:
			e.cleanupExpired(ctx)
		}
	}
}

// processOpportunity screens an opportunity and forwards it for
// execution when a strategy accepts it.
func (e *Engine) processOpportunity(ctx context.Context, o *domain.Opportunity) {
	e.mu.Lock()
	e.lastOpportunityAt = time.Now().UTC()
	e.mu.Unlock()

	if o.IsExpired() {
		e.log.Debug(ctx, "skipping expired opportunity", "id", o.ID)
		return
	}

	strategy, ok := e.strategies.FindSuitable(o)
	if !ok {
		e.log.Debug(ctx, "no suitable strategy", "id", o.ID,
			"profit_pct", o.ProfitPercentage, "risk", o.Risk)
		return
	}

	e.mu.Lock()
	if _, dup := e.active[o.ID]; dup {
		e.mu.Unlock()
		e.log.Debug(ctx, "duplicate opportunity", "id", o.ID)
		return
	}
	e.mu.Unlock()

	amount := strategy.OptimalAmount(o)
	o.EstimatedProfit = amount.Mul(o.ProfitPercentage)
	o.EstimatedFees = amount.Mul(o.BuyPool.FeeRate.Add(o.SellPool.FeeRate))
	o.NetProfit = o.EstimatedProfit.Sub(o.EstimatedFees)

	if !o.IsProfitable(e.config.MinProfitThreshold) {
		e.log.Debug(ctx, "opportunity below profit threshold", "id", o.ID,
			"net_profit", o.NetProfit)
		return
	}

	e.mu.Lock()
	e.active[o.ID] = o
	e.mu.Unlock()
	addCount(ctx, e.instruments.accepted, 1)

	if err := e.store.SaveOpportunity(ctx, o); err != nil {
		e.log.Warn(ctx, "failed to save opportunity", "id", o.ID, "error", err)
	}
	e.backupSave(ctx, func(b BackupStore) error { return b.SaveOpportunity(ctx, o) })

	if e.reporter != nil {
		e.reporter.ReportOpportunity(o)
	}

	execution := domain.NewExecution(*o, amount)
	select {
	case e.work <- &execution:
		e.log.Info(ctx, "opportunity forwarded for execution",
			"id", o.ID, "strategy", strategy.Name, "amount", amount, "net_profit", o.NetProfit)
	case <-ctx.Done():
	default:
		e.mu.Lock()
		e.dropped++
		e.mu.Unlock()
		addCount(ctx, e.instruments.dropped, 1)
		e.log.Warn(ctx, "executor backlog full, dropping opportunity", "id", o.ID)
	}
}

// processExecution folds an executor result back into opportunity
// state and counters.
func (e *Engine) processExecution(ctx context.Context, result *domain.Execution) {
	oppStatus := domain.OpportunityPending
	switch result.Status {
	case domain.ExecutionConfirmed:
		oppStatus = domain.OpportunityCompleted
	case domain.ExecutionFailed:
		oppStatus = domain.OpportunityFailed
	case domain.ExecutionCancelled:
		oppStatus = domain.OpportunityExpired
	}

	e.mu.Lock()
	e.lastExecutionAt = time.Now().UTC()
	e.executed++
	switch result.Status {
	case domain.ExecutionConfirmed:
		e.successful++
		e.totalProfit = e.totalProfit.Add(result.ActualProfit)
	case domain.ExecutionFailed:
		e.failed++
	}
	e.totalFees = e.totalFees.Add(result.Route.TotalFees)

	// Terminal outcomes retire the opportunity from the active set.
	// Status is persisted through the store below rather than written
	// onto the shared pointer.
	if oppStatus != domain.OpportunityPending {
		delete(e.active, result.Opportunity.ID)
	}
	e.history = append(e.history, result)
	e.mu.Unlock()

	switch result.Status {
	case domain.ExecutionConfirmed:
		addCount(ctx, e.instruments.confirmed, 1)
	case domain.ExecutionFailed:
		addCount(ctx, e.instruments.failed, 1)
	}

	if err := e.store.UpdateOpportunityStatus(ctx, result.Opportunity.ID, oppStatus); err != nil {
		e.log.Warn(ctx, "failed to update opportunity status",
			"id", result.Opportunity.ID, "error", err)
	}
	if err := e.store.SaveExecution(ctx, result); err != nil {
		e.log.Warn(ctx, "failed to save execution", "id", result.ID, "error", err)
	}
	e.backupSave(ctx, func(b BackupStore) error { return b.SaveExecution(ctx, result) })
	e.backupSave(ctx, func(b BackupStore) error {
		return b.UpdateOpportunityStatus(ctx, result.Opportunity.ID, oppStatus)
	})

	if e.reporter != nil {
		e.reporter.ReportExecution(result)
		e.reporter.UpdateMetrics(e.Metrics(ctx))
	}

	e.log.Info(ctx, "execution processed", "id", result.ID,
		"status", result.Status, "profit", result.ActualProfit)
}

// cleanupExpired drops expired opportunities from the active set.
func (e *Engine) cleanupExpired(ctx context.Context) {
	e.mu.Lock()
	var expired []string
	for id, o := range e.active {
		if o.IsExpired() {
			delete(e.active, id)
			expired = append(expired, id)
		}
	}
	e.mu.Unlock()

	for _, id := range expired {
		if err := e.store.UpdateOpportunityStatus(ctx, id, domain.OpportunityExpired); err != nil {
			e.log.Warn(ctx, "failed to expire opportunity", "id", id, "error", err)
		}
		e.backupSave(ctx, func(b BackupStore) error {
			return b.UpdateOpportunityStatus(ctx, id, domain.OpportunityExpired)
		})
	}

	if len(expired) > 0 {
		e.log.Debug(ctx, "expired opportunities cleaned up", "count", len(expired))
	}
}

// AddStrategy registers and persists a strategy.
func (e *Engine) AddStrategy(ctx context.Context, s domain.Strategy) error {
	if err := e.strategies.Add(s); err != nil {
		return err
	}
	if err := e.store.SaveStrategy(ctx, s); err != nil {
		e.log.Warn(ctx, "failed to save strategy", "id", s.ID, "error", err)
	}
	e.backupSave(ctx, func(b BackupStore) error { return b.SaveStrategy(ctx, s) })
	return nil
}

// UpdateStrategy replaces and persists a strategy.
func (e *Engine) UpdateStrategy(ctx context.Context, s domain.Strategy) error {
	if err := e.strategies.Update(s); err != nil {
		return err
	}
	if err := e.store.SaveStrategy(ctx, s); err != nil {
		e.log.Warn(ctx, "failed to save strategy", "id", s.ID, "error", err)
	}
	e.backupSave(ctx, func(b BackupStore) error { return b.SaveStrategy(ctx, s) })
	return nil
}

// RemoveStrategy drops a strategy everywhere.
func (e *Engine) RemoveStrategy(ctx context.Context, id string) error {
	if err := e.strategies.Remove(id); err != nil {
		return err
	}
	if err := e.store.DeleteStrategy(ctx, id); err != nil {
		e.log.Warn(ctx, "failed to delete strategy", "id", id, "error", err)
	}
	e.backupSave(ctx, func(b BackupStore) error { return b.DeleteStrategy(ctx, id) })
	return nil
}

// Strategies returns every registered strategy.
func (e *Engine) Strategies() []domain.Strategy {
	return e.strategies.All()
}

// GetActiveOpportunities returns a snapshot of in-flight opportunities.
func (e *Engine) GetActiveOpportunities() []*domain.Opportunity {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*domain.Opportunity, 0, len(e.active))
	for _, o := range e.active {
		out = append(out, o)
	}
	return out
}

// GetExecutionHistory returns up to limit executions, newest first.
func (e *Engine) GetExecutionHistory(limit int) []*domain.Execution {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*domain.Execution, len(e.history))
	copy(out, e.history)
	sort.Slice(out, func(i, j int) bool {
		return out[i].ExecutionTime.After(out[j].ExecutionTime)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// GetStorageUsage reports store occupancy.
func (e *Engine) GetStorageUsage(ctx context.Context) domain.StorageUsage {
	return e.store.StorageUsage(ctx)
}

// SearchOpportunities queries stored opportunities.
func (e *Engine) SearchOpportunities(ctx context.Context, filter SearchFilter) []*domain.Opportunity {
	return e.store.SearchOpportunities(ctx, filter)
}

// GetOpportunity looks up one opportunity by ID.
func (e *Engine) GetOpportunity(ctx context.Context, id string) (*domain.Opportunity, error) {
	o, err := e.store.GetOpportunity(ctx, id)
	if err != nil {
		return nil, apperror.NotFound(apperror.CodeOpportunityNotFound, id)
	}
	return o, nil
}

// Metrics summarizes pipeline activity.
func (e *Engine) Metrics(ctx context.Context) domain.EngineMetrics {
	storeMetrics := e.store.Metrics(ctx)

	e.mu.RLock()
	defer e.mu.RUnlock()

	successRate := decimal.Zero
	if e.executed > 0 {
		successRate = decimal.NewFromInt(int64(e.successful)).
			Div(decimal.NewFromInt(int64(e.executed)))
	}

	return domain.EngineMetrics{
		TotalOpportunities:  storeMetrics.TotalOpportunities,
		ActiveOpportunities: len(e.active),
		ExecutedTrades:      e.executed,
		SuccessfulTrades:    e.successful,
		FailedTrades:        e.failed,
		TotalProfit:         e.totalProfit,
		TotalFees:           e.totalFees,
		SuccessRate:         successRate,
		ActiveStrategies:    e.strategies.ActiveCount(),
		LastOpportunityAt:   e.lastOpportunityAt,
		LastExecutionAt:     e.lastExecutionAt,
	}
}

// DroppedExecutions counts opportunities lost to executor saturation.
func (e *Engine) DroppedExecutions() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dropped
}

func (e *Engine) backupSave(ctx context.Context, fn func(BackupStore) error) {
	if e.backup == nil {
		return
	}
	if err := fn(e.backup); err != nil {
		e.log.Warn(ctx, "backup store write failed", "error", err)
	}
}
