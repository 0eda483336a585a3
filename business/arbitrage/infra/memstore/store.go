// Package memstore provides the bounded in-memory pipeline store.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/nlemus/solarb/business/arbitrage/app"
	"github.com/nlemus/solarb/business/arbitrage/domain"
	marketDomain "github.com/nlemus/solarb/business/market/domain"
	"github.com/nlemus/solarb/internal/apperror"
	"github.com/nlemus/solarb/internal/logger"
)

// Config bounds store capacity and retention.
type Config struct {
	MaxOpportunities int
	MaxExecutions    int
	CleanupInterval  time.Duration
	RetentionDays    int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		MaxOpportunities: 1000,
		MaxExecutions:    1000,
		CleanupInterval:  5 * time.Minute,
		RetentionDays:    7,
	}
}

// Store is a concurrency-safe, capacity-bounded in-memory store for
// opportunities, executions and strategies.
type Store struct {
	config Config

	mu            sync.RWMutex
	opportunities map[string]*domain.Opportunity
	strategies    map[string]domain.Strategy
	executions    []*domain.Execution

	metricsMu sync.Mutex
	metrics   domain.StoreMetrics

	evictions metric.Int64Counter

	log logger.LoggerInterface
}

// New creates an empty store.
func New(config Config, log logger.LoggerInterface) *Store {
	if config.MaxOpportunities <= 0 {
		config.MaxOpportunities = DefaultConfig().MaxOpportunities
	}
	if config.MaxExecutions <= 0 {
		config.MaxExecutions = DefaultConfig().MaxExecutions
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig().CleanupInterval
	}
	if config.RetentionDays <= 0 {
		config.RetentionDays = DefaultConfig().RetentionDays
	}

	evictions, err := otel.Meter("solarb.memstore").Int64Counter(
		"store_evictions_total",
		metric.WithDescription("Records evicted to stay within capacity"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		log.Warn(context.Background(), "store metric instruments unavailable", "error", err)
	}

	return &Store{
		config:        config,
		opportunities: make(map[string]*domain.Opportunity),
		strategies:    make(map[string]domain.Strategy),
		metrics: domain.StoreMetrics{
			TotalProfit: decimal.Zero,
			TotalFees:   decimal.Zero,
		},
		evictions: evictions,
		log:       log,
	}
}

// Run performs periodic cleanup until ctx is cancelled.
func (s *Store) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info(ctx, "store cleanup stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			s.Cleanup(ctx)
		}
	}
}

// SaveOpportunity stores a private copy of the opportunity, evicting
// the oldest one when the store is full. Copying keeps later status
// updates inside this store's lock, away from the caller's pointer.
func (s *Store) SaveOpportunity(ctx context.Context, o *domain.Opportunity) error {
	copied := *o

	s.mu.Lock()
	if _, exists := s.opportunities[copied.ID]; !exists && len(s.opportunities) >= s.config.MaxOpportunities {
		s.evictOldestLocked(ctx)
	}
	s.opportunities[copied.ID] = &copied
	s.mu.Unlock()

	s.metricsMu.Lock()
	s.metrics.TotalOpportunities++
	s.metricsMu.Unlock()
	return nil
}

// BatchSaveOpportunities stores several opportunities at once.
func (s *Store) BatchSaveOpportunities(ctx context.Context, opportunities []*domain.Opportunity) error {
	for _, o := range opportunities {
		if err := s.SaveOpportunity(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

// evictOldestLocked drops the opportunity with the oldest timestamp.
// Caller holds mu.
func (s *Store) evictOldestLocked(ctx context.Context) {
	var (
		oldestID string
		oldestAt time.Time
	)
	for id, o := range s.opportunities {
		if oldestID == "" || o.Timestamp.Before(oldestAt) {
			oldestID = id
			oldestAt = o.Timestamp
		}
	}
	if oldestID != "" {
		delete(s.opportunities, oldestID)
		if s.evictions != nil {
			s.evictions.Add(ctx, 1)
		}
		s.log.Debug(ctx, "evicted oldest opportunity", "id", oldestID)
	}
}

// GetOpportunity looks up an opportunity by ID.
func (s *Store) GetOpportunity(ctx context.Context, id string) (*domain.Opportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.opportunities[id]
	if !ok {
		return nil, apperror.NotFound(apperror.CodeOpportunityNotFound, id)
	}
	copied := *o
	return &copied, nil
}

// GetActiveOpportunities returns every pending opportunity.
func (s *Store) GetActiveOpportunities(ctx context.Context) []*domain.Opportunity {
	return s.GetOpportunitiesByStatus(ctx, domain.OpportunityPending)
}

// GetOpportunitiesByStatus filters opportunities by status.
func (s *Store) GetOpportunitiesByStatus(ctx context.Context, status domain.OpportunityStatus) []*domain.Opportunity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Opportunity
	for _, o := range s.opportunities {
		if o.Status == status {
			copied := *o
			out = append(out, &copied)
		}
	}
	return out
}

// UpdateOpportunityStatus changes one opportunity's status.
func (s *Store) UpdateOpportunityStatus(ctx context.Context, id string, status domain.OpportunityStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.opportunities[id]
	if !ok {
		return apperror.NotFound(apperror.CodeOpportunityNotFound, id)
	}
	o.Status = status
	return nil
}

// SearchOpportunities returns opportunities matching the filter.
func (s *Store) SearchOpportunities(ctx context.Context, filter app.SearchFilter) []*domain.Opportunity {
	dexes := make(map[marketDomain.DexType]bool, len(filter.Dexes))
	for _, d := range filter.Dexes {
		dexes[d] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Opportunity
	for _, o := range s.opportunities {
		if o.NetProfit.LessThan(filter.MinNetProfit) {
			continue
		}
		if o.Risk > filter.MaxRisk {
			continue
		}
		if len(dexes) > 0 && (!dexes[o.BuyPool.Dex] || !dexes[o.SellPool.Dex]) {
			continue
		}
		copied := *o
		out = append(out, &copied)
	}
	return out
}

// SaveExecution appends an execution, evicting the oldest when full,
// and rolls lifetime counters forward.
func (s *Store) SaveExecution(ctx context.Context, e *domain.Execution) error {
	s.mu.Lock()
	if len(s.executions) >= s.config.MaxExecutions {
		s.executions = s.executions[1:]
		if s.evictions != nil {
			s.evictions.Add(ctx, 1)
		}
	}
	s.executions = append(s.executions, e)
	s.mu.Unlock()

	s.metricsMu.Lock()
	s.metrics.TotalExecutions++
	if e.Status == domain.ExecutionConfirmed {
		s.metrics.SuccessfulExecutions++
	}
	if !e.ActualProfit.IsZero() {
		s.metrics.TotalProfit = s.metrics.TotalProfit.Add(e.ActualProfit)
	}
	if !e.TotalCost.IsZero() {
		s.metrics.TotalFees = s.metrics.TotalFees.Add(e.TotalCost)
	}
	s.metricsMu.Unlock()
	return nil
}

// GetExecutionsByStatus filters executions by status.
func (s *Store) GetExecutionsByStatus(ctx context.Context, status domain.ExecutionStatus) []*domain.Execution {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Execution
	for _, e := range s.executions {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

// GetExecutionStats aggregates confirmed executions since the cutoff:
// count, total profit and total fees.
func (s *Store) GetExecutionStats(ctx context.Context, days int) (int, decimal.Decimal, decimal.Decimal) {
	cutoff := time.Now().AddDate(0, 0, -days)

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	profit := decimal.Zero
	fees := decimal.Zero
	for _, e := range s.executions {
		if e.ExecutionTime.Before(cutoff) {
			continue
		}
		count++
		profit = profit.Add(e.ActualProfit)
		fees = fees.Add(e.TotalCost)
	}
	return count, profit, fees
}

// SaveStrategy stores a strategy keyed by ID.
func (s *Store) SaveStrategy(ctx context.Context, strategy domain.Strategy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strategies[strategy.ID] = strategy
	return nil
}

// GetStrategy looks up a strategy by ID.
func (s *Store) GetStrategy(ctx context.Context, id string) (domain.Strategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	strategy, ok := s.strategies[id]
	if !ok {
		return domain.Strategy{}, apperror.NotFound(apperror.CodeNotFound, "strategy "+id)
	}
	return strategy, nil
}

// GetStrategies returns every stored strategy.
func (s *Store) GetStrategies(ctx context.Context) []domain.Strategy {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Strategy, 0, len(s.strategies))
	for _, strategy := range s.strategies {
		out = append(out, strategy)
	}
	return out
}

// DeleteStrategy removes a strategy by ID.
func (s *Store) DeleteStrategy(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.strategies[id]; !ok {
		return apperror.NotFound(apperror.CodeNotFound, "strategy "+id)
	}
	delete(s.strategies, id)
	return nil
}

// Cleanup expires stale opportunities in place and drops executions
// older than the retention window.
func (s *Store) Cleanup(ctx context.Context) {
	retention := time.Duration(s.config.RetentionDays) * 24 * time.Hour
	cutoff := time.Now().Add(-retention)

	s.mu.Lock()
	expired := 0
	for _, o := range s.opportunities {
		if o.Status == domain.OpportunityPending && o.IsExpired() {
			o.Status = domain.OpportunityExpired
			expired++
		}
	}

	kept := s.executions[:0]
	for _, e := range s.executions {
		if e.ExecutionTime.After(cutoff) {
			kept = append(kept, e)
		}
	}
	droppedExecutions := len(s.executions) - len(kept)
	s.executions = kept
	s.mu.Unlock()

	s.metricsMu.Lock()
	s.metrics.LastCleanup = time.Now().UTC()
	s.metricsMu.Unlock()

	if expired > 0 || droppedExecutions > 0 {
		s.log.Info(ctx, "store cleanup complete",
			"expired_opportunities", expired, "dropped_executions", droppedExecutions)
	}
}

// StorageUsage reports occupancy against capacity.
func (s *Store) StorageUsage(ctx context.Context) domain.StorageUsage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.StorageUsage{
		OpportunitiesCount: len(s.opportunities),
		StrategiesCount:    len(s.strategies),
		ExecutionsCount:    len(s.executions),
		MaxOpportunities:   s.config.MaxOpportunities,
		MaxExecutions:      s.config.MaxExecutions,
	}
}

// Metrics returns lifetime store counters.
func (s *Store) Metrics(ctx context.Context) domain.StoreMetrics {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()
	return s.metrics
}
