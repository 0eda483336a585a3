package app

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/nlemus/solarb/business/arbitrage/domain"
	"github.com/nlemus/solarb/internal/apperror"
)

// Score weights: margin quality, risk grade, pool depth.
var (
	profitWeight    = decimal.RequireFromString("0.4")
	riskWeight      = decimal.RequireFromString("0.3")
	liquidityWeight = decimal.RequireFromString("0.3")

	liquidityBenchmark = decimal.NewFromInt(10000)
)

// StrategyEvaluation scores one strategy against one opportunity.
type StrategyEvaluation struct {
	Strategy      domain.Strategy
	Score         decimal.Decimal
	TradeAmount   decimal.Decimal
	ShouldExecute bool
}

// StrategyManager holds the registered strategies and matches them
// against opportunities.
type StrategyManager struct {
	mu         sync.RWMutex
	strategies map[string]domain.Strategy
}

// NewStrategyManager creates an empty manager.
func NewStrategyManager() *StrategyManager {
	return &StrategyManager{strategies: make(map[string]domain.Strategy)}
}

// Add registers a strategy after validating it.
func (m *StrategyManager) Add(s domain.Strategy) error {
	if err := s.Validate(); err != nil {
		return apperror.New(apperror.CodeInvalidStrategy,
			apperror.WithContext(s.Name), apperror.WithCause(err))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.strategies[s.ID] = s
	return nil
}

// Update replaces an existing strategy.
func (m *StrategyManager) Update(s domain.Strategy) error {
	if err := s.Validate(); err != nil {
		return apperror.New(apperror.CodeInvalidStrategy,
			apperror.WithContext(s.Name), apperror.WithCause(err))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.strategies[s.ID]; !ok {
		return apperror.NotFound(apperror.CodeNotFound, "strategy "+s.ID)
	}
	m.strategies[s.ID] = s
	return nil
}

// Remove drops a strategy by ID.
func (m *StrategyManager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.strategies[id]; !ok {
		return apperror.NotFound(apperror.CodeNotFound, "strategy "+id)
	}
	delete(m.strategies, id)
	return nil
}

// Get returns a strategy by ID.
func (m *StrategyManager) Get(id string) (domain.Strategy, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.strategies[id]
	return s, ok
}

// All returns every registered strategy.
func (m *StrategyManager) All() []domain.Strategy {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Strategy, 0, len(m.strategies))
	for _, s := range m.strategies {
		out = append(out, s)
	}
	return out
}

// ActiveCount returns how many strategies are active.
func (m *StrategyManager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, s := range m.strategies {
		if s.Active {
			count++
		}
	}
	return count
}

// FindSuitable returns the best-scoring strategy willing to execute
// the opportunity.
func (m *StrategyManager) FindSuitable(o *domain.Opportunity) (domain.Strategy, bool) {
	for _, eval := range m.Evaluate(o) {
		if eval.ShouldExecute {
			return eval.Strategy, true
		}
	}
	return domain.Strategy{}, false
}

// Evaluate scores every strategy against the opportunity, best first.
func (m *StrategyManager) Evaluate(o *domain.Opportunity) []StrategyEvaluation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	evaluations := make([]StrategyEvaluation, 0, len(m.strategies))
	for _, s := range m.strategies {
		evaluations = append(evaluations, StrategyEvaluation{
			Strategy:      s,
			Score:         score(&s, o),
			TradeAmount:   s.OptimalAmount(o),
			ShouldExecute: s.ShouldExecute(o),
		})
	}

	sort.Slice(evaluations, func(i, j int) bool {
		return evaluations[i].Score.GreaterThan(evaluations[j].Score)
	})
	return evaluations
}

// score blends margin, risk and liquidity into a single rank.
func score(s *domain.Strategy, o *domain.Opportunity) decimal.Decimal {
	profitScore := decimal.Zero
	if s.Parameters.MinProfitThreshold.IsPositive() {
		profitScore = o.ProfitPercentage.Div(s.Parameters.MinProfitThreshold)
	}

	riskScore := decimal.Zero
	switch o.Risk {
	case domain.RiskLow:
		riskScore = decimal.NewFromInt(1)
	case domain.RiskMedium:
		riskScore = decimal.RequireFromString("0.7")
	case domain.RiskHigh:
		riskScore = decimal.RequireFromString("0.4")
	}

	depth := decimal.Min(o.BuyPool.ReserveA, o.BuyPool.ReserveB)
	liquidityScore := decimal.Min(decimal.NewFromInt(1), depth.Div(liquidityBenchmark))

	return profitWeight.Mul(profitScore).
		Add(riskWeight.Mul(riskScore)).
		Add(liquidityWeight.Mul(liquidityScore))
}
