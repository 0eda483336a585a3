package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	marketDomain "github.com/nlemus/solarb/business/market/domain"
)

// StrategyParameters tune which opportunities a strategy accepts and
// how it sizes trades.
type StrategyParameters struct {
	MinProfitThreshold     decimal.Decimal
	MaxSlippage            decimal.Decimal
	MaxPriceImpact         decimal.Decimal
	MinLiquidity           decimal.Decimal
	MaxTradeAmount         decimal.Decimal
	PositionSizeMultiplier decimal.Decimal
	SupportedDexes         []marketDomain.DexType
	MaxRiskScore           RiskScore
	ExecutionDelay         time.Duration
	MaxRetries             int
	RetryDelay             time.Duration
}

// DefaultStrategyParameters returns a balanced baseline.
func DefaultStrategyParameters() StrategyParameters {
	return StrategyParameters{
		MinProfitThreshold:     decimal.RequireFromString("0.005"),
		MaxSlippage:            decimal.RequireFromString("0.01"),
		MaxPriceImpact:         decimal.RequireFromString("0.005"),
		MinLiquidity:           decimal.NewFromInt(1000),
		MaxTradeAmount:         decimal.NewFromInt(10000),
		PositionSizeMultiplier: decimal.NewFromInt(1),
		SupportedDexes:         marketDomain.AllDexTypes(),
		MaxRiskScore:           RiskMedium,
		ExecutionDelay:         0,
		MaxRetries:             3,
		RetryDelay:             5 * time.Second,
	}
}

// Strategy decides whether and how to act on opportunities.
type Strategy struct {
	ID         string
	Name       string
	Parameters StrategyParameters
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewStrategy creates an active strategy after validating parameters.
func NewStrategy(name string, params StrategyParameters) (Strategy, error) {
	s := Strategy{
		ID:         uuid.NewString(),
		Name:       name,
		Parameters: params,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := s.Validate(); err != nil {
		return Strategy{}, err
	}
	return s, nil
}

// NewConservativeStrategy favors safety: higher profit bar, low risk
// only, small positions.
func NewConservativeStrategy() Strategy {
	params := DefaultStrategyParameters()
	params.MinProfitThreshold = decimal.RequireFromString("0.01")
	params.MaxRiskScore = RiskLow
	params.MaxTradeAmount = decimal.NewFromInt(5000)
	params.PositionSizeMultiplier = decimal.RequireFromString("0.5")

	s, _ := NewStrategy("Conservative", params)
	return s
}

// NewAggressiveStrategy accepts thin margins and high risk with large
// positions.
func NewAggressiveStrategy() Strategy {
	params := DefaultStrategyParameters()
	params.MinProfitThreshold = decimal.RequireFromString("0.002")
	params.MaxRiskScore = RiskHigh
	params.MaxTradeAmount = decimal.NewFromInt(50000)
	params.PositionSizeMultiplier = decimal.NewFromInt(2)

	s, _ := NewStrategy("Aggressive", params)
	return s
}

// NewTriangularStrategy targets multi-hop routes with moderate sizing.
func NewTriangularStrategy() Strategy {
	params := DefaultStrategyParameters()
	params.MinProfitThreshold = decimal.RequireFromString("0.003")
	params.MaxRiskScore = RiskMedium
	params.MaxTradeAmount = decimal.NewFromInt(20000)
	params.PositionSizeMultiplier = decimal.RequireFromString("1.5")

	s, _ := NewStrategy("Triangular", params)
	return s
}

// Validate checks parameter sanity.
func (s *Strategy) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("strategy name is required")
	}

	p := s.Parameters
	for _, check := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"min profit threshold", p.MinProfitThreshold},
		{"max slippage", p.MaxSlippage},
		{"min liquidity", p.MinLiquidity},
		{"max trade amount", p.MaxTradeAmount},
		{"position size multiplier", p.PositionSizeMultiplier},
	} {
		if !check.value.IsPositive() {
			return fmt.Errorf("%s must be positive", check.name)
		}
	}

	if len(p.SupportedDexes) == 0 {
		return fmt.Errorf("at least one supported dex is required")
	}
	return nil
}

// ShouldExecute reports whether this strategy would act on the
// opportunity: active, margin over threshold, risk within bounds, both
// DEXes supported and both pools liquid enough.
func (s *Strategy) ShouldExecute(o *Opportunity) bool {
	if !s.Active {
		return false
	}
	p := s.Parameters

	if o.ProfitPercentage.LessThan(p.MinProfitThreshold) {
		return false
	}
	if o.Risk > p.MaxRiskScore {
		return false
	}
	if !s.SupportsDex(o.BuyPool.Dex) || !s.SupportsDex(o.SellPool.Dex) {
		return false
	}

	for _, reserve := range []decimal.Decimal{
		o.BuyPool.ReserveA, o.BuyPool.ReserveB,
		o.SellPool.ReserveA, o.SellPool.ReserveB,
	} {
		if reserve.LessThan(p.MinLiquidity) {
			return false
		}
	}
	return true
}

// SupportsDex reports whether the strategy trades on the given DEX.
func (s *Strategy) SupportsDex(dex marketDomain.DexType) bool {
	for _, d := range s.Parameters.SupportedDexes {
		if d == dex {
			return true
		}
	}
	return false
}

// OptimalAmount sizes a trade from the shallowest reserve across both
// pools, scaled by the position multiplier and capped by the maximum
// trade amount.
func (s *Strategy) OptimalAmount(o *Opportunity) decimal.Decimal {
	buyDepth := decimal.Min(o.BuyPool.ReserveA, o.BuyPool.ReserveB)
	sellDepth := decimal.Min(o.SellPool.ReserveA, o.SellPool.ReserveB)

	amount := decimal.Min(buyDepth, sellDepth).Mul(s.Parameters.PositionSizeMultiplier)
	return decimal.Min(amount, s.Parameters.MaxTradeAmount)
}
