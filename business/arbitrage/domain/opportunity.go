// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	marketDomain "github.com/nlemus/solarb/business/market/domain"
)

// OpportunityTTL is how long a detected opportunity stays actionable.
// Pool reserves on Solana move fast enough that anything older is noise.
const OpportunityTTL = 30 * time.Second

// OpportunityStatus tracks an opportunity through its lifecycle.
type OpportunityStatus string

const (
	OpportunityPending   OpportunityStatus = "pending"
	OpportunityExecuting OpportunityStatus = "executing"
	OpportunityCompleted OpportunityStatus = "completed"
	OpportunityFailed    OpportunityStatus = "failed"
	OpportunityExpired   OpportunityStatus = "expired"
	OpportunityCancelled OpportunityStatus = "cancelled"
)

// RiskScore grades an opportunity from safe to untouchable.
type RiskScore int

const (
	RiskLow RiskScore = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

// String implements fmt.Stringer.
func (r RiskScore) String() string {
	switch r {
	case RiskLow:
		return "Low"
	case RiskMedium:
		return "Medium"
	case RiskHigh:
		return "High"
	case RiskCritical:
		return "Critical"
	}
	return "Unknown"
}

var (
	lowLiquidityFloor = decimal.NewFromInt(1000)
	thinProfitFloor   = decimal.RequireFromString("0.005")
	tooGoodProfitCap  = decimal.RequireFromString("0.05")
)

// CalculateRiskScore grades a buy/sell pool pair. Thin liquidity, thin
// margins, implausibly fat margins and stale reserve data all add
// points; the total maps onto the four risk buckets.
func CalculateRiskScore(buyPool, sellPool marketDomain.Pool, profitPercentage decimal.Decimal) RiskScore {
	score := 0

	if buyPool.ReserveA.LessThan(lowLiquidityFloor) || buyPool.ReserveB.LessThan(lowLiquidityFloor) {
		score += 2
	}
	if sellPool.ReserveA.LessThan(lowLiquidityFloor) || sellPool.ReserveB.LessThan(lowLiquidityFloor) {
		score += 2
	}

	if profitPercentage.LessThan(thinProfitFloor) {
		score++
	}
	if profitPercentage.GreaterThan(tooGoodProfitCap) {
		score += 3
	}

	if time.Since(buyPool.LastUpdated) > 24*time.Hour {
		score++
	}

	switch {
	case score <= 2:
		return RiskLow
	case score <= 4:
		return RiskMedium
	case score <= 6:
		return RiskHigh
	}
	return RiskCritical
}

// Opportunity is a detected cross-DEX price discrepancy for one token.
type Opportunity struct {
	ID               string
	TokenPair        marketDomain.TokenPair
	BuyPool          marketDomain.Pool
	SellPool         marketDomain.Pool
	BuyPrice         decimal.Decimal
	SellPrice        decimal.Decimal
	PriceDifference  decimal.Decimal
	ProfitPercentage decimal.Decimal
	EstimatedProfit  decimal.Decimal
	EstimatedFees    decimal.Decimal
	NetProfit        decimal.Decimal
	Risk             RiskScore
	Status           OpportunityStatus
	Timestamp        time.Time
	ExpiresAt        time.Time
}

// NewOpportunity builds an opportunity from a buy pool and a sell pool
// for the pair's base token. Prices are taken from current reserves;
// profit estimates start at zero until an execution sizes the trade.
func NewOpportunity(pair marketDomain.TokenPair, buyPool, sellPool marketDomain.Pool) Opportunity {
	buyPrice, _ := buyPool.Price(pair.Base)
	sellPrice, _ := sellPool.Price(pair.Base)

	diff := sellPrice.Sub(buyPrice)
	if diff.IsNegative() {
		diff = decimal.Zero
	}

	profitPct := decimal.Zero
	if buyPrice.IsPositive() {
		profitPct = diff.Div(buyPrice)
	}

	now := time.Now().UTC()
	return Opportunity{
		ID:               uuid.NewString(),
		TokenPair:        pair,
		BuyPool:          buyPool,
		SellPool:         sellPool,
		BuyPrice:         buyPrice,
		SellPrice:        sellPrice,
		PriceDifference:  diff,
		ProfitPercentage: profitPct,
		EstimatedProfit:  decimal.Zero,
		EstimatedFees:    decimal.Zero,
		NetProfit:        decimal.Zero,
		Risk:             CalculateRiskScore(buyPool, sellPool, profitPct),
		Status:           OpportunityPending,
		Timestamp:        now,
		ExpiresAt:        now.Add(OpportunityTTL),
	}
}

// IsExpired reports whether the opportunity window has passed.
func (o *Opportunity) IsExpired() bool {
	return time.Now().After(o.ExpiresAt)
}

// IsProfitable reports whether net profit clears the given threshold.
func (o *Opportunity) IsProfitable(threshold decimal.Decimal) bool {
	return o.NetProfit.GreaterThan(threshold)
}

// String implements fmt.Stringer.
func (o *Opportunity) String() string {
	return fmt.Sprintf("%s: %s -> %s (Profit: %s%%, Risk: %s)",
		o.ID, o.BuyPool.Dex, o.SellPool.Dex,
		o.ProfitPercentage.Mul(decimal.NewFromInt(100)).StringFixed(2), o.Risk)
}
