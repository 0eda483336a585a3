package domain

import (
	"testing"

	"github.com/shopspring/decimal"

	marketDomain "github.com/nlemus/solarb/business/market/domain"
)

func testOpportunity(buyReserves, sellReserves string) *Opportunity {
	buy := deepPool("buy", marketDomain.DexRaydium, buyReserves, buyReserves)
	sell := deepPool("sell", marketDomain.DexMeteora, sellReserves, sellReserves)
	// Lift the sell price so the margin is ~1%.
	sell = sell.WithReserves(
		decimal.RequireFromString(sellReserves).Mul(decimal.RequireFromString("1.01")),
		decimal.RequireFromString(sellReserves),
	)

	o := NewOpportunity(buy.Pair(), buy, sell)
	return &o
}

func TestNewStrategy_Validation(t *testing.T) {
	if _, err := NewStrategy("ok", DefaultStrategyParameters()); err != nil {
		t.Fatalf("valid strategy rejected: %v", err)
	}

	if _, err := NewStrategy("", DefaultStrategyParameters()); err == nil {
		t.Error("empty name should be rejected")
	}

	params := DefaultStrategyParameters()
	params.MinProfitThreshold = decimal.Zero
	if _, err := NewStrategy("bad", params); err == nil {
		t.Error("zero profit threshold should be rejected")
	}

	params = DefaultStrategyParameters()
	params.SupportedDexes = nil
	if _, err := NewStrategy("bad", params); err == nil {
		t.Error("empty dex list should be rejected")
	}
}

func TestStrategy_ShouldExecute(t *testing.T) {
	o := testOpportunity("1000000", "1000000")

	s, err := NewStrategy("default", DefaultStrategyParameters())
	if err != nil {
		t.Fatal(err)
	}

	if !s.ShouldExecute(o) {
		t.Error("default strategy should accept a liquid 1% opportunity")
	}

	inactive := s
	inactive.Active = false
	if inactive.ShouldExecute(o) {
		t.Error("inactive strategy should not execute")
	}

	greedy := s
	greedy.Parameters.MinProfitThreshold = decimal.RequireFromString("0.02")
	if greedy.ShouldExecute(o) {
		t.Error("margin below threshold should be rejected")
	}

	cautious := s
	cautious.Parameters.MinLiquidity = decimal.NewFromInt(10000000)
	if cautious.ShouldExecute(o) {
		t.Error("reserves below minimum liquidity should be rejected")
	}

	raydiumOnly := s
	raydiumOnly.Parameters.SupportedDexes = []marketDomain.DexType{marketDomain.DexRaydium}
	if raydiumOnly.ShouldExecute(o) {
		t.Error("sell-side DEX outside the supported set should be rejected")
	}
}

func TestStrategy_ShouldExecute_RiskBound(t *testing.T) {
	// Shallow pools on both sides push risk to Medium.
	o := testOpportunity("500", "500")
	if o.Risk != RiskMedium {
		t.Fatalf("expected Medium risk fixture, got %s", o.Risk)
	}

	conservative := NewConservativeStrategy()
	conservative.Parameters.MinLiquidity = decimal.NewFromInt(1)
	conservative.Parameters.MinProfitThreshold = decimal.RequireFromString("0.001")
	if conservative.ShouldExecute(o) {
		t.Error("conservative strategy should reject Medium risk")
	}
}

func TestStrategy_OptimalAmount(t *testing.T) {
	tests := []struct {
		name       string
		multiplier string
		maxTrade   int64
		want       string
	}{
		{"shallow side bounds the trade", "1", 10000, "5000"},
		{"multiplier scales down", "0.5", 10000, "2500"},
		{"cap wins over depth", "2", 8000, "8000"},
	}

	buy := deepPool("buy", marketDomain.DexRaydium, "5000", "5000")
	sell := deepPool("sell", marketDomain.DexMeteora, "9000", "9000")
	o := NewOpportunity(buy.Pair(), buy, sell)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultStrategyParameters()
			params.PositionSizeMultiplier = decimal.RequireFromString(tt.multiplier)
			params.MaxTradeAmount = decimal.NewFromInt(tt.maxTrade)

			s, err := NewStrategy("sizing", params)
			if err != nil {
				t.Fatal(err)
			}

			got := s.OptimalAmount(&o)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("OptimalAmount() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStrategyPresets(t *testing.T) {
	tests := []struct {
		name      string
		strategy  Strategy
		threshold string
		maxRisk   RiskScore
		maxTrade  int64
	}{
		{"Conservative", NewConservativeStrategy(), "0.01", RiskLow, 5000},
		{"Aggressive", NewAggressiveStrategy(), "0.002", RiskHigh, 50000},
		{"Triangular", NewTriangularStrategy(), "0.003", RiskMedium, 20000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.strategy
			if s.Name != tt.name {
				t.Errorf("Name = %s, want %s", s.Name, tt.name)
			}
			if !s.Active {
				t.Error("presets should start active")
			}
			if !s.Parameters.MinProfitThreshold.Equal(decimal.RequireFromString(tt.threshold)) {
				t.Errorf("MinProfitThreshold = %s, want %s", s.Parameters.MinProfitThreshold, tt.threshold)
			}
			if s.Parameters.MaxRiskScore != tt.maxRisk {
				t.Errorf("MaxRiskScore = %s, want %s", s.Parameters.MaxRiskScore, tt.maxRisk)
			}
			if !s.Parameters.MaxTradeAmount.Equal(decimal.NewFromInt(tt.maxTrade)) {
				t.Errorf("MaxTradeAmount = %s, want %d", s.Parameters.MaxTradeAmount, tt.maxTrade)
			}
		})
	}
}
