package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	marketDomain "github.com/nlemus/solarb/business/market/domain"
)

var (
	testSOL  = marketDomain.NewToken("So11111111111111111111111111111111111111112", "SOL", "Solana", 9)
	testUSDC = marketDomain.NewToken("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", "USDC", "USD Coin", 6)
)

func deepPool(id string, dex marketDomain.DexType, reserveA, reserveB string) marketDomain.Pool {
	p := marketDomain.NewPool(id, dex, testUSDC, testSOL, "addr-"+id)
	return p.
		WithReserves(decimal.RequireFromString(reserveA), decimal.RequireFromString(reserveB)).
		WithFeeRate(decimal.RequireFromString("0.003"))
}

func TestCalculateRiskScore(t *testing.T) {
	healthyProfit := decimal.RequireFromString("0.01")

	tests := []struct {
		name     string
		buyPool  marketDomain.Pool
		sellPool marketDomain.Pool
		profit   decimal.Decimal
		want     RiskScore
	}{
		{
			name:     "deep pools healthy margin",
			buyPool:  deepPool("b", marketDomain.DexRaydium, "1000000", "1000000"),
			sellPool: deepPool("s", marketDomain.DexMeteora, "1000000", "1000000"),
			profit:   healthyProfit,
			want:     RiskLow,
		},
		{
			name:     "one shallow pool",
			buyPool:  deepPool("b", marketDomain.DexRaydium, "500", "1000000"),
			sellPool: deepPool("s", marketDomain.DexMeteora, "1000000", "1000000"),
			profit:   healthyProfit,
			want:     RiskLow,
		},
		{
			name:     "both pools shallow",
			buyPool:  deepPool("b", marketDomain.DexRaydium, "500", "500"),
			sellPool: deepPool("s", marketDomain.DexMeteora, "500", "500"),
			profit:   healthyProfit,
			want:     RiskMedium,
		},
		{
			name:     "shallow pools and thin margin",
			buyPool:  deepPool("b", marketDomain.DexRaydium, "500", "500"),
			sellPool: deepPool("s", marketDomain.DexMeteora, "500", "500"),
			profit:   decimal.RequireFromString("0.001"),
			want:     RiskHigh,
		},
		{
			name:     "shallow pools with implausible margin",
			buyPool:  deepPool("b", marketDomain.DexRaydium, "500", "500"),
			sellPool: deepPool("s", marketDomain.DexMeteora, "500", "500"),
			profit:   decimal.RequireFromString("0.10"),
			want:     RiskCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateRiskScore(tt.buyPool, tt.sellPool, tt.profit)
			if got != tt.want {
				t.Errorf("CalculateRiskScore() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCalculateRiskScore_StaleReserves(t *testing.T) {
	buy := deepPool("b", marketDomain.DexRaydium, "500", "500")
	buy.LastUpdated = time.Now().Add(-25 * time.Hour)
	sell := deepPool("s", marketDomain.DexMeteora, "500", "500")

	// 2+2 for liquidity plus 1 for staleness lands in the high bucket.
	got := CalculateRiskScore(buy, sell, decimal.RequireFromString("0.01"))
	if got != RiskHigh {
		t.Errorf("CalculateRiskScore() = %s, want High", got)
	}
}

func TestNewOpportunity(t *testing.T) {
	// Buy pool prices the base at 1.00, sell pool at 1.01.
	buy := deepPool("buy", marketDomain.DexRaydium, "1000000", "1000000")
	sell := deepPool("sell", marketDomain.DexMeteora, "1010000", "1000000")

	o := NewOpportunity(buy.Pair(), buy, sell)

	if o.ID == "" {
		t.Error("opportunity should get an ID")
	}
	if o.Status != OpportunityPending {
		t.Errorf("Status = %s, want pending", o.Status)
	}
	if !o.PriceDifference.Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("PriceDifference = %s, want 0.01", o.PriceDifference)
	}
	if !o.ProfitPercentage.Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("ProfitPercentage = %s, want 0.01", o.ProfitPercentage)
	}
	if !o.NetProfit.IsZero() {
		t.Errorf("NetProfit should start at zero, got %s", o.NetProfit)
	}
	if got := o.ExpiresAt.Sub(o.Timestamp); got != OpportunityTTL {
		t.Errorf("expiry window = %s, want %s", got, OpportunityTTL)
	}
}

func TestNewOpportunity_InvertedPricesClampToZero(t *testing.T) {
	// Sell price below buy price leaves no margin.
	buy := deepPool("buy", marketDomain.DexRaydium, "1010000", "1000000")
	sell := deepPool("sell", marketDomain.DexMeteora, "1000000", "1000000")

	o := NewOpportunity(buy.Pair(), buy, sell)

	if !o.PriceDifference.IsZero() {
		t.Errorf("PriceDifference = %s, want 0", o.PriceDifference)
	}
	if !o.ProfitPercentage.IsZero() {
		t.Errorf("ProfitPercentage = %s, want 0", o.ProfitPercentage)
	}
}

func TestOpportunity_IsExpired(t *testing.T) {
	buy := deepPool("buy", marketDomain.DexRaydium, "1000000", "1000000")
	sell := deepPool("sell", marketDomain.DexMeteora, "1010000", "1000000")
	o := NewOpportunity(buy.Pair(), buy, sell)

	if o.IsExpired() {
		t.Error("fresh opportunity should not be expired")
	}

	o.ExpiresAt = time.Now().Add(-time.Second)
	if !o.IsExpired() {
		t.Error("past expiry should report expired")
	}
}

func TestOpportunity_IsProfitable(t *testing.T) {
	buy := deepPool("buy", marketDomain.DexRaydium, "1000000", "1000000")
	sell := deepPool("sell", marketDomain.DexMeteora, "1010000", "1000000")
	o := NewOpportunity(buy.Pair(), buy, sell)

	o.NetProfit = decimal.RequireFromString("5")
	if !o.IsProfitable(decimal.NewFromInt(1)) {
		t.Error("net profit above threshold should be profitable")
	}
	if o.IsProfitable(decimal.NewFromInt(5)) {
		t.Error("net profit equal to threshold should not be profitable")
	}
}

func TestOpportunity_String(t *testing.T) {
	buy := deepPool("buy", marketDomain.DexRaydium, "1000000", "1000000")
	sell := deepPool("sell", marketDomain.DexMeteora, "1010000", "1000000")
	o := NewOpportunity(buy.Pair(), buy, sell)

	s := o.String()
	for _, want := range []string{"raydium -> meteora", "Profit: 1.00%", "Risk: Low"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
