package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Pool is a liquidity pool snapshot. Pools are immutable; updates
// arrive as full replacements from the owning DEX adapter.
type Pool struct {
	ID          string
	Dex         DexType
	TokenA      Token
	TokenB      Token
	ReserveA    decimal.Decimal
	ReserveB    decimal.Decimal
	FeeRate     decimal.Decimal
	Address     string
	Authority   string
	ProgramID   string
	Version     string
	IsActive    bool
	LastUpdated time.Time
}

// NewPool creates a pool with zero reserves.
func NewPool(id string, dex DexType, tokenA, tokenB Token, address string) Pool {
	return Pool{
		ID:          id,
		Dex:         dex,
		TokenA:      tokenA,
		TokenB:      tokenB,
		ReserveA:    decimal.Zero,
		ReserveB:    decimal.Zero,
		FeeRate:     decimal.Zero,
		Address:     address,
		Version:     "1.0",
		IsActive:    true,
		LastUpdated: time.Now().UTC(),
	}
}

// WithReserves returns a copy of the pool with updated reserves.
func (p Pool) WithReserves(reserveA, reserveB decimal.Decimal) Pool {
	p.ReserveA = reserveA
	p.ReserveB = reserveB
	p.LastUpdated = time.Now().UTC()
	return p
}

// WithFeeRate returns a copy of the pool with the given fee rate.
func (p Pool) WithFeeRate(feeRate decimal.Decimal) Pool {
	p.FeeRate = feeRate
	return p
}

// Pair returns the canonical token pair traded by this pool.
func (p Pool) Pair() TokenPair {
	return NewTokenPair(p.TokenA, p.TokenB)
}

// Price returns the spot price of the base token expressed in the
// other token of the pool. The second return is false when the base
// token does not belong to the pool or the paired reserve is empty.
func (p Pool) Price(base Token) (decimal.Decimal, bool) {
	switch {
	case base.Mint == p.TokenA.Mint:
		if p.ReserveB.IsPositive() {
			return p.ReserveA.Div(p.ReserveB), true
		}
	case base.Mint == p.TokenB.Mint:
		if p.ReserveA.IsPositive() {
			return p.ReserveB.Div(p.ReserveA), true
		}
	}
	return decimal.Zero, false
}

// OutputAmount computes the constant-product swap output for the given
// input, net of the pool fee. Returns false when the input token does
// not belong to the pool or reserves are empty.
func (p Pool) OutputAmount(inputAmount decimal.Decimal, input Token) (decimal.Decimal, bool) {
	inputReserve, outputReserve, ok := p.reservesFor(input)
	if !ok {
		return decimal.Zero, false
	}
	if !inputReserve.IsPositive() || !outputReserve.IsPositive() {
		return decimal.Zero, false
	}

	feeMultiplier := decimal.NewFromInt(1).Sub(p.FeeRate)
	inputWithFee := inputAmount.Mul(feeMultiplier)
	numerator := inputWithFee.Mul(outputReserve)
	denominator := inputReserve.Add(inputWithFee)

	if !denominator.IsPositive() {
		return decimal.Zero, false
	}
	return numerator.Div(denominator), true
}

// PriceImpact estimates how much a swap of inputAmount moves the pool
// price, as an absolute fraction of the pre-swap price.
func (p Pool) PriceImpact(inputAmount decimal.Decimal, input Token) (decimal.Decimal, bool) {
	priceBefore, ok := p.Price(input)
	if !ok {
		return decimal.Zero, false
	}
	outputAmount, ok := p.OutputAmount(inputAmount, input)
	if !ok {
		return decimal.Zero, false
	}

	inputReserve, outputReserve, _ := p.reservesFor(input)
	newInputReserve := inputReserve.Add(inputAmount)
	newOutputReserve := outputReserve.Sub(outputAmount)
	if !newOutputReserve.IsPositive() {
		return decimal.Zero, false
	}

	priceAfter := newInputReserve.Div(newOutputReserve)
	change := priceAfter.Sub(priceBefore).Div(priceBefore)
	return change.Abs(), true
}

// OtherToken returns the pool token paired with the given one.
func (p Pool) OtherToken(t Token) Token {
	if t.Mint == p.TokenA.Mint {
		return p.TokenB
	}
	return p.TokenA
}

func (p Pool) reservesFor(input Token) (decimal.Decimal, decimal.Decimal, bool) {
	switch input.Mint {
	case p.TokenA.Mint:
		return p.ReserveA, p.ReserveB, true
	case p.TokenB.Mint:
		return p.ReserveB, p.ReserveA, true
	}
	return decimal.Zero, decimal.Zero, false
}

// String implements fmt.Stringer.
func (p Pool) String() string {
	return fmt.Sprintf("%s: %s/%s on %s", p.ID, p.TokenA.Symbol, p.TokenB.Symbol, p.Dex)
}

// PoolState is a pool snapshot enriched with market data.
type PoolState struct {
	Pool         Pool
	CurrentPrice decimal.Decimal
	PriceImpact  decimal.Decimal
	Volume24h    decimal.Decimal
	TVL          decimal.Decimal
	APY          decimal.Decimal
}

// PoolQuote is a swap quote against a specific pool.
type PoolQuote struct {
	Pool          Pool
	InputToken    Token
	OutputToken   Token
	InputAmount   decimal.Decimal
	OutputAmount  decimal.Decimal
	PriceImpact   decimal.Decimal
	FeeAmount     decimal.Decimal
	MinimumOutput decimal.Decimal
}

// PoolMetrics aggregates trading activity for one pool.
type PoolMetrics struct {
	PoolID           string
	Dex              DexType
	Volume24h        decimal.Decimal
	Volume7d         decimal.Decimal
	TVL              decimal.Decimal
	FeeRevenue24h    decimal.Decimal
	UniqueTraders24h uint32
	Timestamp        time.Time
}

// DexMetrics aggregates activity across an entire DEX.
type DexMetrics struct {
	Dex            DexType
	TotalVolume24h decimal.Decimal
	TotalTVL       decimal.Decimal
	TotalPools     uint64
	ActivePools    uint64
	TotalTrades24h uint64
}
