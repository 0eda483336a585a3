package restdex

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nlemus/solarb/business/market/domain"
)

func validPoolMessage() poolMessage {
	return poolMessage{
		ID:            "ray-sol-usdc",
		BaseMint:      "So11111111111111111111111111111111111111112",
		QuoteMint:     "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		BaseSymbol:    "SOL",
		QuoteSymbol:   "USDC",
		BaseDecimals:  9,
		QuoteDecimals: 6,
		BaseReserve:   "1000000.5",
		QuoteReserve:  "2000000",
		FeeRate:       "0.0025",
		PoolAddress:   "PoolAddr111",
		Authority:     "Auth111",
		ProgramID:     "Prog111",
	}
}

func TestPoolMessage_ToPool(t *testing.T) {
	m := validPoolMessage()

	pool, err := m.toPool(domain.DexRaydium)
	if err != nil {
		t.Fatalf("toPool() failed: %v", err)
	}

	if pool.ID != "ray-sol-usdc" || pool.Dex != domain.DexRaydium {
		t.Errorf("pool identity = %s on %s", pool.ID, pool.Dex)
	}
	if pool.TokenA.Symbol != "SOL" || pool.TokenB.Symbol != "USDC" {
		t.Errorf("token symbols = %s/%s", pool.TokenA.Symbol, pool.TokenB.Symbol)
	}
	if pool.TokenA.Decimals != 9 || pool.TokenB.Decimals != 6 {
		t.Errorf("token decimals = %d/%d", pool.TokenA.Decimals, pool.TokenB.Decimals)
	}
	if !pool.ReserveA.Equal(decimal.RequireFromString("1000000.5")) {
		t.Errorf("ReserveA = %s", pool.ReserveA)
	}
	if !pool.ReserveB.Equal(decimal.RequireFromString("2000000")) {
		t.Errorf("ReserveB = %s", pool.ReserveB)
	}
	if !pool.FeeRate.Equal(decimal.RequireFromString("0.0025")) {
		t.Errorf("FeeRate = %s", pool.FeeRate)
	}
	if pool.Address != "PoolAddr111" || pool.Authority != "Auth111" || pool.ProgramID != "Prog111" {
		t.Errorf("addresses = %s/%s/%s", pool.Address, pool.Authority, pool.ProgramID)
	}
	if !pool.IsActive {
		t.Error("parsed pool should be active")
	}
}

func TestPoolMessage_ToPool_FallbackSymbols(t *testing.T) {
	m := validPoolMessage()
	m.BaseSymbol = ""
	m.QuoteSymbol = ""

	pool, err := m.toPool(domain.DexMeteora)
	if err != nil {
		t.Fatalf("toPool() failed: %v", err)
	}
	if pool.TokenA.Symbol != "BASE" || pool.TokenB.Symbol != "QUOTE" {
		t.Errorf("fallback symbols = %s/%s, want BASE/QUOTE", pool.TokenA.Symbol, pool.TokenB.Symbol)
	}
}

func TestPoolMessage_ToPool_MalformedNumerics(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*poolMessage)
		field  string
	}{
		{"bad base reserve", func(m *poolMessage) { m.BaseReserve = "not-a-number" }, "base_reserve"},
		{"bad quote reserve", func(m *poolMessage) { m.QuoteReserve = "" }, "quote_reserve"},
		{"bad fee rate", func(m *poolMessage) { m.FeeRate = "0,0025" }, "fee_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validPoolMessage()
			tt.mutate(&m)

			_, err := m.toPool(domain.DexRaydium)
			if err == nil {
				t.Fatal("toPool() should reject malformed numerics")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q should name field %s", err, tt.field)
			}
		})
	}
}

func TestPoolUpdateMessage_ToUpdate(t *testing.T) {
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m := poolUpdateMessage{
		Kind:        "price_change",
		PoolAddress: "PoolAddr111",
		ReserveA:    "500000",
		ReserveB:    "250000",
		OldPrice:    "2",
		NewPrice:    "2.1",
		Timestamp:   ts,
	}

	u := m.toUpdate(domain.DexWhirlpool)
	if u.Dex != domain.DexWhirlpool || u.PoolAddress != "PoolAddr111" {
		t.Errorf("update identity = %s on %s", u.PoolAddress, u.Dex)
	}
	if string(u.Kind) != "price_change" {
		t.Errorf("Kind = %s", u.Kind)
	}
	if !u.ReserveA.Equal(decimal.NewFromInt(500000)) || !u.ReserveB.Equal(decimal.NewFromInt(250000)) {
		t.Errorf("reserves = %s/%s", u.ReserveA, u.ReserveB)
	}
	if !u.NewPrice.Equal(decimal.RequireFromString("2.1")) {
		t.Errorf("NewPrice = %s", u.NewPrice)
	}
	if !u.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %s, want %s", u.Timestamp, ts)
	}
}

func TestPoolUpdateMessage_ToUpdate_Lenient(t *testing.T) {
	before := time.Now().UTC()
	m := poolUpdateMessage{
		Kind:        "reserve_change",
		PoolAddress: "PoolAddr111",
		ReserveA:    "garbage",
		ReserveB:    "100",
	}

	u := m.toUpdate(domain.DexPump)
	if !u.ReserveA.IsZero() {
		t.Errorf("unparseable ReserveA = %s, want 0", u.ReserveA)
	}
	if !u.ReserveB.Equal(decimal.NewFromInt(100)) {
		t.Errorf("ReserveB = %s, want 100", u.ReserveB)
	}
	if u.Timestamp.Before(before) {
		t.Error("missing timestamp should default to now")
	}
}

func TestDexErrorHandler(t *testing.T) {
	if err := dexErrorHandler(200, []byte(`{"ok":true}`)); err != nil {
		t.Errorf("2xx should not produce an error, got %v", err)
	}

	err := dexErrorHandler(429, []byte(`{"code":4290,"message":"rate limited"}`))
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("structured body should yield *apiError, got %T", err)
	}
	if apiErr.Code != 4290 || apiErr.Message != "rate limited" {
		t.Errorf("apiError = %+v", apiErr)
	}

	err = dexErrorHandler(500, []byte("internal server error"))
	if err == nil {
		t.Fatal("5xx should produce an error")
	}
	if !strings.Contains(err.Error(), "HTTP 500") || !strings.Contains(err.Error(), "internal server error") {
		t.Errorf("unstructured error = %q", err)
	}
}
