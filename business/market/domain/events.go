package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PoolUpdateKind discriminates pool update events.
type PoolUpdateKind string

const (
	PoolUpdateReserves  PoolUpdateKind = "reserves"
	PoolUpdatePrice     PoolUpdateKind = "price"
	PoolUpdateLiquidity PoolUpdateKind = "liquidity"
)

// PoolUpdate is a streamed change to a pool's state.
type PoolUpdate struct {
	Kind        PoolUpdateKind
	PoolAddress string
	Dex         DexType
	ReserveA    decimal.Decimal
	ReserveB    decimal.Decimal
	OldPrice    decimal.Decimal
	NewPrice    decimal.Decimal
	OldTVL      decimal.Decimal
	NewTVL      decimal.Decimal
	Timestamp   time.Time
}
