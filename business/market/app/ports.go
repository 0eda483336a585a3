// Package app contains the application services for the market context.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/nlemus/solarb/business/market/domain"
)

// DexAdapter is the capability port every DEX integration implements.
type DexAdapter interface {
	// DexType returns which DEX this adapter talks to.
	DexType() domain.DexType
	// Name returns a human-readable adapter name.
	Name() string
	// Version returns the adapter version string.
	Version() string

	// IsConnected probes the DEX API for reachability.
	IsConnected(ctx context.Context) bool
	// GetPools fetches all active liquidity pools.
	GetPools(ctx context.Context) ([]domain.Pool, error)
	// GetPoolsByTokens fetches pools trading the given pair, in either order.
	GetPoolsByTokens(ctx context.Context, tokenA, tokenB domain.Token) ([]domain.Pool, error)
	// GetPoolState fetches an enriched snapshot of one pool.
	GetPoolState(ctx context.Context, poolAddress string) (domain.PoolState, error)
	// GetTokenPrice returns the spot price of token quoted in quoteToken.
	GetTokenPrice(ctx context.Context, token, quoteToken domain.Token) (decimal.Decimal, error)
	// GetQuote returns a swap quote. poolAddress is optional; when empty
	// the adapter picks the deepest pool for the pair.
	GetQuote(ctx context.Context, input, output domain.Token, inputAmount decimal.Decimal, poolAddress string) (domain.PoolQuote, error)
	// ExecuteSwap submits a swap and returns the transaction signature.
	ExecuteSwap(ctx context.Context, quote domain.PoolQuote, wallet string, slippageTolerance decimal.Decimal) (string, error)
	// GetPoolMetrics fetches trading metrics for one pool.
	GetPoolMetrics(ctx context.Context, poolAddress string) (domain.PoolMetrics, error)
	// GetDexMetrics fetches DEX-wide metrics.
	GetDexMetrics(ctx context.Context) (domain.DexMetrics, error)
	// SubscribePoolUpdates streams updates for one pool until ctx is done.
	SubscribePoolUpdates(ctx context.Context, poolAddress string) (<-chan domain.PoolUpdate, error)
	// GetSupportedTokens lists tokens tradable on this DEX.
	GetSupportedTokens(ctx context.Context) ([]domain.Token, error)
	// ValidateTransaction checks a serialized transaction before submission.
	ValidateTransaction(ctx context.Context, transactionData []byte) (bool, error)
}
