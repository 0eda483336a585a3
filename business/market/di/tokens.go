// Package di contains dependency injection tokens for the market context.
package di

import (
	"github.com/nlemus/solarb/business/market/app"
	marketDomain "github.com/nlemus/solarb/business/market/domain"
	"github.com/nlemus/solarb/internal/di"
	"github.com/nlemus/solarb/internal/ratelimit"
)

// Public service tokens - exposed to other modules
var (
	MarketService = di.NewToken[*app.MarketService]("market.MarketService")
)

// Private dependency tokens - internal to market module
var (
	DexAdapters  = di.NewToken[map[marketDomain.DexType]app.DexAdapter]("market:dexAdapters")
	RateLimiters = di.NewToken[*ratelimit.Registry]("market:rateLimiters")
)

// Helper functions for type-safe access
func GetMarketService(c di.ServiceRegistry) *app.MarketService {
	return di.GetToken(c, MarketService)
}

func GetDexAdapters(c di.ServiceRegistry) map[marketDomain.DexType]app.DexAdapter {
	return di.GetToken(c, DexAdapters)
}

func GetRateLimiters(c di.ServiceRegistry) *ratelimit.Registry {
	return di.GetToken(c, RateLimiters)
}
