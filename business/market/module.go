// Package market implements the market bounded context for DEX pool data access.
package market

import (
	"context"
	"time"

	"github.com/nlemus/solarb/business/market/app"
	marketDI "github.com/nlemus/solarb/business/market/di"
	marketDomain "github.com/nlemus/solarb/business/market/domain"
	"github.com/nlemus/solarb/business/market/infra/restdex"
	"github.com/nlemus/solarb/internal/config"
	"github.com/nlemus/solarb/internal/di"
	"github.com/nlemus/solarb/internal/logger"
	"github.com/nlemus/solarb/internal/monolith"
	"github.com/nlemus/solarb/internal/ratelimit"
	"github.com/nlemus/solarb/pkg/ui"
)

// Module implements the market bounded context.
type Module struct{}

// RegisterServices registers all market services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register shared rate limiter registry - private dependency
	di.RegisterToken(c, marketDI.RateLimiters, func(sr di.ServiceRegistry) *ratelimit.Registry {
		return ratelimit.NewRegistry()
	})

	// Register DEX adapters - private dependency
	di.RegisterToken(c, marketDI.DexAdapters, func(sr di.ServiceRegistry) map[marketDomain.DexType]app.DexAdapter {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		limiters := marketDI.GetRateLimiters(sr)

		adapters, err := restdex.BuildAdapters(cfg, limiters, log)
		if err != nil {
			panic("failed to build dex adapters: " + err.Error())
		}
		return adapters
	})

	// Register MarketService (public - exposed to other modules)
	di.RegisterToken(c, marketDI.MarketService, func(sr di.ServiceRegistry) *app.MarketService {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewMarketService(marketDI.GetDexAdapters(sr), log)
	})

	return nil
}

// Startup probes every configured DEX so dashboards and logs show an
// accurate picture before the first scan cycle.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()
	tuiMode := cfg.Arbitrage.TUIMode

	adapters := marketDI.GetDexAdapters(mono.Services())
	for dex, adapter := range adapters {
		if tuiMode {
			ui.Send(ui.StartupMsg{Step: dex.String(), Status: "connecting"})
		}

		start := time.Now()
		connected := adapter.IsConnected(ctx)
		latency := time.Since(start)

		if connected {
			log.Info(ctx, "dex connected", "dex", dex, "latency", latency)
			if tuiMode {
				ui.Send(ui.StartupMsg{Step: dex.String(), Status: "connected"})
				ui.Send(ui.ConnectionStatusMsg{Name: dex.String(), Connected: true, Latency: latency})
			}
		} else {
			log.Warn(ctx, "dex unreachable at startup", "dex", dex)
			if tuiMode {
				ui.Send(ui.StartupMsg{Step: dex.String(), Status: "failed", Message: "unreachable"})
				ui.Send(ui.ConnectionStatusMsg{Name: dex.String(), Connected: false})
			}
		}
	}

	log.Info(ctx, "market module started", "dexes", len(adapters))
	return nil
}
