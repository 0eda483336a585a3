package restdex

import (
	"github.com/nlemus/solarb/business/market/app"
	"github.com/nlemus/solarb/business/market/domain"
	"github.com/nlemus/solarb/internal/config"
	"github.com/nlemus/solarb/internal/logger"
	"github.com/nlemus/solarb/internal/ratelimit"
)

// BuildAdapters creates one adapter per enabled DEX, each with its own
// rate limiter registered under the DEX name.
func BuildAdapters(cfg *config.Config, limiters *ratelimit.Registry, log logger.LoggerInterface) (map[domain.DexType]app.DexAdapter, error) {
	adapters := make(map[domain.DexType]app.DexAdapter)

	for _, name := range cfg.EnabledDexes() {
		dexCfg, ok := cfg.Dex(name)
		if !ok {
			continue
		}

		dex, err := domain.ParseDexType(name)
		if err != nil {
			return nil, err
		}

		adapter, err := New(Config{
			Dex:            dex,
			BaseURL:        dexCfg.BaseURL,
			WebSocketURL:   dexCfg.WebSocketURL,
			RequestTimeout: dexCfg.RequestTimeout,
		}, limiters.Add(name, dexCfg.RequestsPerMinute), log)
		if err != nil {
			return nil, err
		}

		adapters[dex] = adapter
	}

	return adapters, nil
}
