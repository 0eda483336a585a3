package app

import (
	"context"
	"sync"

	"github.com/nlemus/solarb/business/market/domain"
	"github.com/nlemus/solarb/internal/logger"
)

// MarketService fans out pool queries across all registered DEX adapters.
type MarketService struct {
	adapters map[domain.DexType]DexAdapter
	log      logger.LoggerInterface
}

// NewMarketService creates a market service over the given adapters.
func NewMarketService(adapters map[domain.DexType]DexAdapter, log logger.LoggerInterface) *MarketService {
	return &MarketService{
		adapters: adapters,
		log:      log,
	}
}

// Adapters returns the registered adapters keyed by DEX.
func (s *MarketService) Adapters() map[domain.DexType]DexAdapter {
	return s.adapters
}

// Adapter returns the adapter for a DEX, or nil when not registered.
func (s *MarketService) Adapter(dex domain.DexType) DexAdapter {
	return s.adapters[dex]
}

// AllPools fetches pools from every adapter concurrently. Adapters that
// fail are logged and skipped so one slow or broken DEX never blocks a
// scan cycle.
func (s *MarketService) AllPools(ctx context.Context) map[domain.DexType][]domain.Pool {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result = make(map[domain.DexType][]domain.Pool, len(s.adapters))
	)

	for dex, adapter := range s.adapters {
		wg.Add(1)
		go func(dex domain.DexType, adapter DexAdapter) {
			defer wg.Done()

			pools, err := adapter.GetPools(ctx)
			if err != nil {
				s.log.Warn(ctx, "failed to fetch pools", "dex", dex, "error", err)
				return
			}

			s.log.Debug(ctx, "fetched pools", "dex", dex, "count", len(pools))

			mu.Lock()
			result[dex] = pools
			mu.Unlock()
		}(dex, adapter)
	}

	wg.Wait()
	return result
}

// ConnectedDexes probes every adapter and returns the reachable ones.
func (s *MarketService) ConnectedDexes(ctx context.Context) []domain.DexType {
	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		connected []domain.DexType
	)

	for dex, adapter := range s.adapters {
		wg.Add(1)
		go func(dex domain.DexType, adapter DexAdapter) {
			defer wg.Done()
			if adapter.IsConnected(ctx) {
				mu.Lock()
				connected = append(connected, dex)
				mu.Unlock()
			}
		}(dex, adapter)
	}

	wg.Wait()
	return connected
}
