package app

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nlemus/solarb/business/arbitrage/domain"
	marketApp "github.com/nlemus/solarb/business/market/app"
	marketDomain "github.com/nlemus/solarb/business/market/domain"
	"github.com/nlemus/solarb/internal/logger"
)

// ScannerConfig holds scan loop tuning.
type ScannerConfig struct {
	Interval           time.Duration
	MinProfitThreshold decimal.Decimal
}

// Scanner periodically compares pool prices across DEXes and emits
// opportunities on its output channel, best first.
type Scanner struct {
	market      *marketApp.MarketService
	config      ScannerConfig
	out         chan<- *domain.Opportunity
	reporter    Reporter
	instruments scannerInstruments
	log         logger.LoggerInterface
}

// NewScanner creates a scanner that writes to out. reporter may be nil.
func NewScanner(market *marketApp.MarketService, config ScannerConfig, out chan<- *domain.Opportunity, reporter Reporter, log logger.LoggerInterface) *Scanner {
	if config.Interval <= 0 {
		config.Interval = 5 * time.Second
	}
	instruments, err := newScannerInstruments()
	if err != nil {
		log.Warn(context.Background(), "scanner metric instruments unavailable", "error", err)
	}
	return &Scanner{
		market:      market,
		config:      config,
		out:         out,
		reporter:    reporter,
		instruments: instruments,
		log:         log,
	}
}

// Run scans until ctx is cancelled. An immediate first scan runs
// before the ticker takes over.
func (s *Scanner) Run(ctx context.Context) error {
	s.log.Info(ctx, "scanner starting", "interval", s.config.Interval,
		"min_profit_threshold", s.config.MinProfitThreshold)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info(ctx, "scanner stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			s.scan(ctx)
		}
	}
}

func (s *Scanner) scan(ctx context.Context) {
	poolsByDex := s.market.AllPools(ctx)

	totalPools := 0
	for _, pools := range poolsByDex {
		totalPools += len(pools)
	}
	addCount(ctx, s.instruments.poolsScanned, int64(totalPools))

	byPair := groupByPair(poolsByDex)
	opportunities := s.findOpportunities(byPair)
	addCount(ctx, s.instruments.found, int64(len(opportunities)))
	if s.reporter != nil {
		s.reporter.ReportScan(totalPools, len(opportunities))
	}
	if len(opportunities) == 0 {
		return
	}

	sort.Slice(opportunities, func(i, j int) bool {
		return opportunities[i].ProfitPercentage.GreaterThan(opportunities[j].ProfitPercentage)
	})

	s.log.Info(ctx, "scan complete", "opportunities", len(opportunities))

	for _, o := range opportunities {
		select {
		case s.out <- o:
		case <-ctx.Done():
			return
		}
	}
}

// groupByPair buckets every pool under its canonical token pair.
func groupByPair(poolsByDex map[marketDomain.DexType][]marketDomain.Pool) map[string][]marketDomain.Pool {
	byPair := make(map[string][]marketDomain.Pool)
	for _, pools := range poolsByDex {
		for _, pool := range pools {
			if !pool.IsActive {
				continue
			}
			byPair[pool.Pair().Key()] = append(byPair[pool.Pair().Key()], pool)
		}
	}
	return byPair
}

// findOpportunities compares every pool pairing within each token pair
// and keeps the ones clearing the profit threshold.
func (s *Scanner) findOpportunities(byPair map[string][]marketDomain.Pool) []*domain.Opportunity {
	var found []*domain.Opportunity

	for _, pools := range byPair {
		if len(pools) < 2 {
			continue
		}
		pair := pools[0].Pair()

		for i := 0; i < len(pools); i++ {
			for j := i + 1; j < len(pools); j++ {
				o, ok := s.compare(pair, pools[i], pools[j])
				if ok {
					found = append(found, o)
				}
			}
		}
	}
	return found
}

func (s *Scanner) compare(pair marketDomain.TokenPair, a, b marketDomain.Pool) (*domain.Opportunity, bool) {
	priceA, okA := a.Price(pair.Base)
	priceB, okB := b.Price(pair.Base)
	if !okA || !okB {
		return nil, false
	}

	minPrice := decimal.Min(priceA, priceB)
	if !minPrice.IsPositive() {
		return nil, false
	}

	profitPct := priceA.Sub(priceB).Abs().Div(minPrice)
	if profitPct.LessThan(s.config.MinProfitThreshold) {
		return nil, false
	}

	// Buy where it is cheap, sell where it is dear.
	buy, sell := a, b
	if priceB.LessThan(priceA) {
		buy, sell = b, a
	}

	o := domain.NewOpportunity(pair, buy, sell)
	return &o, true
}
