package app

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nlemus/solarb/business/arbitrage/domain"
	marketDomain "github.com/nlemus/solarb/business/market/domain"
	"github.com/nlemus/solarb/internal/apperror"
	"github.com/nlemus/solarb/internal/logger"
)

var (
	testSOL  = marketDomain.NewToken("So11111111111111111111111111111111111111112", "SOL", "Solana", 9)
	testUSDC = marketDomain.NewToken("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", "USDC", "USD Coin", 6)
)

func testLogger() *logger.Logger {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func testPool(id string, dex marketDomain.DexType, reserveA, reserveB string) marketDomain.Pool {
	p := marketDomain.NewPool(id, dex, testUSDC, testSOL, "addr-"+id)
	return p.
		WithReserves(decimal.RequireFromString(reserveA), decimal.RequireFromString(reserveB)).
		WithFeeRate(decimal.RequireFromString("0.003"))
}

// testOpportunity builds a liquid ~1% opportunity between Raydium and
// Meteora, suitable for the default strategy.
func testOpportunity() *domain.Opportunity {
	buy := testPool("buy", marketDomain.DexRaydium, "1000000", "1000000")
	sell := testPool("sell", marketDomain.DexMeteora, "1010000", "1000000")
	o := domain.NewOpportunity(buy.Pair(), buy, sell)
	return &o
}

// fakeStore is an in-memory Store recording writes for assertions.
type fakeStore struct {
	mu            sync.Mutex
	opportunities map[string]*domain.Opportunity
	executions    []*domain.Execution
	strategies    map[string]domain.Strategy
	statusUpdates map[string]domain.OpportunityStatus
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		opportunities: make(map[string]*domain.Opportunity),
		strategies:    make(map[string]domain.Strategy),
		statusUpdates: make(map[string]domain.OpportunityStatus),
	}
}

func (s *fakeStore) SaveOpportunity(ctx context.Context, o *domain.Opportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opportunities[o.ID] = o
	return nil
}

func (s *fakeStore) BatchSaveOpportunities(ctx context.Context, opportunities []*domain.Opportunity) error {
	for _, o := range opportunities {
		if err := s.SaveOpportunity(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeStore) GetOpportunity(ctx context.Context, id string) (*domain.Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.opportunities[id]
	if !ok {
		return nil, apperror.NotFound(apperror.CodeOpportunityNotFound, id)
	}
	return o, nil
}

func (s *fakeStore) GetActiveOpportunities(ctx context.Context) []*domain.Opportunity {
	return s.GetOpportunitiesByStatus(ctx, domain.OpportunityPending)
}

func (s *fakeStore) GetOpportunitiesByStatus(ctx context.Context, status domain.OpportunityStatus) []*domain.Opportunity {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Opportunity
	for _, o := range s.opportunities {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}

func (s *fakeStore) UpdateOpportunityStatus(ctx context.Context, id string, status domain.OpportunityStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusUpdates[id] = status
	if o, ok := s.opportunities[id]; ok {
		o.Status = status
	}
	return nil
}

func (s *fakeStore) SearchOpportunities(ctx context.Context, filter SearchFilter) []*domain.Opportunity {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Opportunity
	for _, o := range s.opportunities {
		out = append(out, o)
	}
	return out
}

func (s *fakeStore) SaveExecution(ctx context.Context, e *domain.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executions = append(s.executions, e)
	return nil
}

func (s *fakeStore) GetExecutionsByStatus(ctx context.Context, status domain.ExecutionStatus) []*domain.Execution {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Execution
	for _, e := range s.executions {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

func (s *fakeStore) GetExecutionStats(ctx context.Context, days int) (int, decimal.Decimal, decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.executions), decimal.Zero, decimal.Zero
}

func (s *fakeStore) SaveStrategy(ctx context.Context, strategy domain.Strategy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strategies[strategy.ID] = strategy
	return nil
}

func (s *fakeStore) GetStrategy(ctx context.Context, id string) (domain.Strategy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	strategy, ok := s.strategies[id]
	if !ok {
		return domain.Strategy{}, apperror.NotFound(apperror.CodeNotFound, "strategy "+id)
	}
	return strategy, nil
}

func (s *fakeStore) GetStrategies(ctx context.Context) []domain.Strategy {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Strategy
	for _, strategy := range s.strategies {
		out = append(out, strategy)
	}
	return out
}

func (s *fakeStore) DeleteStrategy(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.strategies, id)
	return nil
}

func (s *fakeStore) StorageUsage(ctx context.Context) domain.StorageUsage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.StorageUsage{
		OpportunitiesCount: len(s.opportunities),
		ExecutionsCount:    len(s.executions),
		StrategiesCount:    len(s.strategies),
	}
}

func (s *fakeStore) Metrics(ctx context.Context) domain.StoreMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.StoreMetrics{TotalOpportunities: len(s.opportunities)}
}

// fakeWatcher drives executor tests with scripted submit and status
// behavior.
type fakeWatcher struct {
	mu         sync.Mutex
	submitErr  error
	receipt    TxReceipt
	statusErr  error
	submitted  []string
	nextSigSeq int
}

func (w *fakeWatcher) Submit(ctx context.Context, e *domain.Execution) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitErr != nil {
		return "", w.submitErr
	}
	w.nextSigSeq++
	sig := "SIG" + string(rune('0'+w.nextSigSeq))
	w.submitted = append(w.submitted, e.ID)
	return sig, nil
}

func (w *fakeWatcher) Status(ctx context.Context, signature string) (TxReceipt, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.statusErr != nil {
		return TxReceipt{}, w.statusErr
	}
	return w.receipt, nil
}

// fakeReporter counts reporter callbacks.
type fakeReporter struct {
	mu            sync.Mutex
	scans         int
	opportunities int
	executions    int
	metrics       int
	connections   int
	started       bool
	stopped       bool
}

func (r *fakeReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = true
	return nil
}

func (r *fakeReporter) ReportScan(poolsScanned, opportunities int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scans++
}

func (r *fakeReporter) ReportOpportunity(o *domain.Opportunity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opportunities++
}

func (r *fakeReporter) ReportExecution(e *domain.Execution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executions++
}

func (r *fakeReporter) UpdateMetrics(m domain.EngineMetrics) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics++
}

func (r *fakeReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connections++
}

func (r *fakeReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	return nil
}
