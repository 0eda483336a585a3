package memstore

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nlemus/solarb/business/arbitrage/app"
	"github.com/nlemus/solarb/business/arbitrage/domain"
	marketDomain "github.com/nlemus/solarb/business/market/domain"
	"github.com/nlemus/solarb/internal/apperror"
	"github.com/nlemus/solarb/internal/logger"
)

var (
	testSOL  = marketDomain.NewToken("So11111111111111111111111111111111111111112", "SOL", "Solana", 9)
	testUSDC = marketDomain.NewToken("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", "USDC", "USD Coin", 6)
)

func newTestStore(cfg Config) *Store {
	return New(cfg, logger.New(io.Discard, logger.LevelError, "test", nil))
}

func testOpportunity(id string, buyDex, sellDex marketDomain.DexType) *domain.Opportunity {
	buy := marketDomain.NewPool("buy-"+id, buyDex, testUSDC, testSOL, "addr-buy-"+id).
		WithReserves(decimal.NewFromInt(1000000), decimal.NewFromInt(1000000))
	sell := marketDomain.NewPool("sell-"+id, sellDex, testUSDC, testSOL, "addr-sell-"+id).
		WithReserves(decimal.NewFromInt(1010000), decimal.NewFromInt(1000000))

	o := domain.NewOpportunity(buy.Pair(), buy, sell)
	o.ID = id
	return &o
}

func TestStore_SaveAndGetOpportunity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(Config{})

	o := testOpportunity("o-1", marketDomain.DexRaydium, marketDomain.DexMeteora)
	if err := s.SaveOpportunity(ctx, o); err != nil {
		t.Fatalf("SaveOpportunity() failed: %v", err)
	}

	got, err := s.GetOpportunity(ctx, "o-1")
	if err != nil {
		t.Fatalf("GetOpportunity() failed: %v", err)
	}
	if got.ID != "o-1" {
		t.Errorf("GetOpportunity() = %s, want o-1", got.ID)
	}

	if _, err := s.GetOpportunity(ctx, "missing"); apperror.GetCode(err) != apperror.CodeOpportunityNotFound {
		t.Errorf("GetOpportunity(unknown) code = %v, want OPPORTUNITY_NOT_FOUND", apperror.GetCode(err))
	}
}

func TestStore_CopiesInsulateCallers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(Config{})

	o := testOpportunity("o-1", marketDomain.DexRaydium, marketDomain.DexMeteora)
	s.SaveOpportunity(ctx, o)

	// Mutating the caller's pointer after saving must not leak into
	// the stored record.
	o.Status = domain.OpportunityFailed
	got, err := s.GetOpportunity(ctx, "o-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.OpportunityPending {
		t.Errorf("stored status = %s, want pending (caller mutation leaked in)", got.Status)
	}

	// And a store-side status update must not reach back out.
	o.Status = domain.OpportunityPending
	s.UpdateOpportunityStatus(ctx, "o-1", domain.OpportunityCompleted)
	if o.Status != domain.OpportunityPending {
		t.Errorf("caller status = %s, want pending (store mutation leaked out)", o.Status)
	}

	// Reads hand out independent copies.
	first, _ := s.GetOpportunity(ctx, "o-1")
	first.Status = domain.OpportunityExpired
	second, _ := s.GetOpportunity(ctx, "o-1")
	if second.Status != domain.OpportunityCompleted {
		t.Errorf("second read status = %s, want completed", second.Status)
	}
	if byStatus := s.GetOpportunitiesByStatus(ctx, domain.OpportunityCompleted); len(byStatus) != 1 {
		t.Fatalf("completed opportunities = %d, want 1", len(byStatus))
	}
}

func TestStore_ConcurrentStatusAccess(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(Config{})

	const n = 50
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = fmt.Sprintf("o-%d", i)
		s.SaveOpportunity(ctx, testOpportunity(ids[i], marketDomain.DexRaydium, marketDomain.DexMeteora))
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, id := range ids {
			s.UpdateOpportunityStatus(ctx, id, domain.OpportunityCompleted)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			for _, o := range s.GetOpportunitiesByStatus(ctx, domain.OpportunityPending) {
				o.Status = domain.OpportunityExpired
			}
		}
	}()
	wg.Wait()

	if got := s.GetOpportunitiesByStatus(ctx, domain.OpportunityCompleted); len(got) != n {
		t.Errorf("completed opportunities = %d, want %d", len(got), n)
	}
}

func TestStore_CapacityEvictsOldest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(Config{MaxOpportunities: 3})

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		o := testOpportunity(fmt.Sprintf("o-%d", i), marketDomain.DexRaydium, marketDomain.DexMeteora)
		o.Timestamp = base.Add(time.Duration(i) * time.Second)
		if err := s.SaveOpportunity(ctx, o); err != nil {
			t.Fatal(err)
		}
	}

	// The fourth insert evicts o-0, the oldest by timestamp.
	overflow := testOpportunity("o-3", marketDomain.DexRaydium, marketDomain.DexMeteora)
	overflow.Timestamp = base.Add(3 * time.Second)
	if err := s.SaveOpportunity(ctx, overflow); err != nil {
		t.Fatal(err)
	}

	if _, err := s.GetOpportunity(ctx, "o-0"); err == nil {
		t.Error("oldest opportunity should have been evicted")
	}
	for _, id := range []string{"o-1", "o-2", "o-3"} {
		if _, err := s.GetOpportunity(ctx, id); err != nil {
			t.Errorf("opportunity %s should survive eviction", id)
		}
	}
	if usage := s.StorageUsage(ctx); usage.OpportunitiesCount != 3 {
		t.Errorf("OpportunitiesCount = %d, want 3", usage.OpportunitiesCount)
	}
}

func TestStore_ResaveDoesNotEvict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(Config{MaxOpportunities: 2})

	a := testOpportunity("o-a", marketDomain.DexRaydium, marketDomain.DexMeteora)
	b := testOpportunity("o-b", marketDomain.DexRaydium, marketDomain.DexMeteora)
	s.SaveOpportunity(ctx, a)
	s.SaveOpportunity(ctx, b)

	// Re-saving an existing ID must not push anything out.
	s.SaveOpportunity(ctx, a)

	if usage := s.StorageUsage(ctx); usage.OpportunitiesCount != 2 {
		t.Errorf("OpportunitiesCount = %d, want 2", usage.OpportunitiesCount)
	}
}

func TestStore_UpdateOpportunityStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(Config{})

	o := testOpportunity("o-1", marketDomain.DexRaydium, marketDomain.DexMeteora)
	s.SaveOpportunity(ctx, o)

	if err := s.UpdateOpportunityStatus(ctx, "o-1", domain.OpportunityCompleted); err != nil {
		t.Fatalf("UpdateOpportunityStatus() failed: %v", err)
	}
	if len(s.GetActiveOpportunities(ctx)) != 0 {
		t.Error("completed opportunity should not be active")
	}
	if got := s.GetOpportunitiesByStatus(ctx, domain.OpportunityCompleted); len(got) != 1 {
		t.Errorf("completed opportunities = %d, want 1", len(got))
	}

	if err := s.UpdateOpportunityStatus(ctx, "o-1", domain.OpportunityCancelled); err != nil {
		t.Fatalf("UpdateOpportunityStatus(cancelled) failed: %v", err)
	}
	if got := s.GetOpportunitiesByStatus(ctx, domain.OpportunityCancelled); len(got) != 1 {
		t.Errorf("cancelled opportunities = %d, want 1", len(got))
	}

	if err := s.UpdateOpportunityStatus(ctx, "missing", domain.OpportunityFailed); err == nil {
		t.Error("updating an unknown opportunity should fail")
	}
}

func TestStore_SearchOpportunities(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(Config{})

	rich := testOpportunity("rich", marketDomain.DexRaydium, marketDomain.DexMeteora)
	rich.NetProfit = decimal.NewFromInt(100)
	poor := testOpportunity("poor", marketDomain.DexRaydium, marketDomain.DexMeteora)
	poor.NetProfit = decimal.NewFromInt(1)
	pump := testOpportunity("pump", marketDomain.DexPump, marketDomain.DexMeteora)
	pump.NetProfit = decimal.NewFromInt(100)

	s.BatchSaveOpportunities(ctx, []*domain.Opportunity{rich, poor, pump})

	got := s.SearchOpportunities(ctx, app.SearchFilter{
		MinNetProfit: decimal.NewFromInt(50),
		MaxRisk:      domain.RiskCritical,
		Dexes:        []marketDomain.DexType{marketDomain.DexRaydium, marketDomain.DexMeteora},
	})
	if len(got) != 1 || got[0].ID != "rich" {
		t.Errorf("search = %d results, want only rich", len(got))
	}

	// Empty dex filter matches every venue.
	got = s.SearchOpportunities(ctx, app.SearchFilter{
		MinNetProfit: decimal.NewFromInt(50),
		MaxRisk:      domain.RiskCritical,
	})
	if len(got) != 2 {
		t.Errorf("search without dex filter = %d results, want 2", len(got))
	}
}

func TestStore_ExecutionsFIFOEviction(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(Config{MaxExecutions: 2})

	for i := 0; i < 3; i++ {
		o := testOpportunity(fmt.Sprintf("o-%d", i), marketDomain.DexRaydium, marketDomain.DexMeteora)
		e := domain.NewExecution(*o, decimal.NewFromInt(1000))
		e.ID = fmt.Sprintf("e-%d", i)
		if err := s.SaveExecution(ctx, &e); err != nil {
			t.Fatal(err)
		}
	}

	pending := s.GetExecutionsByStatus(ctx, domain.ExecutionPending)
	if len(pending) != 2 {
		t.Fatalf("executions = %d, want 2 after FIFO eviction", len(pending))
	}
	for _, e := range pending {
		if e.ID == "e-0" {
			t.Error("oldest execution should have been evicted first")
		}
	}
}

func TestStore_MetricsAndStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(Config{})

	o := testOpportunity("o-1", marketDomain.DexRaydium, marketDomain.DexMeteora)
	s.SaveOpportunity(ctx, o)

	confirmed := domain.NewExecution(*o, decimal.NewFromInt(1000))
	confirmed.Status = domain.ExecutionConfirmed
	confirmed.ActualProfit = decimal.NewFromInt(40)
	confirmed.TotalCost = decimal.NewFromInt(6)
	s.SaveExecution(ctx, &confirmed)

	failed := domain.NewExecution(*o, decimal.NewFromInt(1000))
	failed.Status = domain.ExecutionFailed
	s.SaveExecution(ctx, &failed)

	m := s.Metrics(ctx)
	if m.TotalOpportunities != 1 || m.TotalExecutions != 2 || m.SuccessfulExecutions != 1 {
		t.Errorf("metrics = %+v", m)
	}
	if !m.TotalProfit.Equal(decimal.NewFromInt(40)) {
		t.Errorf("TotalProfit = %s, want 40", m.TotalProfit)
	}

	count, profit, fees := s.GetExecutionStats(ctx, 7)
	if count != 2 {
		t.Errorf("stats count = %d, want 2", count)
	}
	if !profit.Equal(decimal.NewFromInt(40)) {
		t.Errorf("stats profit = %s, want 40", profit)
	}
	if !fees.Equal(decimal.NewFromInt(6)) {
		t.Errorf("stats fees = %s, want 6", fees)
	}
}

func TestStore_StrategyCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(Config{})

	strategy, err := domain.NewStrategy("test", domain.DefaultStrategyParameters())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveStrategy(ctx, strategy); err != nil {
		t.Fatalf("SaveStrategy() failed: %v", err)
	}

	got, err := s.GetStrategy(ctx, strategy.ID)
	if err != nil {
		t.Fatalf("GetStrategy() failed: %v", err)
	}
	if got.Name != "test" {
		t.Errorf("GetStrategy().Name = %s, want test", got.Name)
	}
	if len(s.GetStrategies(ctx)) != 1 {
		t.Error("GetStrategies() should return the saved strategy")
	}

	if err := s.DeleteStrategy(ctx, strategy.ID); err != nil {
		t.Fatalf("DeleteStrategy() failed: %v", err)
	}
	if err := s.DeleteStrategy(ctx, strategy.ID); apperror.GetCode(err) != apperror.CodeNotFound {
		t.Errorf("DeleteStrategy(gone) code = %v, want NOT_FOUND", apperror.GetCode(err))
	}
}

func TestStore_Cleanup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(Config{RetentionDays: 7})

	stale := testOpportunity("stale", marketDomain.DexRaydium, marketDomain.DexMeteora)
	stale.ExpiresAt = time.Now().Add(-time.Minute)
	fresh := testOpportunity("fresh", marketDomain.DexRaydium, marketDomain.DexMeteora)
	s.BatchSaveOpportunities(ctx, []*domain.Opportunity{stale, fresh})

	o := testOpportunity("o-old", marketDomain.DexRaydium, marketDomain.DexMeteora)
	old := domain.NewExecution(*o, decimal.NewFromInt(1000))
	old.ExecutionTime = time.Now().Add(-8 * 24 * time.Hour)
	recent := domain.NewExecution(*o, decimal.NewFromInt(1000))
	s.SaveExecution(ctx, &old)
	s.SaveExecution(ctx, &recent)

	s.Cleanup(ctx)

	got, err := s.GetOpportunity(ctx, "stale")
	if err != nil {
		t.Fatal("cleanup should keep expired opportunities, only flip their status")
	}
	if got.Status != domain.OpportunityExpired {
		t.Errorf("stale status = %s, want expired", got.Status)
	}
	if freshGot, _ := s.GetOpportunity(ctx, "fresh"); freshGot.Status != domain.OpportunityPending {
		t.Error("fresh opportunity should stay pending")
	}

	if usage := s.StorageUsage(ctx); usage.ExecutionsCount != 1 {
		t.Errorf("ExecutionsCount = %d, want 1 after retention cleanup", usage.ExecutionsCount)
	}
	if s.Metrics(ctx).LastCleanup.IsZero() {
		t.Error("cleanup should stamp LastCleanup")
	}
}
