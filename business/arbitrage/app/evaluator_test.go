package app

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/nlemus/solarb/business/arbitrage/domain"
	"github.com/nlemus/solarb/internal/apperror"
)

func TestStrategyManager_Add(t *testing.T) {
	m := NewStrategyManager()

	s, err := domain.NewStrategy("test", domain.DefaultStrategyParameters())
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Add(s); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if _, ok := m.Get(s.ID); !ok {
		t.Error("strategy should be retrievable after Add")
	}

	invalid := s
	invalid.Name = ""
	if err := m.Add(invalid); apperror.GetCode(err) != apperror.CodeInvalidStrategy {
		t.Errorf("Add(invalid) code = %v, want INVALID_STRATEGY", apperror.GetCode(err))
	}
}

func TestStrategyManager_Update(t *testing.T) {
	m := NewStrategyManager()

	s, _ := domain.NewStrategy("test", domain.DefaultStrategyParameters())
	if err := m.Update(s); apperror.GetCode(err) != apperror.CodeNotFound {
		t.Errorf("Update(unknown) code = %v, want NOT_FOUND", apperror.GetCode(err))
	}

	if err := m.Add(s); err != nil {
		t.Fatal(err)
	}
	s.Active = false
	if err := m.Update(s); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	got, _ := m.Get(s.ID)
	if got.Active {
		t.Error("update should have deactivated the strategy")
	}
	if m.ActiveCount() != 0 {
		t.Errorf("ActiveCount() = %d, want 0", m.ActiveCount())
	}
}

func TestStrategyManager_Remove(t *testing.T) {
	m := NewStrategyManager()

	if err := m.Remove("missing"); apperror.GetCode(err) != apperror.CodeNotFound {
		t.Errorf("Remove(unknown) code = %v, want NOT_FOUND", apperror.GetCode(err))
	}

	s, _ := domain.NewStrategy("test", domain.DefaultStrategyParameters())
	m.Add(s)
	if err := m.Remove(s.ID); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if _, ok := m.Get(s.ID); ok {
		t.Error("strategy should be gone after Remove")
	}
}

func TestStrategyManager_Evaluate_OrdersByScore(t *testing.T) {
	m := NewStrategyManager()
	m.Add(domain.NewConservativeStrategy())
	m.Add(domain.NewAggressiveStrategy())

	o := testOpportunity()
	evaluations := m.Evaluate(o)
	if len(evaluations) != 2 {
		t.Fatalf("Evaluate() returned %d evaluations, want 2", len(evaluations))
	}

	// The aggressive preset's lower profit bar inflates its margin
	// score, so it should rank first.
	if evaluations[0].Strategy.Name != "Aggressive" {
		t.Errorf("top strategy = %s, want Aggressive", evaluations[0].Strategy.Name)
	}
	if !evaluations[0].Score.GreaterThan(evaluations[1].Score) {
		t.Errorf("scores not descending: %s <= %s", evaluations[0].Score, evaluations[1].Score)
	}
}

func TestStrategyManager_Evaluate_LiquidityLowersScore(t *testing.T) {
	m := NewStrategyManager()
	s, _ := domain.NewStrategy("test", domain.DefaultStrategyParameters())
	m.Add(s)

	deep := testOpportunity()

	shallowBuy := testPool("buy", deep.BuyPool.Dex, "2000", "2000")
	shallow := domain.NewOpportunity(shallowBuy.Pair(), shallowBuy, deep.SellPool)

	deepScore := m.Evaluate(deep)[0].Score
	shallowScore := m.Evaluate(&shallow)[0].Score
	if !shallowScore.LessThan(deepScore) {
		t.Errorf("shallow buy pool should score lower: %s >= %s", shallowScore, deepScore)
	}
}

func TestStrategyManager_FindSuitable(t *testing.T) {
	m := NewStrategyManager()

	o := testOpportunity()
	if _, ok := m.FindSuitable(o); ok {
		t.Error("empty manager should find nothing")
	}

	inactive, _ := domain.NewStrategy("inactive", domain.DefaultStrategyParameters())
	inactive.Active = false
	m.Add(inactive)

	active, _ := domain.NewStrategy("active", domain.DefaultStrategyParameters())
	m.Add(active)

	got, ok := m.FindSuitable(o)
	if !ok {
		t.Fatal("FindSuitable() found nothing")
	}
	if got.Name != "active" {
		t.Errorf("FindSuitable() = %s, want active", got.Name)
	}
}

func TestStrategyManager_FindSuitable_RejectsThinMargin(t *testing.T) {
	m := NewStrategyManager()
	params := domain.DefaultStrategyParameters()
	params.MinProfitThreshold = decimal.RequireFromString("0.05")
	s, _ := domain.NewStrategy("greedy", params)
	m.Add(s)

	if _, ok := m.FindSuitable(testOpportunity()); ok {
		t.Error("1% margin should not satisfy a 5% threshold")
	}
}
