package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	marketDomain "github.com/nlemus/solarb/business/market/domain"
)

// ExecutionStatus tracks a trade through submission and confirmation.
type ExecutionStatus string

const (
	ExecutionPending   ExecutionStatus = "pending"
	ExecutionSubmitted ExecutionStatus = "submitted"
	ExecutionConfirmed ExecutionStatus = "confirmed"
	ExecutionFailed    ExecutionStatus = "failed"
	ExecutionCancelled ExecutionStatus = "cancelled"
)

// IsTerminal reports whether the status is final.
func (s ExecutionStatus) IsTerminal() bool {
	switch s {
	case ExecutionConfirmed, ExecutionFailed, ExecutionCancelled:
		return true
	}
	return false
}

// Route is the swap path an execution follows, one pool per hop.
type Route struct {
	ID             string
	Pools          []marketDomain.Pool
	InputToken     marketDomain.Token
	OutputToken    marketDomain.Token
	InputAmount    decimal.Decimal
	ExpectedOutput decimal.Decimal
	ActualOutput   decimal.Decimal
	Fees           []decimal.Decimal
	TotalFees      decimal.Decimal
	PriceImpact    decimal.Decimal
}

// NewRoute builds a route and prices each hop from current reserves.
func NewRoute(pools []marketDomain.Pool, input marketDomain.Token, inputAmount decimal.Decimal) Route {
	r := Route{
		ID:          uuid.NewString(),
		Pools:       pools,
		InputToken:  input,
		InputAmount: inputAmount,
	}

	amount := inputAmount
	token := input
	for _, pool := range pools {
		fee := amount.Mul(pool.FeeRate)
		r.Fees = append(r.Fees, fee)
		r.TotalFees = r.TotalFees.Add(fee)

		if impact, ok := pool.PriceImpact(amount, token); ok && impact.GreaterThan(r.PriceImpact) {
			r.PriceImpact = impact
		}

		out, ok := pool.OutputAmount(amount, token)
		if !ok {
			break
		}
		amount = out
		token = pool.OtherToken(token)
	}

	r.ExpectedOutput = amount
	r.OutputToken = token
	return r
}

// Execution is one attempt at capturing an opportunity.
type Execution struct {
	ID                   string
	Opportunity          Opportunity
	Route                Route
	TransactionSignature string
	Status               ExecutionStatus
	GasUsed              decimal.Decimal
	GasPrice             decimal.Decimal
	TotalCost            decimal.Decimal
	ActualProfit         decimal.Decimal
	ExecutionTime        time.Time
	ErrorMessage         string
}

// NewExecution creates a pending execution routed buy pool then sell
// pool for the opportunity's pair.
func NewExecution(o Opportunity, inputAmount decimal.Decimal) Execution {
	route := NewRoute(
		[]marketDomain.Pool{o.BuyPool, o.SellPool},
		o.TokenPair.Base,
		inputAmount,
	)

	return Execution{
		ID:            uuid.NewString(),
		Opportunity:   o,
		Route:         route,
		Status:        ExecutionPending,
		GasUsed:       decimal.Zero,
		GasPrice:      decimal.Zero,
		TotalCost:     decimal.Zero,
		ActualProfit:  decimal.Zero,
		ExecutionTime: time.Now().UTC(),
	}
}
