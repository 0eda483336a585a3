// Package infra contains infrastructure adapters for the arbitrage context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nlemus/solarb/business/arbitrage/domain"
)

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a new ConsoleReporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{
		out: os.Stdout,
	}
}

// Start initializes the console reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	fmt.Fprintln(r.out, "Solana Arbitrage Bot Started")
	fmt.Fprintln(r.out, "============================")
	return nil
}

// ReportScan outputs scan cycle stats when something was found.
func (r *ConsoleReporter) ReportScan(poolsScanned, opportunities int) {
	if opportunities == 0 {
		return
	}
	fmt.Fprintf(r.out, "[%s] scan: %d pools, %d opportunities\n",
		time.Now().Format("15:04:05"), poolsScanned, opportunities)
}

// ReportOpportunity outputs an accepted opportunity to the console.
func (r *ConsoleReporter) ReportOpportunity(o *domain.Opportunity) {
	pct := o.ProfitPercentage.Mul(decimal.NewFromInt(100))

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintln(r.out, "ARBITRAGE OPPORTUNITY DETECTED")
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintf(r.out, "ID:             %s\n", o.ID)
	fmt.Fprintf(r.out, "Timestamp:      %s\n", o.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(r.out, "Pair:           %s/%s\n", o.TokenPair.Base.Symbol, o.TokenPair.Quote.Symbol)
	fmt.Fprintf(r.out, "Route:          %s -> %s\n", o.BuyPool.Dex, o.SellPool.Dex)
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "PRICES")
	fmt.Fprintf(r.out, "  Buy (%s):  %s\n", o.BuyPool.Dex, o.BuyPrice.StringFixed(6))
	fmt.Fprintf(r.out, "  Sell (%s): %s\n", o.SellPool.Dex, o.SellPrice.StringFixed(6))
	fmt.Fprintf(r.out, "  Margin:         %s%%\n", pct.StringFixed(2))
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "PROFIT")
	fmt.Fprintf(r.out, "  Estimated:      %s\n", o.EstimatedProfit.StringFixed(4))
	fmt.Fprintf(r.out, "  Fees:           %s\n", o.EstimatedFees.StringFixed(4))
	fmt.Fprintf(r.out, "  Net:            %s\n", o.NetProfit.StringFixed(4))
	fmt.Fprintf(r.out, "  Risk:           %s\n", o.Risk)
	fmt.Fprintln(r.out, "================================================================================")
}

// ReportExecution outputs a finished execution to the console.
func (r *ConsoleReporter) ReportExecution(e *domain.Execution) {
	fmt.Fprintf(r.out, "[%s] execution %s: %s",
		e.ExecutionTime.Format("15:04:05"), e.ID, e.Status)
	if e.TransactionSignature != "" {
		fmt.Fprintf(r.out, " sig=%s", e.TransactionSignature)
	}
	if e.Status == domain.ExecutionConfirmed {
		fmt.Fprintf(r.out, " profit=%s", e.ActualProfit.StringFixed(4))
	}
	if e.ErrorMessage != "" {
		fmt.Fprintf(r.out, " error=%q", e.ErrorMessage)
	}
	fmt.Fprintln(r.out)
}

// UpdateMetrics is a no-op for the console; metrics go to the logs.
func (r *ConsoleReporter) UpdateMetrics(m domain.EngineMetrics) {
}

// UpdateConnectionStatus outputs connection status changes.
func (r *ConsoleReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	status := "disconnected"
	if connected {
		status = fmt.Sprintf("connected (%s)", latency)
	}
	fmt.Fprintf(r.out, "[%s] %s: %s\n", time.Now().Format("15:04:05"), name, status)
}

// Stop gracefully shuts down the console reporter.
func (r *ConsoleReporter) Stop() error {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Solana Arbitrage Bot Stopped")
	return nil
}
